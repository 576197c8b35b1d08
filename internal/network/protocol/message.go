package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
// 事件名沿用浏览器客户端的 kebab-case 词汇表
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgJoinRoom        MessageType = "join-room"         // 加入房间
	MsgMove            MessageType = "move"              // 走子
	MsgRollDice        MessageType = "roll-dice"         // 掷骰子
	MsgRequestReroll   MessageType = "request-reroll"    // 请求重掷
	MsgRespondToReroll MessageType = "respond-to-reroll" // 回应重掷请求
	MsgGameOver        MessageType = "game-over"         // 客户端报告终局
)

// 服务端 → 客户端 消息类型
const (
	// 房间相关
	MsgRoomJoined   MessageType = "room-joined"   // 加入房间成功
	MsgPlayerJoined MessageType = "player-joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player-left"   // 玩家离开
	MsgGameStart    MessageType = "game-start"    // 游戏开始

	// 对局流程
	MsgOpponentMove MessageType = "opponent-move" // 对手走子
	MsgGameEnded    MessageType = "game-ended"    // 对局结束

	// 骰子协商
	MsgDiceResult         MessageType = "dice-result"          // 掷骰结果（发给掷骰方）
	MsgOpponentRolledDice MessageType = "opponent-rolled-dice" // 对手已掷骰
	MsgRerollRequested    MessageType = "reroll-requested"     // 对手请求重掷
	MsgRerollRequestSent  MessageType = "reroll-request-sent"  // 重掷请求已送达（回执）
	MsgRerollResponse     MessageType = "reroll-response"      // 重掷请求的回应

	// 错误
	MsgRoomError MessageType = "room-error" // 房间操作错误
	MsgMoveError MessageType = "move-error" // 走子错误
	MsgDiceError MessageType = "dice-error" // 骰子操作错误
)

// Color 棋方颜色
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Opposite 返回对方颜色
func (c Color) Opposite() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// GameMode 游戏模式
type GameMode string

const (
	ModeStandard  GameMode = "standard"
	ModeDiceChess GameMode = "dice-chess"
)

// GameResult 终局结果
type GameResult string

const (
	ResultCheckmate    GameResult = "checkmate"
	ResultDraw         GameResult = "draw"
	ResultStalemate    GameResult = "stalemate"
	ResultOpponentLeft GameResult = "opponent-left"
)

// --- 客户端请求 Payloads ---

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// MovePayload 走子请求
type MovePayload struct {
	RoomID      string   `json:"roomId"`
	Move        MoveInfo `json:"move"`
	NewPosition string   `json:"newPosition"` // 客户端计算出的新局面 FEN
}

// RollDicePayload 掷骰子请求
type RollDicePayload struct {
	RoomID string `json:"roomId"`
}

// RequestRerollPayload 请求重掷
type RequestRerollPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// RespondToRerollPayload 回应重掷请求
type RespondToRerollPayload struct {
	RoomID   string `json:"roomId"`
	Approved bool   `json:"approved"`
}

// GameOverPayload 客户端报告终局（由规则引擎判定后上报）
type GameOverPayload struct {
	RoomID string     `json:"roomId"`
	Result GameResult `json:"result"`
}

// --- 服务端响应 Payloads ---

// RoomJoinedPayload 加入房间成功响应
type RoomJoinedPayload struct {
	RoomID   string       `json:"roomId"`
	Color    Color        `json:"color"`
	Players  []PlayerInfo `json:"players"`
	GameMode GameMode     `json:"gameMode"`
}

// PlayerJoinedPayload 其他玩家加入通知
type PlayerJoinedPayload struct {
	Player PlayerInfo `json:"player"`
}

// PlayerLeftPayload 玩家离开通知
type PlayerLeftPayload struct {
	PlayerID  string       `json:"playerId"`
	Remaining []PlayerInfo `json:"remaining"`
}

// GameStartPayload 游戏开始通知
type GameStartPayload struct {
	FEN      string       `json:"fen"`
	Players  []PlayerInfo `json:"players"`
	GameMode GameMode     `json:"gameMode"`
}

// OpponentMovePayload 对手走子通知
type OpponentMovePayload struct {
	Move        MoveInfo `json:"move"`
	NewPosition string   `json:"newPosition"`
}

// GameEndedPayload 对局结束通知
type GameEndedPayload struct {
	Result GameResult `json:"result"`
}

// DiceResultPayload 掷骰结果（发给掷骰方）
type DiceResultPayload struct {
	DiceResults []string `json:"diceResults"`
}

// OpponentRolledDicePayload 对手掷骰通知（骰面对双方可见，便于布局规划）
type OpponentRolledDicePayload struct {
	Color       Color    `json:"color"`
	DiceResults []string `json:"diceResults"`
}

// RerollRequestedPayload 对手请求重掷通知
type RerollRequestedPayload struct {
	Color      Color  `json:"color"`
	Reason     string `json:"reason"`
	PlayerName string `json:"playerName"`
}

// RerollResponsePayload 重掷请求的回应（发给请求方）
type RerollResponsePayload struct {
	Approved      bool   `json:"approved"`
	ResponderName string `json:"responderName"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 通用数据结构 ---

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// MoveInfo 一步走子（代数格标注）
type MoveInfo struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"` // 升变目标，如 "q"
	SAN       string `json:"san,omitempty"`       // 可选的 SAN 标注，仅透传
}

// UCI 返回 UCI 格式的走子字符串，如 "e2e4"、"e7e8q"
func (m MoveInfo) UCI() string {
	return m.From + m.To + m.Promotion
}

// --- 错误码 ---
const (
	ErrCodeUnknown    = 1000
	ErrCodeInvalidMsg = 1001

	ErrCodeRoomNotFound = 2001
	ErrCodeRoomFull     = 2002
	ErrCodeNotInRoom    = 2003

	ErrCodeGameNotStart = 3001
	ErrCodeNotYourTurn  = 3002
	ErrCodeIllegalMove  = 3003
	ErrCodeGameEnded    = 3004

	ErrCodeModeMismatch    = 4001
	ErrCodeDiceNotRolled   = 4002
	ErrCodeDiceAlreadyCast = 4003
	ErrCodeIllegalPiece    = 4004
	ErrCodeNoActiveReroll  = 4005
	ErrCodeRerollPending   = 4006
	ErrCodeSelfRespond     = 4007
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:         "未知错误",
	ErrCodeInvalidMsg:      "无效的消息格式",
	ErrCodeRoomNotFound:    "房间不存在",
	ErrCodeRoomFull:        "房间已满",
	ErrCodeNotInRoom:       "您不在房间中",
	ErrCodeGameNotStart:    "游戏尚未开始",
	ErrCodeNotYourTurn:     "还没轮到您",
	ErrCodeIllegalMove:     "不合法的走子",
	ErrCodeGameEnded:       "游戏已结束",
	ErrCodeModeMismatch:    "当前模式没有骰子",
	ErrCodeDiceNotRolled:   "本回合还没有掷骰子",
	ErrCodeDiceAlreadyCast: "本回合已经掷过骰子",
	ErrCodeIllegalPiece:    "骰子不允许移动该棋子",
	ErrCodeNoActiveReroll:  "没有待处理的重掷请求",
	ErrCodeRerollPending:   "已有待处理的重掷请求",
	ErrCodeSelfRespond:     "不能回应自己的重掷请求",
}
