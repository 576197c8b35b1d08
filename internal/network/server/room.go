package server

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/dice-chess/internal/apperrors"
	"github.com/palemoky/dice-chess/internal/config"
	"github.com/palemoky/dice-chess/internal/game/dice"
	"github.com/palemoky/dice-chess/internal/game/rule"
	"github.com/palemoky/dice-chess/internal/network/protocol"
	"github.com/palemoky/dice-chess/internal/network/server/storage"
)

const (
	// 房间号长度（uuid 前缀，便于口头分享）
	roomIDLength = 8

	// 房间清理检查间隔
	cleanupInterval = time.Minute
)

// ClientConn 房间感知的连接抽象（便于测试替换）
type ClientConn interface {
	GetID() string
	GetName() string
	SetName(name string)
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message)
}

// RoomPlayer 房间中的玩家
type RoomPlayer struct {
	Client ClientConn
	Color  protocol.Color // 入座后不再变更
}

// RerollRequest 待处理的重掷请求，每个房间同一时刻至多一个
type RerollRequest struct {
	Color  protocol.Color // 请求方颜色，必须是当前回合方
	Reason string
}

// Room 对局房间
type Room struct {
	ID        string
	Mode      protocol.GameMode
	Players   []*RoomPlayer // 按加入顺序，先白后黑，至多 2 人
	Position  string        // 当前局面 FEN，仅由已接受的走子更新
	Turn      protocol.Color
	DiceState map[protocol.Color]dice.Roll // 仅骰子模式使用
	Pending   *RerollRequest
	Started   bool
	Ended     protocol.GameResult // 空串表示对局未结束
	CreatedAt time.Time

	manager *RoomManager
	mu      sync.Mutex // 串行化本房间的全部读写
}

// roomStore 房间镜像与统计的存储接口
type roomStore interface {
	SaveRoom(ctx context.Context, data *storage.RoomData) error
	DeleteRoom(ctx context.Context, roomID string) error
	IncrGamesStarted(ctx context.Context) error
	RecordResult(ctx context.Context, result string) error
}

// RoomManager 房间管理器
type RoomManager struct {
	cfg   *config.GameConfig
	store roomStore
	rooms map[string]*Room
	mu    sync.RWMutex
}

// NewRoomManager 创建房间管理器
func NewRoomManager(cfg *config.GameConfig, store roomStore) *RoomManager {
	rm := &RoomManager{
		cfg:   cfg,
		store: store,
		rooms: make(map[string]*Room),
	}

	// 启动房间清理协程
	go rm.cleanupLoop()

	return rm
}

// CreateRoom 创建空房间（由 HTTP 创建接口调用）
func (rm *RoomManager) CreateRoom(mode protocol.GameMode) *Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room := &Room{
		ID:        rm.generateRoomID(),
		Mode:      mode,
		Players:   make([]*RoomPlayer, 0, 2),
		DiceState: make(map[protocol.Color]dice.Roll),
		CreatedAt: time.Now(),
	}
	room.manager = rm
	rm.rooms[room.ID] = room

	rm.saveAsync(room)

	log.Printf("🏠 房间 %s 已创建 (模式: %s)", room.ID, mode)

	return room
}

// generateRoomID 生成唯一房间号，碰撞时重新生成
func (rm *RoomManager) generateRoomID() string {
	for {
		id := strings.ReplaceAll(uuid.New().String(), "-", "")[:roomIDLength]
		if _, exists := rm.rooms[id]; !exists {
			return id
		}
	}
}

// GetRoom 获取房间，不存在时返回 nil
func (rm *RoomManager) GetRoom(id string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[id]
}

// RoomExists 检查房间是否存在
func (rm *RoomManager) RoomExists(id string) bool {
	return rm.GetRoom(id) != nil
}

// IsRoomFull 检查房间是否已满
func (rm *RoomManager) IsRoomFull(id string) bool {
	room := rm.GetRoom(id)
	if room == nil {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	return len(room.Players) >= 2
}

// removeRoom 从注册表删除房间
func (rm *RoomManager) removeRoom(id string) {
	rm.mu.Lock()
	delete(rm.rooms, id)
	rm.mu.Unlock()

	if rm.store != nil {
		go func() { _ = rm.store.DeleteRoom(context.Background(), id) }()
	}
}

// JoinRoom 加入房间。同一连接重复加入视为幂等的重入：
// 仅更新昵称并重发确认，不产生新的座位。
func (rm *RoomManager) JoinRoom(client ClientConn, roomID, name string) error {
	room := rm.GetRoom(roomID)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	// 重入：连接已在房间中
	if player := room.findPlayer(client.GetID()); player != nil {
		if name != "" {
			client.SetName(name)
		}
		log.Printf("🔄 玩家 %s (%s) 重复加入房间 %s", client.GetName(), client.GetID(), roomID)
		client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
			RoomID:   room.ID,
			Color:    player.Color,
			Players:  room.playerInfos(),
			GameMode: room.Mode,
		}))
		return nil
	}

	if len(room.Players) >= 2 {
		return apperrors.ErrRoomFull
	}

	if name != "" {
		client.SetName(name)
	}

	// 先到执白，后到执黑
	color := protocol.ColorWhite
	if len(room.Players) == 1 {
		color = protocol.ColorBlack
	}

	player := &RoomPlayer{Client: client, Color: color}
	room.Players = append(room.Players, player)
	client.SetRoom(room.ID)

	log.Printf("👤 玩家 %s 加入房间 %s，执%s", client.GetName(), roomID, colorName(color))

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomID:   room.ID,
		Color:    color,
		Players:  room.playerInfos(),
		GameMode: room.Mode,
	}))

	if len(room.Players) == 2 {
		// 第二位玩家到齐，开局
		room.Started = true
		room.Turn = protocol.ColorWhite
		room.Position = rule.StartingFEN

		room.broadcast(protocol.MustNewMessage(protocol.MsgGameStart, protocol.GameStartPayload{
			FEN:      room.Position,
			Players:  room.playerInfos(),
			GameMode: room.Mode,
		}))

		log.Printf("⚔️ 房间 %s 对局开始", room.ID)

		if rm.store != nil {
			go func() { _ = rm.store.IncrGamesStarted(context.Background()) }()
		}
	} else {
		// 通知房间内已有玩家（首位加入时房间为空，实际无接收方）
		room.broadcastExcept(client.GetID(), protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
			Player: protocol.PlayerInfo{ID: client.GetID(), Name: client.GetName(), Color: color},
		}))
	}

	rm.saveAsync(room)

	return nil
}

// LeaveAll 将连接从其所在的所有房间移除。
// 对局进行中的房间以 OpponentLeft 终局，空房间立即删除。
func (rm *RoomManager) LeaveAll(client ClientConn) {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	for _, room := range rooms {
		rm.leaveRoom(room, client)
	}
}

// leaveRoom 将连接从单个房间移除
func (rm *RoomManager) leaveRoom(room *Room, client ClientConn) {
	room.mu.Lock()

	idx := -1
	for i, p := range room.Players {
		if p.Client.GetID() == client.GetID() {
			idx = i
			break
		}
	}
	if idx == -1 {
		room.mu.Unlock()
		return
	}

	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	client.SetRoom("")

	log.Printf("👋 玩家 %s 离开房间 %s", client.GetName(), room.ID)

	room.broadcast(protocol.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		PlayerID:  client.GetID(),
		Remaining: room.playerInfos(),
	}))

	// 对局进行中掉线即终局；断线同时作废未决的重掷协商
	if room.Started && room.Ended == "" && len(room.Players) < 2 {
		room.Ended = protocol.ResultOpponentLeft
		room.Pending = nil
		room.broadcast(protocol.MustNewMessage(protocol.MsgGameEnded, protocol.GameEndedPayload{
			Result: protocol.ResultOpponentLeft,
		}))

		if rm.store != nil {
			go func() { _ = rm.store.RecordResult(context.Background(), string(protocol.ResultOpponentLeft)) }()
		}
	}

	empty := len(room.Players) == 0
	room.mu.Unlock()

	if empty {
		rm.removeRoom(room.ID)
		log.Printf("🧹 房间 %s 已清空并删除", room.ID)
	} else {
		rm.saveAsync(room)
	}
}

// cleanupLoop 定期清理等待超时的未开局房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		timeout := rm.cfg.RoomWaitTimeoutDuration()
		now := time.Now()

		rm.mu.RLock()
		expired := make([]*Room, 0)
		for _, room := range rm.rooms {
			room.mu.Lock()
			if !room.Started && now.Sub(room.CreatedAt) > timeout {
				expired = append(expired, room)
			}
			room.mu.Unlock()
		}
		rm.mu.RUnlock()

		for _, room := range expired {
			room.mu.Lock()
			for _, p := range room.Players {
				p.Client.SendMessage(protocol.NewErrorMessageWithText(
					protocol.MsgRoomError, protocol.ErrCodeRoomNotFound, "房间等待超时，已关闭"))
				p.Client.SetRoom("")
			}
			room.Players = room.Players[:0]
			room.mu.Unlock()

			rm.removeRoom(room.ID)
			log.Printf("⏰ 房间 %s 等待超时，已清理", room.ID)
		}
	}
}

// saveAsync 异步写入 Redis 镜像（非权威数据，失败不影响对局）
func (rm *RoomManager) saveAsync(room *Room) {
	if rm.store == nil {
		return
	}
	// 快照在协程内构建，等待房间锁释放后再读取
	go func() { _ = rm.store.SaveRoom(context.Background(), room.snapshot()) }()
}

// --- Room 方法（调用方需持有 room.mu）---

// findPlayer 按连接 ID 查找玩家
func (r *Room) findPlayer(clientID string) *RoomPlayer {
	for _, p := range r.Players {
		if p.Client.GetID() == clientID {
			return p
		}
	}
	return nil
}

// playerInfos 构建玩家信息列表（按加入顺序）
func (r *Room) playerInfos() []protocol.PlayerInfo {
	infos := make([]protocol.PlayerInfo, 0, len(r.Players))
	for _, p := range r.Players {
		infos = append(infos, protocol.PlayerInfo{
			ID:    p.Client.GetID(),
			Name:  p.Client.GetName(),
			Color: p.Color,
		})
	}
	return infos
}

// broadcast 广播消息给房间内所有玩家
func (r *Room) broadcast(msg *protocol.Message) {
	for _, p := range r.Players {
		p.Client.SendMessage(msg)
	}
}

// broadcastExcept 广播消息给除指定玩家外的所有玩家
func (r *Room) broadcastExcept(excludeID string, msg *protocol.Message) {
	for _, p := range r.Players {
		if p.Client.GetID() != excludeID {
			p.Client.SendMessage(msg)
		}
	}
}

// snapshot 构建用于 Redis 镜像的序列化快照
func (r *Room) snapshot() *storage.RoomData {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := &storage.RoomData{
		ID:        r.ID,
		Mode:      string(r.Mode),
		Position:  r.Position,
		Turn:      string(r.Turn),
		Started:   r.Started,
		Ended:     string(r.Ended),
		CreatedAt: r.CreatedAt.Unix(),
	}
	for _, p := range r.Players {
		data.Players = append(data.Players, storage.PlayerData{
			ID:    p.Client.GetID(),
			Name:  p.Client.GetName(),
			Color: string(p.Color),
		})
	}
	return data
}

// colorName 中文颜色名，仅用于日志
func colorName(c protocol.Color) string {
	if c == protocol.ColorWhite {
		return "白"
	}
	return "黑"
}
