package apperrors

import (
	"fmt"
	"strings"

	"github.com/palemoky/dice-chess/internal/network/protocol"
)

// GameError 游戏错误（房间、走子与骰子协商共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound    = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull        = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom       = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrGameNotStart    = &GameError{Code: protocol.ErrCodeGameNotStart, Message: "游戏尚未开始"}
	ErrGameEnded       = &GameError{Code: protocol.ErrCodeGameEnded, Message: "游戏已结束"}
	ErrNotYourTurn     = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrIllegalMove     = &GameError{Code: protocol.ErrCodeIllegalMove, Message: "不合法的走子"}
	ErrModeMismatch    = &GameError{Code: protocol.ErrCodeModeMismatch, Message: "当前模式没有骰子"}
	ErrDiceNotRolled   = &GameError{Code: protocol.ErrCodeDiceNotRolled, Message: "本回合还没有掷骰子"}
	ErrDiceAlreadyCast = &GameError{Code: protocol.ErrCodeDiceAlreadyCast, Message: "本回合已经掷过骰子"}
	ErrNoActiveReroll  = &GameError{Code: protocol.ErrCodeNoActiveReroll, Message: "没有待处理的重掷请求"}
	ErrRerollPending   = &GameError{Code: protocol.ErrCodeRerollPending, Message: "已有待处理的重掷请求"}
	ErrSelfRespond     = &GameError{Code: protocol.ErrCodeSelfRespond, Message: "不能回应自己的重掷请求"}
)

// IllegalPiece 构造"骰子不允许移动该棋子"错误，附带本次骰面允许的棋子
func IllegalPiece(piece string, allowed []string) *GameError {
	return &GameError{
		Code:    protocol.ErrCodeIllegalPiece,
		Message: fmt.Sprintf("骰子不允许移动 %s，可用棋子: %s", piece, strings.Join(allowed, ", ")),
	}
}
