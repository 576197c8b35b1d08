package server

import (
	"context"
	"log"

	"github.com/palemoky/dice-chess/internal/apperrors"
	"github.com/palemoky/dice-chess/internal/game/rule"
	"github.com/palemoky/dice-chess/internal/network/protocol"
)

// SubmitMove 处理一步走子。前置条件按顺序检查，每一项都是独立的失败方式：
// 房间存在且开局未结束 → 连接已入座 → 轮到该方 → （骰子模式）骰面允许该棋子。
// 合法性复核交给规则引擎，期间不持有房间锁，提交前重新校验前置条件。
func (rm *RoomManager) SubmitMove(client ClientConn, roomID string, move protocol.MoveInfo, newPosition string) error {
	room := rm.GetRoom(roomID)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()

	player, err := room.checkMovePreconditions(client)
	if err != nil {
		room.mu.Unlock()
		return err
	}

	position := room.Position
	color := player.Color
	room.mu.Unlock()

	// 规则引擎复核不在锁内进行（外部协作方，不能让其他事件排队等它）
	result, err := rule.Validate(position, move)
	if err != nil {
		log.Printf("♟️ 房间 %s 非法走子 %s: %v", roomID, move.UCI(), err)
		return apperrors.ErrIllegalMove
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	// 锁释放期间状态可能已变化（对手断线、重复提交），重新校验
	if _, err := room.checkMovePreconditions(client); err != nil {
		return err
	}
	if room.Position != position {
		return apperrors.ErrNotYourTurn
	}

	// 骰子约束：被移动的棋子类型必须出现在本回合的骰面中
	if room.Mode == protocol.ModeDiceChess {
		roll := room.DiceState[color]
		if !roll.Contains(result.Piece) {
			return apperrors.IllegalPiece(string(result.Piece), roll.Strings())
		}
	}

	// 提交：采用客户端局面，清空骰面与未决重掷，交换回合
	room.Position = newPosition
	delete(room.DiceState, color)
	room.Pending = nil
	room.Turn = color.Opposite()

	room.broadcastExcept(client.GetID(), protocol.MustNewMessage(protocol.MsgOpponentMove, protocol.OpponentMovePayload{
		Move:        move,
		NewPosition: newPosition,
	}))

	log.Printf("♟️ 房间 %s: %s 走 %s，轮到%s方", room.ID, client.GetName(), move.UCI(), colorName(room.Turn))

	rm.saveAsync(room)

	return nil
}

// checkMovePreconditions 走子的前置检查，提交前后各执行一次。
// 调用方需持有 room.mu。
func (r *Room) checkMovePreconditions(client ClientConn) (*RoomPlayer, error) {
	if !r.Started {
		return nil, apperrors.ErrGameNotStart
	}
	if r.Ended != "" {
		return nil, apperrors.ErrGameEnded
	}

	player := r.findPlayer(client.GetID())
	if player == nil {
		return nil, apperrors.ErrNotInRoom
	}
	if player.Color != r.Turn {
		return nil, apperrors.ErrNotYourTurn
	}

	// 骰子模式下走子前必须先掷骰
	if r.Mode == protocol.ModeDiceChess && len(r.DiceState[player.Color]) == 0 {
		return nil, apperrors.ErrDiceNotRolled
	}

	return player, nil
}

// RecordResult 记录终局结果并广播给双方。
// 终局判定由客户端咨询规则引擎后上报；重复上报是幂等的空操作。
func (rm *RoomManager) RecordResult(client ClientConn, roomID string, result protocol.GameResult) error {
	room := rm.GetRoom(roomID)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.findPlayer(client.GetID()) == nil {
		return apperrors.ErrNotInRoom
	}

	// 已终局则忽略（两位客户端会各自上报一次）
	if room.Ended != "" {
		return nil
	}

	room.Ended = result
	room.Pending = nil

	room.broadcast(protocol.MustNewMessage(protocol.MsgGameEnded, protocol.GameEndedPayload{
		Result: result,
	}))

	log.Printf("🏁 房间 %s 对局结束: %s", room.ID, result)

	if rm.store != nil {
		go func() { _ = rm.store.RecordResult(context.Background(), string(result)) }()
	}
	rm.saveAsync(room)

	return nil
}
