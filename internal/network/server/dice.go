package server

import (
	"log"

	"github.com/palemoky/dice-chess/internal/apperrors"
	"github.com/palemoky/dice-chess/internal/game/dice"
	"github.com/palemoky/dice-chess/internal/network/protocol"
)

// 骰子协商状态机（以当前回合方为主体）：
// Idle --roll--> Rolled --requestReroll--> RerollRequested
// RerollRequested --deny--> Rolled，--approve--> Idle（需重新掷骰）
// 被接受的走子使状态机回到 Idle，供对方的下一回合使用。
// 状态由 DiceState[回合方] 是否为空与 Pending 是否存在共同表达。

// checkDicePreconditions 骰子操作共用的前置检查。
// 调用方需持有 room.mu。
func (r *Room) checkDicePreconditions(client ClientConn) (*RoomPlayer, error) {
	if r.Mode != protocol.ModeDiceChess {
		return nil, apperrors.ErrModeMismatch
	}
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

	return player, nil
}

// RollDice 掷骰子。仅在轮到该方且本回合尚未掷骰（Idle 态）时有效。
// 骰面由服务端权威生成并推送给双方。
func (rm *RoomManager) RollDice(client ClientConn, roomID string) error {
	room := rm.GetRoom(roomID)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player, err := room.checkDicePreconditions(client)
	if err != nil {
		return err
	}
	if player.Color != room.Turn {
		return apperrors.ErrNotYourTurn
	}
	if len(room.DiceState[player.Color]) > 0 {
		return apperrors.ErrDiceAlreadyCast
	}

	roll := dice.New(rm.cfg.DiceCount)
	room.DiceState[player.Color] = roll
	// 新一轮掷骰作废任何遗留的重掷请求
	room.Pending = nil

	client.SendMessage(protocol.MustNewMessage(protocol.MsgDiceResult, protocol.DiceResultPayload{
		DiceResults: roll.Strings(),
	}))
	// 骰面对对手可见，便于其规划防守
	room.broadcastExcept(client.GetID(), protocol.MustNewMessage(protocol.MsgOpponentRolledDice, protocol.OpponentRolledDicePayload{
		Color:       player.Color,
		DiceResults: roll.Strings(),
	}))

	log.Printf("🎲 房间 %s: %s 掷出 [%s]", room.ID, client.GetName(), roll)

	return nil
}

// RequestReroll 请求重掷。仅在 Rolled 态、轮到该方时有效。
// 重掷需对手批准：骰面是否有棋可走由客户端判断，协商是防止单方滥用的人工否决通道。
func (rm *RoomManager) RequestReroll(client ClientConn, roomID, reason string) error {
	room := rm.GetRoom(roomID)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player, err := room.checkDicePreconditions(client)
	if err != nil {
		return err
	}
	if player.Color != room.Turn {
		return apperrors.ErrNotYourTurn
	}
	if len(room.DiceState[player.Color]) == 0 {
		return apperrors.ErrDiceNotRolled
	}
	if room.Pending != nil {
		return apperrors.ErrRerollPending
	}

	room.Pending = &RerollRequest{Color: player.Color, Reason: reason}

	room.broadcastExcept(client.GetID(), protocol.MustNewMessage(protocol.MsgRerollRequested, protocol.RerollRequestedPayload{
		Color:      player.Color,
		Reason:     reason,
		PlayerName: client.GetName(),
	}))
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRerollRequestSent, nil))

	log.Printf("🎲 房间 %s: %s 请求重掷 (理由: %q)", room.ID, client.GetName(), reason)

	return nil
}

// RespondToReroll 回应重掷请求，只能由对手（非请求方）回应一次。
// 批准则清空请求方骰面，迫使其重新掷骰；拒绝则原骰面继续有效。
func (rm *RoomManager) RespondToReroll(client ClientConn, roomID string, approved bool) error {
	room := rm.GetRoom(roomID)
	if room == nil {
		return apperrors.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player, err := room.checkDicePreconditions(client)
	if err != nil {
		return err
	}
	if room.Pending == nil {
		return apperrors.ErrNoActiveReroll
	}
	if player.Color == room.Pending.Color {
		return apperrors.ErrSelfRespond
	}

	requestColor := room.Pending.Color
	// 一个请求只被解决一次，之后的回应会得到 ErrNoActiveReroll
	room.Pending = nil

	if approved {
		delete(room.DiceState, requestColor)
	}

	if requester := room.playerByColor(requestColor); requester != nil {
		requester.Client.SendMessage(protocol.MustNewMessage(protocol.MsgRerollResponse, protocol.RerollResponsePayload{
			Approved:      approved,
			ResponderName: client.GetName(),
		}))
	}

	log.Printf("🎲 房间 %s: %s %s了重掷请求", room.ID, client.GetName(), approveWord(approved))

	return nil
}

// playerByColor 按颜色查找玩家。调用方需持有 room.mu。
func (r *Room) playerByColor(color protocol.Color) *RoomPlayer {
	for _, p := range r.Players {
		if p.Color == color {
			return p
		}
	}
	return nil
}

// approveWord 中文动词，仅用于日志
func approveWord(approved bool) string {
	if approved {
		return "批准"
	}
	return "拒绝"
}
