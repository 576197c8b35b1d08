package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/dice-chess/internal/apperrors"
	"github.com/palemoky/dice-chess/internal/game/dice"
	"github.com/palemoky/dice-chess/internal/network/protocol"
)

func TestRollDice_StandardModeRejected(t *testing.T) {
	rm := newTestManager()
	room, white, _ := joinPair(t, rm, protocol.ModeStandard)

	err := rm.RollDice(white, room.ID)
	assert.ErrorIs(t, err, apperrors.ErrModeMismatch)
}

func TestRollDice_BeforeGameStart(t *testing.T) {
	rm := newTestManager()
	room := rm.CreateRoom(protocol.ModeDiceChess)
	c := &MockClient{ID: "c1"}
	require.NoError(t, rm.JoinRoom(c, room.ID, "Alice"))

	err := rm.RollDice(c, room.ID)
	assert.ErrorIs(t, err, apperrors.ErrGameNotStart)
}

func TestRollDice_OutOfTurn(t *testing.T) {
	rm := newTestManager()
	room, _, black := joinPair(t, rm, protocol.ModeDiceChess)

	err := rm.RollDice(black, room.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)
	assert.Empty(t, room.DiceState[protocol.ColorBlack])
}

func TestRollDice_ResultsPushedToBothSides(t *testing.T) {
	rm := newTestManager()
	room, white, black := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))

	roll := room.DiceState[protocol.ColorWhite]
	require.Len(t, roll, 3)

	// 掷骰方收到 dice-result
	msg := white.lastOfType(protocol.MsgDiceResult)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.DiceResultPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, roll.Strings(), payload.DiceResults)

	// 对手收到同样的骰面
	opp := black.lastOfType(protocol.MsgOpponentRolledDice)
	require.NotNil(t, opp)
	op, err := protocol.ParsePayload[protocol.OpponentRolledDicePayload](opp)
	require.NoError(t, err)
	assert.Equal(t, protocol.ColorWhite, op.Color)
	assert.Equal(t, roll.Strings(), op.DiceResults)
}

func TestRollDice_TwicePerTurnRejected(t *testing.T) {
	rm := newTestManager()
	room, white, _ := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))
	first := room.DiceState[protocol.ColorWhite]

	err := rm.RollDice(white, room.ID)
	assert.ErrorIs(t, err, apperrors.ErrDiceAlreadyCast)
	assert.Equal(t, first, room.DiceState[protocol.ColorWhite])
}

func TestRequestReroll_BeforeRoll(t *testing.T) {
	rm := newTestManager()
	room, white, _ := joinPair(t, rm, protocol.ModeDiceChess)

	err := rm.RequestReroll(white, room.ID, "no moves")
	assert.ErrorIs(t, err, apperrors.ErrDiceNotRolled)
	assert.Nil(t, room.Pending)
}

func TestRequestReroll_OutOfTurn(t *testing.T) {
	rm := newTestManager()
	room, white, black := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))

	err := rm.RequestReroll(black, room.ID, "why not")
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)
}

func TestRequestReroll_NotifiesOpponent(t *testing.T) {
	rm := newTestManager()
	room, white, black := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))
	require.NoError(t, rm.RequestReroll(white, room.ID, "no legal moves"))

	require.NotNil(t, room.Pending)
	assert.Equal(t, protocol.ColorWhite, room.Pending.Color)

	// 对手收到请求详情
	msg := black.lastOfType(protocol.MsgRerollRequested)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.RerollRequestedPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ColorWhite, payload.Color)
	assert.Equal(t, "no legal moves", payload.Reason)
	assert.Equal(t, "Alice", payload.PlayerName)

	// 请求方收到已送达确认
	assert.NotNil(t, white.lastOfType(protocol.MsgRerollRequestSent))
}

func TestRequestReroll_OnlyOneOutstanding(t *testing.T) {
	rm := newTestManager()
	room, white, _ := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))
	require.NoError(t, rm.RequestReroll(white, room.ID, "first"))

	err := rm.RequestReroll(white, room.ID, "second")
	assert.ErrorIs(t, err, apperrors.ErrRerollPending)
	assert.Equal(t, "first", room.Pending.Reason)
}

func TestRespondToReroll_NoActiveRequest(t *testing.T) {
	rm := newTestManager()
	room, _, black := joinPair(t, rm, protocol.ModeDiceChess)

	err := rm.RespondToReroll(black, room.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveReroll)
}

func TestRespondToReroll_SelfRespondRejected(t *testing.T) {
	rm := newTestManager()
	room, white, _ := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))
	require.NoError(t, rm.RequestReroll(white, room.ID, "oops"))

	err := rm.RespondToReroll(white, room.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrSelfRespond)
	assert.NotNil(t, room.Pending)
}

func TestRespondToReroll_ApproveClearsDice(t *testing.T) {
	rm := newTestManager()
	room, white, black := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))
	require.NoError(t, rm.RequestReroll(white, room.ID, "stuck"))

	require.NoError(t, rm.RespondToReroll(black, room.ID, true))

	// 批准后骰面清空，请求方须重新掷骰
	_, ok := room.DiceState[protocol.ColorWhite]
	assert.False(t, ok)
	assert.Nil(t, room.Pending)

	msg := white.lastOfType(protocol.MsgRerollResponse)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.RerollResponsePayload](msg)
	require.NoError(t, err)
	assert.True(t, payload.Approved)
	assert.Equal(t, "Bob", payload.ResponderName)

	// 批准后可以再次掷骰
	require.NoError(t, rm.RollDice(white, room.ID))
	assert.Len(t, room.DiceState[protocol.ColorWhite], 3)
}

func TestRespondToReroll_DenyKeepsDice(t *testing.T) {
	rm := newTestManager()
	room, white, black := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))
	first := room.DiceState[protocol.ColorWhite]
	require.NoError(t, rm.RequestReroll(white, room.ID, "stuck"))

	require.NoError(t, rm.RespondToReroll(black, room.ID, false))

	// 拒绝后原骰面继续有效，不能重新掷
	assert.Equal(t, first, room.DiceState[protocol.ColorWhite])
	assert.Nil(t, room.Pending)

	msg := white.lastOfType(protocol.MsgRerollResponse)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.RerollResponsePayload](msg)
	require.NoError(t, err)
	assert.False(t, payload.Approved)

	err = rm.RollDice(white, room.ID)
	assert.ErrorIs(t, err, apperrors.ErrDiceAlreadyCast)
}

func TestRespondToReroll_RequestResolvedOnce(t *testing.T) {
	rm := newTestManager()
	room, white, black := joinPair(t, rm, protocol.ModeDiceChess)

	require.NoError(t, rm.RollDice(white, room.ID))
	require.NoError(t, rm.RequestReroll(white, room.ID, "stuck"))
	require.NoError(t, rm.RespondToReroll(black, room.ID, false))

	// 重复回应无效
	err := rm.RespondToReroll(black, room.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveReroll)
	assert.NotEmpty(t, room.DiceState[protocol.ColorWhite])
}

func TestNewRollInvalidatesStaleRequest(t *testing.T) {
	rm := newTestManager()
	room, white, _ := joinPair(t, rm, protocol.ModeDiceChess)

	// 批准重掷后残留的请求指针必须被新一轮掷骰作废
	room.DiceState[protocol.ColorWhite] = dice.Roll{}
	room.Pending = &RerollRequest{Color: protocol.ColorWhite, Reason: "stale"}

	require.NoError(t, rm.RollDice(white, room.ID))
	assert.Nil(t, room.Pending)
}
