package server

import (
	"errors"
	"log"

	"github.com/palemoky/dice-chess/internal/apperrors"
	"github.com/palemoky/dice-chess/internal/network/protocol"
)

// Handler 消息处理器：把入站事件逐一映射到房间操作，
// 并把操作错误回发给产生它的连接（错误不改变任何状态）。
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息
func (h *Handler) Handle(client *Client, msg *protocol.Message) {
	switch msg.Type {
	// 房间操作
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)

	// 对局操作
	case protocol.MsgMove:
		h.handleMove(client, msg)
	case protocol.MsgGameOver:
		h.handleGameOver(client, msg)

	// 骰子协商
	case protocol.MsgRollDice:
		h.handleRollDice(client, msg)
	case protocol.MsgRequestReroll:
		h.handleRequestReroll(client, msg)
	case protocol.MsgRespondToReroll:
		h.handleRespondToReroll(client, msg)

	default:
		// 边界处拒绝未知事件
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgRoomError, protocol.ErrCodeInvalidMsg))
	}
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgRoomError, protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.server.roomManager.JoinRoom(client, payload.RoomID, payload.PlayerName); err != nil {
		h.sendError(client, protocol.MsgRoomError, err)
	}
}

// handleMove 处理走子
func (h *Handler) handleMove(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.MovePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgMoveError, protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.server.roomManager.SubmitMove(client, payload.RoomID, payload.Move, payload.NewPosition); err != nil {
		h.sendError(client, protocol.MsgMoveError, err)
	}
}

// handleGameOver 处理客户端上报的终局
func (h *Handler) handleGameOver(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.GameOverPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgMoveError, protocol.ErrCodeInvalidMsg))
		return
	}

	// 只接受规则引擎能产出的终局
	switch payload.Result {
	case protocol.ResultCheckmate, protocol.ResultDraw, protocol.ResultStalemate:
	default:
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgMoveError, protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.server.roomManager.RecordResult(client, payload.RoomID, payload.Result); err != nil {
		h.sendError(client, protocol.MsgMoveError, err)
	}
}

// handleRollDice 处理掷骰子
func (h *Handler) handleRollDice(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RollDicePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgDiceError, protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.server.roomManager.RollDice(client, payload.RoomID); err != nil {
		h.sendError(client, protocol.MsgDiceError, err)
	}
}

// handleRequestReroll 处理重掷请求
func (h *Handler) handleRequestReroll(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RequestRerollPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgDiceError, protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.server.roomManager.RequestReroll(client, payload.RoomID, payload.Reason); err != nil {
		h.sendError(client, protocol.MsgDiceError, err)
	}
}

// handleRespondToReroll 处理重掷请求的回应
func (h *Handler) handleRespondToReroll(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RespondToRerollPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.MsgDiceError, protocol.ErrCodeInvalidMsg))
		return
	}

	if err := h.server.roomManager.RespondToReroll(client, payload.RoomID, payload.Approved); err != nil {
		h.sendError(client, protocol.MsgDiceError, err)
	}
}

// sendError 把操作错误映射为指定通道的错误事件
func (h *Handler) sendError(client *Client, msgType protocol.MessageType, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessageWithText(msgType, gameErr.Code, gameErr.Message))
		return
	}
	client.SendMessage(protocol.NewErrorMessage(msgType, protocol.ErrCodeUnknown))
}
