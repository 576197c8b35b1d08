// Package rule 封装外部规则引擎（corentings/chess），负责局面合法性
// 复核与终局判定。房间协调器只透传 FEN，不理解棋盘本身。
package rule

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"

	"github.com/palemoky/dice-chess/internal/game/dice"
	"github.com/palemoky/dice-chess/internal/network/protocol"
)

// StartingFEN 标准初始局面
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// MoveResult 一步合法走子的复核结果
type MoveResult struct {
	Piece  dice.PieceType      // 被移动的棋子类型
	NewFEN string              // 引擎计算出的新局面
	Result protocol.GameResult // 终局结果，对局未结束时为空
}

// Validate 在 fen 局面上复核一步走子。
// 走子不合法或 FEN 无法解析时返回错误。
func Validate(fen string, move protocol.MoveInfo) (*MoveResult, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return nil, err
	}

	pos := game.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, move.UCI())
	if err != nil {
		return nil, fmt.Errorf("解析走子 %q 失败: %w", move.UCI(), err)
	}

	piece := pos.Board().Piece(mv.S1())
	if err := game.Move(mv, nil); err != nil {
		return nil, fmt.Errorf("走子 %q 不合法: %w", move.UCI(), err)
	}

	return &MoveResult{
		Piece:  pieceType(piece.Type()),
		NewFEN: game.FEN(),
		Result: resultOf(game),
	}, nil
}

// gameFromFEN 从 FEN 构建对局，空串视为初始局面
func gameFromFEN(fen string) (*nchess.Game, error) {
	if fen == "" || fen == StartingFEN {
		return nchess.NewGame(), nil
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("解析 FEN %q 失败: %w", fen, err)
	}
	return nchess.NewGame(option), nil
}

// pieceType 引擎棋子类型 → 骰面类型
func pieceType(pt nchess.PieceType) dice.PieceType {
	switch pt {
	case nchess.Pawn:
		return dice.Pawn
	case nchess.Knight:
		return dice.Knight
	case nchess.Bishop:
		return dice.Bishop
	case nchess.Rook:
		return dice.Rook
	case nchess.Queen:
		return dice.Queen
	default:
		return dice.King
	}
}

// resultOf 终局判定：将杀、逼和或其他和棋
func resultOf(game *nchess.Game) protocol.GameResult {
	switch game.Outcome() {
	case nchess.WhiteWon, nchess.BlackWon:
		return protocol.ResultCheckmate
	case nchess.Draw:
		if game.Method() == nchess.Stalemate {
			return protocol.ResultStalemate
		}
		return protocol.ResultDraw
	default:
		return ""
	}
}
