package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/dice-chess/internal/game/dice"
	"github.com/palemoky/dice-chess/internal/network/protocol"
)

func TestValidate_LegalOpeningMove(t *testing.T) {
	result, err := Validate(StartingFEN, protocol.MoveInfo{From: "e2", To: "e4"})

	require.NoError(t, err)
	assert.Equal(t, dice.Pawn, result.Piece)
	assert.Empty(t, result.Result)
	assert.Contains(t, result.NewFEN, " b ") // black to move
}

func TestValidate_EmptyFENMeansStartingPosition(t *testing.T) {
	result, err := Validate("", protocol.MoveInfo{From: "g1", To: "f3"})

	require.NoError(t, err)
	assert.Equal(t, dice.Knight, result.Piece)
}

func TestValidate_IllegalMove(t *testing.T) {
	// A pawn cannot jump three squares
	result, err := Validate(StartingFEN, protocol.MoveInfo{From: "e2", To: "e5"})

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestValidate_BadFEN(t *testing.T) {
	result, err := Validate("not a fen", protocol.MoveInfo{From: "e2", To: "e4"})

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestValidate_KingMoveIsTyped(t *testing.T) {
	// After 1.e4 e5 the white king can step to e2
	fen := "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"
	result, err := Validate(fen, protocol.MoveInfo{From: "e1", To: "e2"})

	require.NoError(t, err)
	assert.Equal(t, dice.King, result.Piece)
}

func TestValidate_FoolsMateIsCheckmate(t *testing.T) {
	// After 1.f3 e5 2.g4 the queen mates on h4
	fen := "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq g3 0 2"
	result, err := Validate(fen, protocol.MoveInfo{From: "d8", To: "h4"})

	require.NoError(t, err)
	assert.Equal(t, dice.Queen, result.Piece)
	assert.Equal(t, protocol.ResultCheckmate, result.Result)
}

func TestValidate_StalemateIsDetected(t *testing.T) {
	// Qc7 leaves the black king with no move but no check
	fen := "k7/7Q/2K5/8/8/8/8/8 w - - 0 1"
	result, err := Validate(fen, protocol.MoveInfo{From: "h7", To: "c7"})

	require.NoError(t, err)
	assert.Equal(t, protocol.ResultStalemate, result.Result)
}

func TestValidate_Promotion(t *testing.T) {
	fen := "8/P6k/8/8/8/8/8/K7 w - - 0 1"
	result, err := Validate(fen, protocol.MoveInfo{From: "a7", To: "a8", Promotion: "q"})

	require.NoError(t, err)
	assert.Equal(t, dice.Pawn, result.Piece)
}
