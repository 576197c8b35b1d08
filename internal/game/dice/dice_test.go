package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_SizeAndDomain(t *testing.T) {
	valid := map[PieceType]bool{
		Pawn: true, Knight: true, Bishop: true, Rook: true, Queen: true,
	}

	// Rolls are random; check the contract over many draws
	for i := 0; i < 100; i++ {
		roll := New(3)
		assert.Len(t, roll, 3)
		for _, face := range roll {
			assert.True(t, valid[face], "unexpected face %q", face)
		}
	}
}

func TestNew_NeverContainsKing(t *testing.T) {
	for i := 0; i < 200; i++ {
		roll := New(3)
		assert.False(t, roll.Contains(PieceType("king")))
	}
}

func TestRoll_Contains(t *testing.T) {
	roll := Roll{Pawn, Pawn, Queen}

	assert.True(t, roll.Contains(Pawn))
	assert.True(t, roll.Contains(Queen))
	assert.False(t, roll.Contains(Knight))
}

func TestRoll_Strings(t *testing.T) {
	roll := Roll{Knight, Rook, Pawn}
	assert.Equal(t, []string{"knight", "rook", "pawn"}, roll.Strings())
	assert.Equal(t, "knight, rook, pawn", roll.String())
}
