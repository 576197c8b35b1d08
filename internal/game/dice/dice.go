package dice

import (
	"math/rand"
	"strings"
)

// PieceType 骰面棋子类型
type PieceType string

const (
	Pawn   PieceType = "pawn"
	Knight PieceType = "knight"
	Bishop PieceType = "bishop"
	Rook   PieceType = "rook"
	Queen  PieceType = "queen"
	King   PieceType = "king"
)

// faces 全部骰面。王不在骰面上，掷出的骰子才总有棋可走或可协商重掷
var faces = []PieceType{Pawn, Knight, Bishop, Rook, Queen}

// Roll 一次掷骰的结果，有序且允许重复
type Roll []PieceType

// New 独立均匀地掷出 n 枚骰子
func New(n int) Roll {
	roll := make(Roll, n)
	for i := range roll {
		roll[i] = faces[rand.Intn(len(faces))]
	}
	return roll
}

// Contains 检查骰面中是否包含指定棋子类型
func (r Roll) Contains(p PieceType) bool {
	for _, face := range r {
		if face == p {
			return true
		}
	}
	return false
}

// Strings 转换为字符串切片（用于协议层）
func (r Roll) Strings() []string {
	out := make([]string, len(r))
	for i, face := range r {
		out[i] = string(face)
	}
	return out
}

// String 便于日志输出，如 "pawn, knight, queen"
func (r Roll) String() string {
	return strings.Join(r.Strings(), ", ")
}
