package level

import (
	"fmt"
	"math"
)

// TilePos is an immutable grid coordinate.
type TilePos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Pos is shorthand for TilePos{X: x, Y: y}.
func Pos(x, y int) TilePos {
	return TilePos{X: x, Y: y}
}

// Neighbors returns the four orthogonal neighbours: west, east, north, south.
func (p TilePos) Neighbors() [4]TilePos {
	return [4]TilePos{
		{p.X - 1, p.Y},
		{p.X + 1, p.Y},
		{p.X, p.Y - 1},
		{p.X, p.Y + 1},
	}
}

// IsAdjacentTo reports whether o is one orthogonal step away.
func (p TilePos) IsAdjacentTo(o TilePos) bool {
	return abs(p.X-o.X)+abs(p.Y-o.Y) == 1
}

// DistanceTo returns the truncated euclidean distance to o.
func (p TilePos) DistanceTo(o TilePos) uint64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	return uint64(math.Sqrt(dx*dx + dy*dy))
}

// Pack encodes p into 64 bits, X in the low word and Y in the high word.
func (p TilePos) Pack() uint64 {
	return uint64(uint32(int32(p.X))) | uint64(uint32(int32(p.Y)))<<32
}

// Unpack reverses Pack.
func Unpack(v uint64) TilePos {
	return TilePos{X: int(int32(uint32(v))), Y: int(int32(uint32(v >> 32)))}
}

func (p TilePos) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
