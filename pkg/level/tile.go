package level

import (
	"fmt"

	"github.com/cavework/cavework/pkg/ident"
)

// Tile is the kind of a grid cell.
type Tile uint8

const (
	TileBedrock Tile = iota
	TileFloor
	TileRubble
	TileDirtWall
	TileRockWall
	TileStoreRoom
)

type tileInfo struct {
	name string
	// cost of stepping onto the tile; zero means impassable
	cost       uint64
	durability int
	drops      int
}

var tiles = [...]tileInfo{
	TileBedrock:   {name: "bedrock"},
	TileFloor:     {name: "floor", cost: 10},
	TileRubble:    {name: "rubble", cost: 20},
	TileDirtWall:  {name: "dirt_wall", durability: 3, drops: 1},
	TileRockWall:  {name: "rock_wall"},
	TileStoreRoom: {name: "store_room", cost: 10},
}

func (t Tile) info() tileInfo {
	if int(t) < len(tiles) {
		return tiles[t]
	}
	return tiles[TileBedrock]
}

// Passable reports whether actors can walk on the tile.
func (t Tile) Passable() bool { return t.info().cost > 0 }

// PathingCost is the cost of entering the tile. Zero for impassable tiles.
func (t Tile) PathingCost() uint64 { return t.info().cost }

// Mineable reports whether Dig has any effect on the tile.
func (t Tile) Mineable() bool { return t.info().durability > 0 }

// Durability is the dig progress needed to break the tile.
func (t Tile) Durability() int { return t.info().durability }

// Drops is how many resources the tile leaves behind when broken.
func (t Tile) Drops() int { return t.info().drops }

// Name returns the registry name of the tile, e.g. cavework:dirt_wall.
func (t Tile) Name() ident.Identifier {
	return ident.MustNew(ident.DefaultNamespace, t.info().name)
}

func (t Tile) String() string {
	if int(t) >= len(tiles) {
		return fmt.Sprintf("tile(%d)", uint8(t))
	}
	return t.info().name
}
