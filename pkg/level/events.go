package level

// Event names published on the level's bus.
const (
	EventTileChanged     = "tile.changed"
	EventWallExposed     = "wall.exposed"
	EventResourceSpawned = "resource.spawned"
	EventResourceStored  = "resource.stored"
)

// TileChanged is the payload of EventTileChanged.
type TileChanged struct {
	Pos  TilePos
	From Tile
	To   Tile
}

// WallExposed is the payload of EventWallExposed: a mineable tile gained a
// passable neighbour.
type WallExposed struct {
	Pos  TilePos
	Tile Tile
}

// ResourceSpawned is the payload of EventResourceSpawned. Dropped is set when
// the resource was put back on the floor by an actor rather than mined out.
type ResourceSpawned struct {
	Resource *Resource
	Dropped  bool
}

// ResourceStored is the payload of EventResourceStored.
type ResourceStored struct {
	Resource *Resource
	Store    TilePos
}
