package tilepack

import (
	"github.com/paulmach/orb/maptile"
)

// TileOutputter is a destination for tiles read back out of a database.
type TileOutputter interface {
	CreateTiles() error
	Save(tile maptile.Tile, data []byte) error
	Close() error
}

var (
	_ TileOutputter = (*MbtilesOutputter)(nil)
	_ TileOutputter = (*diskOutputter)(nil)
	_ TileOutputter = (*pmtilesOutputter)(nil)
)
