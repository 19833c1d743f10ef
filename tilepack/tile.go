package tilepack

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const webMercatorLatLimit float64 = 85.05112877980659

const (
	tileKeyAxisBits = 28
	tileKeyAxisMask = 1<<tileKeyAxisBits - 1
	tileKeyZoomMask = 0xFF
)

// TileKey packs a tile address into the 64 bit primary key of the tiles
// table: zoom in the top 8 bits, x (column) in the next 28 and y (row) in the
// low 28. Bits outside those widths are dropped.
func TileKey(z maptile.Zoom, x, y uint32) uint64 {
	return (uint64(z)&tileKeyZoomMask)<<(2*tileKeyAxisBits) |
		(uint64(x)&tileKeyAxisMask)<<tileKeyAxisBits |
		uint64(y)&tileKeyAxisMask
}

// TileFromKey unpacks a key built by TileKey.
func TileFromKey(key uint64) maptile.Tile {
	return maptile.New(
		uint32((key>>tileKeyAxisBits)&tileKeyAxisMask),
		uint32(key&tileKeyAxisMask),
		maptile.Zoom((key>>(2*tileKeyAxisBits))&tileKeyZoomMask),
	)
}

// TileLonLat returns the north-west corner of the tile at row, col.
// Passing row+1, col+1 gives the south-east corner of the same tile.
func TileLonLat(row, col uint64, z maptile.Zoom) orb.Point {
	n := math.Exp2(float64(z))
	lon := float64(col)/n*360.0 - 180.0
	y := math.Pi - 2.0*math.Pi*float64(row)/n
	lat := 180.0 / math.Pi * math.Atan(0.5*(math.Exp(y)-math.Exp(-y)))
	return orb.Point{lon, lat}
}

// TileExtent is the row/column bounding box of the tiles stored at one zoom.
type TileExtent struct {
	Zoom   maptile.Zoom
	MinRow uint32
	MinCol uint32
	MaxRow uint32
	MaxCol uint32
}

// TopLeft is the north-west corner of the extent.
func (e TileExtent) TopLeft() orb.Point {
	return TileLonLat(uint64(e.MinRow), uint64(e.MinCol), e.Zoom)
}

// BottomRight is the outer south-east edge of the extent, which is the
// top-left corner of the tile diagonally past (MaxRow, MaxCol).
func (e TileExtent) BottomRight() orb.Point {
	return TileLonLat(uint64(e.MaxRow)+1, uint64(e.MaxCol)+1, e.Zoom)
}

// Bound returns the extent as a lon/lat box.
func (e TileExtent) Bound() orb.Bound {
	tl := e.TopLeft()
	br := e.BottomRight()
	return orb.Bound{
		Min: orb.Point{tl.Lon(), br.Lat()},
		Max: orb.Point{br.Lon(), tl.Lat()},
	}
}

// Center is the arithmetic midpoint of the two corners. It is not the
// projected centre of the extent; the latitude is only meaningful for
// coverage north of the equator.
func (e TileExtent) Center() orb.Point {
	tl := e.TopLeft()
	br := e.BottomRight()
	return orb.Point{
		(tl.Lon() + br.Lon()) / 2.0,
		(tl.Lat() + br.Lat()) / 2.0,
	}
}
