package tilepack

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// ErrNotTile is returned by ParseTilePath for files that do not carry the
// tile image extension. Callers skip these without reporting them.
var ErrNotTile = errors.New("not a tile path")

// Scheme identifies the directory layout a tile path was parsed from.
type Scheme int

const (
	// SchemeXYZ is the slippy map layout {zoom}/{column}/{row}.ext with
	// decimal numbers.
	SchemeXYZ Scheme = iota
	// SchemeArcGIS is the exploded ArcGIS cache layout
	// L{zoom}/R{row}/C{column}.ext with a decimal zoom and hex row/column.
	SchemeArcGIS
)

func (s Scheme) String() string {
	switch s {
	case SchemeXYZ:
		return "xyz"
	case SchemeArcGIS:
		return "arcgis"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// TilePath is a tile address recovered from a file path.
type TilePath struct {
	Scheme Scheme
	Tile   maptile.Tile
}

// Row is the tile's row counted from the north edge.
func (p TilePath) Row() uint32 {
	return p.Tile.Y
}

// Column is the tile's column counted from the antimeridian.
func (p TilePath) Column() uint32 {
	return p.Tile.X
}

// TilePathError reports a file that looks like a tile but whose path could
// not be parsed.
type TilePathError struct {
	Path string
	Err  error
}

func (e *TilePathError) Error() string {
	return fmt.Sprintf("invalid tile path %q: %v", e.Path, e.Err)
}

func (e *TilePathError) Unwrap() error {
	return e.Err
}

// ParseTilePath parses a path relative to the import root. ext is the image
// extension including the dot and is matched case-insensitively.
func ParseTilePath(rel string, ext string) (TilePath, error) {
	fileExt := filepath.Ext(rel)
	if !strings.EqualFold(fileExt, ext) {
		return TilePath{}, ErrNotTile
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 {
		return TilePath{}, &TilePathError{Path: rel, Err: fmt.Errorf("expected 3 path segments, got %d", len(parts))}
	}
	parts[2] = strings.TrimSuffix(parts[2], fileExt)

	var p TilePath
	var err error
	if strings.HasPrefix(parts[0], "L") {
		p, err = parseArcGISSegments(parts)
	} else {
		p, err = parseXYZSegments(parts)
	}
	if err != nil {
		return TilePath{}, &TilePathError{Path: rel, Err: err}
	}
	return p, nil
}

func parseArcGISSegments(parts []string) (TilePath, error) {
	z, err := parseZoom(strings.TrimPrefix(parts[0], "L"))
	if err != nil {
		return TilePath{}, err
	}

	row, err := parseHexAxis(parts[1], "R")
	if err != nil {
		return TilePath{}, fmt.Errorf("row: %w", err)
	}

	col, err := parseHexAxis(parts[2], "C")
	if err != nil {
		return TilePath{}, fmt.Errorf("column: %w", err)
	}

	return TilePath{Scheme: SchemeArcGIS, Tile: maptile.New(col, row, z)}, nil
}

func parseXYZSegments(parts []string) (TilePath, error) {
	z, err := parseZoom(parts[0])
	if err != nil {
		return TilePath{}, err
	}

	col, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return TilePath{}, fmt.Errorf("column: %w", err)
	}

	row, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return TilePath{}, fmt.Errorf("row: %w", err)
	}

	return TilePath{Scheme: SchemeXYZ, Tile: maptile.New(uint32(col), uint32(row), z)}, nil
}

func parseZoom(s string) (maptile.Zoom, error) {
	z, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("zoom: %w", err)
	}
	return maptile.Zoom(z), nil
}

// parseHexAxis parses an ArcGIS row or column segment such as "R0000a3f1".
// Only one marker is removed since C is also a hex digit. Further L and R
// letters are skipped.
func parseHexAxis(s string, marker string) (uint32, error) {
	digits := strings.TrimLeft(strings.TrimPrefix(s, marker), "LR")
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
