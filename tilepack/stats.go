package tilepack

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb/maptile"
)

// ZoomStats summarises the tiles stored at one zoom level.
type ZoomStats struct {
	TileExtent
	Count int64
}

// Stats is a read-only summary of a tile database.
type Stats struct {
	TileCount int64
	// MinZoom and MaxZoom are only meaningful when TileCount > 0.
	MinZoom  maptile.Zoom
	MaxZoom  maptile.Zoom
	FileSize int64
	Zooms    []ZoomStats
}

// Stats queries tile counts and extents. The file size is computed from
// the page count so it also works for databases not backed by a local file.
func (o *mbtilesReader) Stats() (*Stats, error) {
	stats := &Stats{}

	var minZoom, maxZoom sql.NullInt64
	err := o.db.QueryRow("SELECT count(*), min(zoom_level), max(zoom_level) FROM tiles").
		Scan(&stats.TileCount, &minZoom, &maxZoom)
	if err != nil {
		return nil, fmt.Errorf("failed to count tiles, %w", err)
	}
	stats.MinZoom = maptile.Zoom(minZoom.Int64)
	stats.MaxZoom = maptile.Zoom(maxZoom.Int64)

	var pageCount, pageSize int64
	if err := o.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, err
	}
	if err := o.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, err
	}
	stats.FileSize = pageCount * pageSize

	rows, err := o.db.Query(`
		SELECT zoom_level, count(*), min(tile_row), min(tile_column), max(tile_row), max(tile_column)
		FROM tiles
		GROUP BY zoom_level
		ORDER BY zoom_level`)
	if err != nil {
		return nil, fmt.Errorf("failed to query zoom levels, %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var zs ZoomStats
		if err := rows.Scan(&zs.Zoom, &zs.Count, &zs.MinRow, &zs.MinCol, &zs.MaxRow, &zs.MaxCol); err != nil {
			return nil, err
		}
		stats.Zooms = append(stats.Zooms, zs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// Report writes a human readable summary.
func (s *Stats) Report(w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("Tiles:     %s\n", humanize.Comma(s.TileCount))
	if s.TileCount > 0 {
		ew.printf("Zooms:     %d-%d\n", s.MinZoom, s.MaxZoom)
	} else {
		ew.printf("Zooms:     none\n")
	}
	ew.printf("File size: %s (%d bytes)\n", humanize.IBytes(uint64(s.FileSize)), s.FileSize)

	for _, z := range s.Zooms {
		tl := z.TopLeft()
		br := z.BottomRight()
		ew.printf("  z%-2d %10s tiles  rows %d-%d  columns %d-%d  top-left %.6f,%.6f  bottom-right %.6f,%.6f\n",
			z.Zoom, humanize.Comma(z.Count),
			z.MinRow, z.MaxRow, z.MinCol, z.MaxCol,
			tl.Lat(), tl.Lon(), br.Lat(), br.Lon())
	}

	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
