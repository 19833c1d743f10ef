package tilepack

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/maptile"
	"github.com/schollz/progressbar/v3"
)

// DefaultExtension is the tile image extension picked up by Import.
const DefaultExtension = ".png"

// ZoomRange accumulates the lowest and highest zoom seen. The zero value is
// not empty; use NewZoomRange.
type ZoomRange struct {
	Min int
	Max int
}

// NewZoomRange returns an empty range.
func NewZoomRange() ZoomRange {
	return ZoomRange{Min: math.MaxInt, Max: math.MinInt}
}

// Add widens the range to include z.
func (r *ZoomRange) Add(z maptile.Zoom) {
	r.Min = min(r.Min, int(z))
	r.Max = max(r.Max, int(z))
}

// Empty reports whether no zoom has been added.
func (r ZoomRange) Empty() bool {
	return r.Min > r.Max
}

// ImportOptions configures Import.
type ImportOptions struct {
	// Extension defaults to DefaultExtension.
	Extension string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Progress, when set, receives a progress bar.
	Progress io.Writer
}

// ImportResult counts what Import stored and skipped.
type ImportResult struct {
	Zooms    ZoomRange
	Imported int
	Skipped  int
	// Coverage is the extent at Zooms.Max, nil when nothing was imported.
	Coverage *TileExtent
}

// Import walks root and saves every tile image below it into out, then
// writes the metadata. Files that cannot be parsed, read or saved are
// logged and skipped; only database failures abort the import.
func Import(out *MbtilesOutputter, root string, opts *ImportOptions) (*ImportResult, error) {
	if opts == nil {
		opts = &ImportOptions{}
	}
	ext := opts.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := out.CreateTiles(); err != nil {
		return nil, fmt.Errorf("failed to create schema, %w", err)
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("importing tiles"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
		)
	}

	result := &ImportResult{Zooms: NewZoomRange()}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable entry", "path", path, "error", err)
			result.Skipped++
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		tp, err := ParseTilePath(rel, ext)
		if errors.Is(err, ErrNotTile) {
			return nil
		}
		if err != nil {
			logger.Warn("Skipping tile", "error", err)
			result.Skipped++
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable tile", "path", rel, "error", err)
			result.Skipped++
			return nil
		}

		err = out.Save(tp.Tile, data)
		var collision *KeyCollisionError
		if errors.As(err, &collision) {
			logger.Error("Skipping tile with colliding key", "path", rel, "error", collision)
			result.Skipped++
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to save %s, %w", rel, err)
		}

		result.Zooms.Add(tp.Tile.Z)
		result.Imported++
		logger.Debug("Imported tile", "path", rel, "scheme", tp.Scheme, "zoom", tp.Tile.Z, "row", tp.Row(), "column", tp.Column())

		if bar != nil {
			bar.Add(1)
		}
		return nil
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return result, err
	}

	if err := out.Flush(); err != nil {
		return result, fmt.Errorf("failed to commit tiles, %w", err)
	}

	if result.Imported == 0 {
		logger.Warn("No tiles found, metadata not written", "root", root)
		return result, nil
	}

	coverage, err := out.WriteMetadata(result.Zooms)
	if err != nil {
		return result, fmt.Errorf("failed to write metadata, %w", err)
	}
	result.Coverage = coverage

	logger.Info("Imported tiles", "count", result.Imported, "skipped", result.Skipped, "min_zoom", result.Zooms.Min, "max_zoom", result.Zooms.Max)

	return result, nil
}
