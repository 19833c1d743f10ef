package tilepack

import (
	"fmt"
	"io"

	"github.com/paulmach/orb/maptile"
	"github.com/schollz/progressbar/v3"
)

// Export copies every tile in reader to out and closes out. progress may be
// nil.
func Export(reader MbtilesReader, out TileOutputter, progress io.Writer) (int, error) {
	if err := out.CreateTiles(); err != nil {
		out.Close()
		return 0, err
	}

	var bar *progressbar.ProgressBar
	if progress != nil {
		stats, err := reader.Stats()
		if err != nil {
			out.Close()
			return 0, err
		}
		bar = progressbar.NewOptions64(stats.TileCount,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("exporting tiles"),
			progressbar.OptionShowCount(),
		)
	}

	count := 0
	var saveErr error
	err := reader.VisitAllTiles(func(t maptile.Tile, data []byte) {
		if saveErr != nil {
			return
		}
		if err := out.Save(t, data); err != nil {
			saveErr = fmt.Errorf("failed to export %d/%d/%d, %w", t.Z, t.X, t.Y, err)
			return
		}
		count++
		if bar != nil {
			bar.Add(1)
		}
	})
	if bar != nil {
		bar.Finish()
	}

	if err == nil {
		err = saveErr
	}
	if err != nil {
		out.Close()
		return count, err
	}

	return count, out.Close()
}
