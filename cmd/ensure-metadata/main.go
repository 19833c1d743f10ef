package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/tilezen/go-tileimport/internal/logging"
	"github.com/tilezen/go-tileimport/tilepack"
)

// tileZooms scans the tiles table for the zoom range actually stored.
func tileZooms(path string) (tilepack.ZoomRange, error) {
	zooms := tilepack.NewZoomRange()

	reader, err := tilepack.NewMbtilesReader(path)
	if err != nil {
		return zooms, err
	}
	defer reader.Close()

	stats, err := reader.Stats()
	if err != nil {
		return zooms, err
	}

	for _, z := range stats.Zooms {
		zooms.Add(z.Zoom)
	}
	return zooms, nil
}

// rewriteMetadata replaces the metadata of the database at path with values
// derived from its tiles.
func rewriteMetadata(path string) (*tilepack.TileExtent, error) {
	zooms, err := tileZooms(path)
	if err != nil {
		return nil, err
	}

	writer, err := tilepack.OpenMbtilesOutputter(path)
	if err != nil {
		return nil, err
	}
	defer writer.Close()

	if err := writer.CreateTiles(); err != nil {
		return nil, err
	}

	if err := writer.ClearMetadata(); err != nil {
		return nil, err
	}

	return writer.WriteMetadata(zooms)
}

func verifyMetadata(logger *slog.Logger, path string) error {
	reader, err := tilepack.NewMbtilesReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	metadata, err := reader.Metadata()
	if err != nil {
		return err
	}

	bounds, err := metadata.Bounds()
	if err != nil {
		return err
	}

	center, err := metadata.Center()
	if err != nil {
		return err
	}

	minZoom, err := metadata.MinZoom()
	if err != nil {
		return err
	}

	maxZoom, err := metadata.MaxZoom()
	if err != nil {
		return err
	}

	logger.Info("Verified metadata", "path", path, "bounds", bounds, "center", center, "min_zoom", minZoom, "max_zoom", maxZoom)
	return nil
}

func main() {

	var verify bool

	flag.BoolVar(&verify, "verify", false, "Verify that metadata was written to each database")

	flag.Parse()

	logger := logging.New(false)

	for _, path := range flag.Args() {

		if _, err := os.Stat(path); err != nil {
			logging.Fatal(logger, "Couldn't open database", "path", path, "error", err)
		}

		extent, err := rewriteMetadata(path)

		if err != nil {
			logging.Fatal(logger, "Failed to assign metadata", "path", path, "error", err)
		}

		if extent == nil {
			logger.Warn("No tiles, metadata cleared", "path", path)
			continue
		}

		logger.Info("Assigned metadata", "path", path, "zoom", extent.Zoom, "bounds", extent.Bound())

		if verify {
			if err := verifyMetadata(logger, path); err != nil {
				logging.Fatal(logger, "Failed to derive metadata after update", "path", path, "error", err)
			}
		}
	}
}
