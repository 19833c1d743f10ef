package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/tilezen/go-tileimport/tilepack"
)

func Test_rewriteMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.db")

	out, err := tilepack.NewMbtilesOutputter(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, tile := range []maptile.Tile{maptile.New(0, 0, 0), maptile.New(1, 0, 1), maptile.New(1, 1, 1)} {
		if err := out.Save(tile, []byte("tile")); err != nil {
			t.Fatal(err)
		}
	}
	if err := out.SetMetadataString(tilepack.MetadataMinZoom, "9"); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	extent, err := rewriteMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	want := &tilepack.TileExtent{Zoom: 1, MinRow: 0, MinCol: 0, MaxRow: 1, MaxCol: 1}
	if !reflect.DeepEqual(extent, want) {
		t.Errorf("rewriteMetadata() = %+v, want %+v", extent, want)
	}

	if err := verifyMetadata(slog.New(slog.NewTextHandler(io.Discard, nil)), path); err != nil {
		t.Fatal(err)
	}

	reader, err := tilepack.NewMbtilesReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	metadata, err := reader.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if z, err := metadata.MinZoom(); err != nil || z != 0 {
		t.Errorf("MinZoom() = %d, %v, want 0", z, err)
	}
}
