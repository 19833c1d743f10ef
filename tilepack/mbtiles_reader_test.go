package tilepack

import (
	"database/sql"
	"testing"

	"github.com/paulmach/orb/maptile"
)

func TestMbtilesReader_VisitAllTiles(t *testing.T) {
	out, path := newTestOutputter(t)
	for _, tile := range []maptile.Tile{maptile.New(1, 1, 1), maptile.New(0, 0, 0)} {
		if err := out.Save(tile, []byte("png")); err != nil {
			t.Fatal(err)
		}
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	reader, err := NewMbtilesReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	var got []maptile.Tile
	err = reader.VisitAllTiles(func(tile maptile.Tile, data []byte) {
		got = append(got, tile)
	})
	if err != nil {
		t.Fatalf("VisitAllTiles() error = %v", err)
	}
	if len(got) != 2 || got[0] != maptile.New(0, 0, 0) || got[1] != maptile.New(1, 1, 1) {
		t.Errorf("visited %v, want tiles in key order", got)
	}
}

func TestMbtilesReader_VisitAllTilesScanError(t *testing.T) {
	out, path := newTestOutputter(t)
	if err := out.Save(maptile.New(0, 0, 0), []byte("png")); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO tiles VALUES (?, 'bad', 0, 0, x'00')", int64(TileKey(1, 0, 0))); err != nil {
		t.Fatal(err)
	}
	db.Close()

	reader, err := NewMbtilesReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	visited := 0
	err = reader.VisitAllTiles(func(maptile.Tile, []byte) { visited++ })
	if err == nil {
		t.Fatal("expected a scan error for a non-numeric zoom")
	}
	if visited != 1 {
		t.Errorf("visited %d tiles before the error, want 1", visited)
	}
}
