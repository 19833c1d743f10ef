package http

import (
	"errors"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/tilezen/go-tileimport/tilepack"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeReader struct {
	tilepack.MbtilesReader
	tiles map[maptile.Tile][]byte
	err   error
}

func (f *fakeReader) GetTile(tile maptile.Tile) (*tilepack.TileData, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.tiles[tile]
	if !ok {
		return &tilepack.TileData{Tile: tile}, nil
	}
	return &tilepack.TileData{Tile: tile, Data: &data}, nil
}

func TestTilesHandler(t *testing.T) {
	reader := &fakeReader{tiles: map[maptile.Tile][]byte{
		maptile.New(3, 5, 4): pngHeader,
	}}
	handler := TilesHandler(reader)

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantContent string
	}{
		{"found", "/tiles/4/3/5.png", gohttp.StatusOK, "image/png"},
		{"missing", "/tiles/4/5/3.png", gohttp.StatusNotFound, ""},
		{"bad path", "/tiles/4/3.png", gohttp.StatusNotFound, ""},
		{"zoom out of range", "/tiles/300/0/0.png", gohttp.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantContent != "" && rec.Header().Get("Content-Type") != tt.wantContent {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.wantContent)
			}
		})
	}
}

func TestTilesHandler_ReaderError(t *testing.T) {
	handler := TilesHandler(&fakeReader{err: errors.New("disk on fire")})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/tiles/0/0/0.png", nil))

	if rec.Code != gohttp.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
