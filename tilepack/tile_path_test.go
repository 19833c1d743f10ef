package tilepack

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/paulmach/orb/maptile"
)

func TestParseTilePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want TilePath
	}{
		{"xyz origin", "0/0/0.png", TilePath{SchemeXYZ, maptile.New(0, 0, 0)}},
		{"xyz column before row", "5/3/17.png", TilePath{SchemeXYZ, maptile.New(3, 17, 5)}},
		{"xyz upper case extension", "12/2140/1400.PNG", TilePath{SchemeXYZ, maptile.New(2140, 1400, 12)}},
		{"arcgis", "L03/R00000005/C00000002.png", TilePath{SchemeArcGIS, maptile.New(2, 5, 3)}},
		{"arcgis hex digits", "L12/R0000057a/C0000085c.png", TilePath{SchemeArcGIS, maptile.New(0x85c, 0x57a, 12)}},
		{"arcgis mixed case", "L01/R0000000A/C0000000b.Png", TilePath{SchemeArcGIS, maptile.New(0xb, 0xa, 1)}},
		{"arcgis unpadded row starting with C", "L16/RCAFE/C1.png", TilePath{SchemeArcGIS, maptile.New(1, 0xcafe, 16)}},
		{"arcgis single C digit", "L4/RC/CC.png", TilePath{SchemeArcGIS, maptile.New(12, 12, 4)}},
		{"arcgis padded C digits", "L08/R000000cc/C000000c0.png", TilePath{SchemeArcGIS, maptile.New(0xc0, 0xcc, 8)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTilePath(filepath.FromSlash(tt.path), ".png")
			if err != nil {
				t.Fatalf("ParseTilePath(%q) error = %v", tt.path, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTilePath(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseTilePath_AxisOrder(t *testing.T) {
	xyz, err := ParseTilePath("4/9/6.png", ".png")
	if err != nil {
		t.Fatal(err)
	}
	arcgis, err := ParseTilePath("L4/R6/C9.png", ".png")
	if err != nil {
		t.Fatal(err)
	}
	if xyz.Row() != 6 || xyz.Column() != 9 {
		t.Errorf("xyz row/column = %d/%d, want 6/9", xyz.Row(), xyz.Column())
	}
	if xyz.Tile != arcgis.Tile {
		t.Errorf("xyz %v and arcgis %v should address the same tile", xyz.Tile, arcgis.Tile)
	}
}

func TestParseTilePath_NotTile(t *testing.T) {
	for _, path := range []string{
		"0/0/0.jpg",
		"0/0/0",
		"L00/R00000000/C00000000.png.bak",
		"README.md",
	} {
		if _, err := ParseTilePath(path, ".png"); !errors.Is(err, ErrNotTile) {
			t.Errorf("ParseTilePath(%q) error = %v, want ErrNotTile", path, err)
		}
	}
}

func TestParseTilePath_Invalid(t *testing.T) {
	for _, path := range []string{
		"L03/R0000000g/C00000000.png",
		"L03/R00000000/Cxyz.png",
		"Lxx/R00000000/C00000000.png",
		"L03/R100000000/C0.png",
		"a/0/0.png",
		"1/b/0.png",
		"1/0/c.png",
		"256/0/0.png",
		"0/0.png",
		"extra/0/0/0.png",
	} {
		_, err := ParseTilePath(path, ".png")
		var pathErr *TilePathError
		if !errors.As(err, &pathErr) {
			t.Errorf("ParseTilePath(%q) error = %v, want *TilePathError", path, err)
			continue
		}
		if pathErr.Path != path {
			t.Errorf("TilePathError.Path = %q, want %q", pathErr.Path, path)
		}
	}
}

func TestScheme_String(t *testing.T) {
	if SchemeXYZ.String() != "xyz" || SchemeArcGIS.String() != "arcgis" {
		t.Errorf("unexpected scheme names %q, %q", SchemeXYZ, SchemeArcGIS)
	}
}
