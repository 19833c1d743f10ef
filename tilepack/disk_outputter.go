package tilepack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/maptile"
)

type diskOutputter struct {
	root     string
	ext      string
	hasTiles bool
}

// NewDiskOutputter writes tiles as {z}/{x}/{y}{ext} below dsn, the layout
// Import reads back.
func NewDiskOutputter(dsn string, ext string) (*diskOutputter, error) {

	if ext == "" {
		ext = DefaultExtension
	}

	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	root, err := filepath.Abs(dsn)

	if err != nil {
		return nil, err
	}

	o := diskOutputter{
		root: root,
		ext:  ext,
	}

	return &o, nil
}

func (o *diskOutputter) Close() error {
	return nil
}

func (o *diskOutputter) CreateTiles() error {
	if o.hasTiles {
		return nil
	}

	info, err := os.Stat(o.root)

	if err != nil {

		if os.IsNotExist(err) {

			err := os.MkdirAll(o.root, 0755)

			if err != nil {
				return err
			}
		} else {
			return err
		}

	} else {

		if !info.IsDir() {
			return errors.New("Root is already a file")
		}
	}

	o.hasTiles = true
	return nil
}

func (o *diskOutputter) Save(tile maptile.Tile, data []byte) error {

	if err := o.CreateTiles(); err != nil {
		return err
	}

	rel_path := fmt.Sprintf("%d/%d/%d%s", tile.Z, tile.X, tile.Y, o.ext)
	abs_path := filepath.Join(o.root, filepath.FromSlash(rel_path))

	root := filepath.Dir(abs_path)

	err := os.MkdirAll(root, 0755)

	if err != nil {
		return err
	}

	return os.WriteFile(abs_path, data, 0644)
}
