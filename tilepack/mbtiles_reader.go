package tilepack

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // Register sqlite3 database driver
	"github.com/paulmach/orb/maptile"
)

type TileData struct {
	Tile maptile.Tile
	Data *[]byte
}

type MbtilesReader interface {
	Close() error
	GetTile(tile maptile.Tile) (*TileData, error)
	VisitAllTiles(visitor func(maptile.Tile, []byte)) error
	Metadata() (*MbtilesMetadata, error)
	ZoomExtent(z maptile.Zoom) (TileExtent, error)
	Stats() (*Stats, error)
}

func NewMbtilesReader(dsn string) (MbtilesReader, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return NewMbtilesReaderWithDatabase(db)
}

func NewMbtilesReaderWithDatabase(db *sql.DB) (MbtilesReader, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &mbtilesReader{db: db}, nil
}

type mbtilesReader struct {
	db *sql.DB
}

// Close gracefully tears down the database connection.
func (o *mbtilesReader) Close() error {
	var err error

	if o.db != nil {
		if err2 := o.db.Close(); err2 != nil {
			err = err2
		}
	}

	return err
}

// GetTile returns data for the given tile. Data is nil if the tile is not
// stored.
func (o *mbtilesReader) GetTile(tile maptile.Tile) (*TileData, error) {
	var data []byte

	key := TileKey(tile.Z, tile.X, tile.Y)
	result := o.db.QueryRow("SELECT image FROM tiles WHERE tile_data=? AND zoom_level=? AND tile_column=? AND tile_row=? LIMIT 1",
		int64(key), uint32(tile.Z), tile.X, tile.Y)
	err := result.Scan(&data)

	if err != nil {
		if err == sql.ErrNoRows {
			blankTile := &TileData{Tile: tile, Data: nil}
			return blankTile, nil
		}
		return nil, err
	}

	tileData := &TileData{
		Tile: tile,
		Data: &data,
	}

	return tileData, nil
}

// VisitAllTiles runs the given function on all tiles in key order.
func (o *mbtilesReader) VisitAllTiles(visitor func(maptile.Tile, []byte)) error {
	rows, err := o.db.Query("SELECT zoom_level, tile_column, tile_row, image FROM tiles ORDER BY tile_data")
	if err != nil {
		return err
	}
	defer rows.Close()

	var x, y uint32
	var z maptile.Zoom
	for rows.Next() {
		data := []byte{}
		if err := rows.Scan(&z, &x, &y, &data); err != nil {
			return err
		}

		t := maptile.New(x, y, z)
		visitor(t, data)
	}
	return rows.Err()
}

// Metadata loads the whole metadata table.
func (o *mbtilesReader) Metadata() (*MbtilesMetadata, error) {
	rows, err := o.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		values[name] = value.String
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewMbtilesMetadata(values), nil
}

func (o *mbtilesReader) ZoomExtent(z maptile.Zoom) (TileExtent, error) {
	return queryZoomExtent(o.db, z)
}
