package tilepack

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb/maptile"
)

const (
	batchSize = 1000

	// TileSideLength is the pixel size of every tile in the database.
	TileSideLength = 256
)

// Metadata keys written after an import.
const (
	MetadataMinZoom                = "map.minZoom"
	MetadataMaxZoom                = "map.maxZoom"
	MetadataTileSideLength         = "map.tileSideLength"
	MetadataCoverageTopLeftLat     = "map.coverageTopLeftLatitude"
	MetadataCoverageTopLeftLon     = "map.coverageTopLeftLongitude"
	MetadataCoverageBottomRightLat = "map.coverageBottomRightLatitude"
	MetadataCoverageBottomRightLon = "map.coverageBottomRightLongitude"
	MetadataCoverageCenterLat      = "map.coverageCenterLatitude"
	MetadataCoverageCenterLon      = "map.coverageCenterLongitude"
)

// KeyCollisionError is returned by Save when the computed key of a tile is
// already taken by a different tile address.
type KeyCollisionError struct {
	Key      uint64
	Existing maptile.Tile
	Incoming maptile.Tile
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("tile key %#x of %d/%d/%d already used by %d/%d/%d",
		e.Key,
		e.Incoming.Z, e.Incoming.X, e.Incoming.Y,
		e.Existing.Z, e.Existing.X, e.Existing.Y)
}

// MbtilesOutputter writes tiles and metadata into a freshly created
// database file.
type MbtilesOutputter struct {
	db         *sql.DB
	txn        *sql.Tx
	batchCount int
	hasTiles   bool
}

// NewMbtilesOutputter removes any file at path and opens a new database
// there. The schema is created by CreateTiles.
func NewMbtilesOutputter(path string) (*MbtilesOutputter, error) {
	if info, err := os.Lstat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("database path %s is a directory", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove existing database, %w", err)
	}

	return OpenMbtilesOutputter(path)
}

// OpenMbtilesOutputter opens an existing database without truncating it.
func OpenMbtilesOutputter(path string) (*MbtilesOutputter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s, %w", path, err)
	}

	return &MbtilesOutputter{db: db}, nil
}

func (o *MbtilesOutputter) Close() error {
	var err error

	if o.txn != nil {
		err = o.txn.Commit()
		o.txn = nil
	}

	if o.db != nil {
		if err2 := o.db.Close(); err2 != nil {
			err = err2
		}
	}

	return err
}

func (o *MbtilesOutputter) CreateTiles() error {
	if o.hasTiles {
		return nil
	}
	if _, err := o.db.Exec(`
		BEGIN TRANSACTION;
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT PRIMARY KEY,
			value TEXT
		);
		CREATE TABLE IF NOT EXISTS tiles (
			tile_data INTEGER PRIMARY KEY,
			zoom_level INTEGER NOT NULL,
			tile_row INTEGER NOT NULL,
			tile_column INTEGER NOT NULL,
			image BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS tiles_zoom ON tiles (zoom_level);
		COMMIT;
	`); err != nil {
		return err
	}
	o.hasTiles = true
	return nil
}

// Save inserts one tile. A key that is already present is reported as a
// *KeyCollisionError and leaves the table unchanged.
func (o *MbtilesOutputter) Save(tile maptile.Tile, data []byte) error {
	if err := o.CreateTiles(); err != nil {
		return err
	}

	if o.txn == nil {
		tx, err := o.db.Begin()
		if err != nil {
			return err
		}
		o.txn = tx
	}

	key := TileKey(tile.Z, tile.X, tile.Y)

	_, err := o.txn.Exec("INSERT INTO tiles (tile_data, zoom_level, tile_row, tile_column, image) VALUES (?, ?, ?, ?, ?);",
		int64(key), uint32(tile.Z), tile.Y, tile.X, data)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return o.collision(key, tile)
		}
		return err
	}

	o.batchCount++

	if o.batchCount%batchSize == 0 {
		return o.Flush()
	}

	return nil
}

// Flush commits any pending tile inserts.
func (o *MbtilesOutputter) Flush() error {
	if o.txn == nil {
		return nil
	}

	err := o.txn.Commit()
	o.batchCount = 0
	o.txn = nil
	return err
}

func (o *MbtilesOutputter) collision(key uint64, incoming maptile.Tile) error {
	var z, row, col uint32

	err := o.txn.QueryRow("SELECT zoom_level, tile_row, tile_column FROM tiles WHERE tile_data = ?", int64(key)).Scan(&z, &row, &col)
	if err != nil {
		return fmt.Errorf("failed to look up colliding tile for key %#x, %w", key, err)
	}

	return &KeyCollisionError{
		Key:      key,
		Existing: maptile.New(col, row, maptile.Zoom(z)),
		Incoming: incoming,
	}
}

func isPrimaryKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// SetMetadataString appends a metadata row. Names are never overwritten.
func (o *MbtilesOutputter) SetMetadataString(name string, value string) error {
	if err := o.CreateTiles(); err != nil {
		return err
	}

	if err := o.Flush(); err != nil {
		return err
	}

	_, err := o.db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?);", name, value)
	if err != nil {
		return fmt.Errorf("failed to write metadata %s, %w", name, err)
	}
	return nil
}

// SetMetadataFloat stores v with six decimal places.
func (o *MbtilesOutputter) SetMetadataFloat(name string, v float64) error {
	return o.SetMetadataString(name, strconv.FormatFloat(v, 'f', 6, 64))
}

func (o *MbtilesOutputter) SetMetadataInt(name string, v int64) error {
	return o.SetMetadataString(name, strconv.FormatInt(v, 10))
}

// ClearMetadata removes every metadata row.
func (o *MbtilesOutputter) ClearMetadata() error {
	if err := o.Flush(); err != nil {
		return err
	}
	_, err := o.db.Exec("DELETE FROM metadata;")
	return err
}

// ZoomExtent returns the row/column box of the tiles stored at zoom z.
func (o *MbtilesOutputter) ZoomExtent(z maptile.Zoom) (TileExtent, error) {
	if err := o.Flush(); err != nil {
		return TileExtent{}, err
	}
	return queryZoomExtent(o.db, z)
}

// WriteMetadata writes the zoom range, tile size and coverage of the
// tiles at zooms.Max. Coverage is derived from the stored tiles rather than
// from zooms so that it reflects what was actually inserted.
func (o *MbtilesOutputter) WriteMetadata(zooms ZoomRange) (*TileExtent, error) {
	if zooms.Empty() {
		return nil, nil
	}

	if err := o.SetMetadataInt(MetadataMinZoom, int64(zooms.Min)); err != nil {
		return nil, err
	}
	if err := o.SetMetadataInt(MetadataMaxZoom, int64(zooms.Max)); err != nil {
		return nil, err
	}
	if err := o.SetMetadataInt(MetadataTileSideLength, TileSideLength); err != nil {
		return nil, err
	}

	extent, err := o.ZoomExtent(maptile.Zoom(zooms.Max))
	if err != nil {
		return nil, err
	}

	topLeft := extent.TopLeft()
	bottomRight := extent.BottomRight()
	center := extent.Center()

	values := []struct {
		name  string
		value float64
	}{
		{MetadataCoverageTopLeftLat, topLeft.Lat()},
		{MetadataCoverageTopLeftLon, topLeft.Lon()},
		{MetadataCoverageBottomRightLat, bottomRight.Lat()},
		{MetadataCoverageBottomRightLon, bottomRight.Lon()},
		{MetadataCoverageCenterLat, center.Lat()},
		{MetadataCoverageCenterLon, center.Lon()},
	}

	for _, v := range values {
		if err := o.SetMetadataFloat(v.name, v.value); err != nil {
			return nil, err
		}
	}

	return &extent, nil
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func queryZoomExtent(db queryRower, z maptile.Zoom) (TileExtent, error) {
	var minRow, minCol, maxRow, maxCol sql.NullInt64

	err := db.QueryRow("SELECT min(tile_row), min(tile_column), max(tile_row), max(tile_column) FROM tiles WHERE zoom_level = ?", uint32(z)).
		Scan(&minRow, &minCol, &maxRow, &maxCol)
	if err != nil {
		return TileExtent{}, err
	}

	if !minRow.Valid {
		return TileExtent{}, fmt.Errorf("no tiles at zoom %d", z)
	}

	return TileExtent{
		Zoom:   z,
		MinRow: uint32(minRow.Int64),
		MinCol: uint32(minCol.Int64),
		MaxRow: uint32(maxRow.Int64),
		MaxCol: uint32(maxCol.Int64),
	}, nil
}
