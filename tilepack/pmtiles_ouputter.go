package tilepack

import (
	"cmp"
	"fmt"
	"hash"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/paulmach/orb/maptile"
	"github.com/protomaps/go-pmtiles/pmtiles"
)

type offsetLen struct {
	offset uint64
	length uint32
}

type pmtilesOutputter struct {
	tileset   *roaring64.Bitmap
	hashFunc  hash.Hash
	offsetMap map[string]offsetLen
	tileData  *os.File
	entries   []pmtiles.EntryV3
	header    pmtiles.HeaderV3
	metadata  *MbtilesMetadata
	outFile   *os.File
	logger    *slog.Logger
}

// PmtilesTileType maps an image extension to the PMTiles tile type.
func PmtilesTileType(ext string) pmtiles.TileType {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return pmtiles.Png
	case "jpg", "jpeg":
		return pmtiles.Jpeg
	case "webp":
		return pmtiles.Webp
	case "avif":
		return pmtiles.Avif
	case "pbf", "mvt":
		return pmtiles.Mvt
	default:
		return pmtiles.UnknownTileType
	}
}

func (p *pmtilesOutputter) CreateTiles() error {
	return nil
}

// Save appends the tile data, stored once per distinct content. Image tiles
// are already compressed so they are written as is.
func (p *pmtilesOutputter) Save(tile maptile.Tile, data []byte) error {
	id := pmtiles.ZxyToID(uint8(tile.Z), tile.X, tile.Y)
	if p.tileset.Contains(id) {
		return fmt.Errorf("tile %d/%d/%d already written", tile.Z, tile.X, tile.Y)
	}
	p.tileset.Add(id)

	// Hash the tile data to use as a key for dedupe
	p.hashFunc.Reset()
	p.hashFunc.Write(data)
	var empty []byte
	sumString := string(p.hashFunc.Sum(empty))
	found, ok := p.offsetMap[sumString]

	if !ok {
		offset, err := p.tileData.Seek(0, io.SeekEnd)
		if err != nil {
			return err
		}

		bytesWritten, err := p.tileData.Write(data)
		if err != nil {
			return err
		}

		found = offsetLen{
			offset: uint64(offset),
			length: uint32(bytesWritten),
		}

		p.offsetMap[sumString] = found
	}

	p.entries = append(p.entries, pmtiles.EntryV3{
		TileID:    id,
		Offset:    found.offset,
		Length:    found.length,
		RunLength: 1,
	})

	return nil
}

func (p *pmtilesOutputter) assignSpatialMetadata() {
	if z, err := p.metadata.MinZoom(); err == nil {
		p.header.MinZoom = uint8(z)
	}
	if z, err := p.metadata.MaxZoom(); err == nil {
		p.header.MaxZoom = uint8(z)
		p.header.CenterZoom = uint8(z)
	}
	if b, err := p.metadata.Bounds(); err == nil {
		p.header.MinLonE7 = int32(b.Min.Lon() * 1e7)
		p.header.MinLatE7 = int32(b.Min.Lat() * 1e7)
		p.header.MaxLonE7 = int32(b.Max.Lon() * 1e7)
		p.header.MaxLatE7 = int32(b.Max.Lat() * 1e7)
	}
	if c, err := p.metadata.Center(); err == nil {
		p.header.CenterLonE7 = int32(c.Lon() * 1e7)
		p.header.CenterLatE7 = int32(c.Lat() * 1e7)
	}
}

func (p *pmtilesOutputter) Close() error {
	defer os.Remove(p.tileData.Name())
	defer p.tileData.Close()
	defer p.outFile.Close()

	p.logger.Info("Writing tiles to pmtiles", "count", p.tileset.GetCardinality())

	slices.SortFunc(p.entries, func(a, b pmtiles.EntryV3) int {
		return cmp.Compare(a.TileID, b.TileID)
	})

	p.header.SpecVersion = 3
	p.header.AddressedTilesCount = p.tileset.GetCardinality()
	p.header.TileEntriesCount = uint64(len(p.entries))
	p.header.TileContentsCount = uint64(len(p.offsetMap))
	p.header.Clustered = false
	p.header.InternalCompression = pmtiles.Gzip
	p.header.TileCompression = pmtiles.NoCompression
	p.assignSpatialMetadata()

	rootBytes, leavesBytes, numLeaves := optimizeDirectories(p.entries, 16384-pmtiles.HeaderV3LenBytes, pmtiles.Gzip)

	p.logger.Debug("Built pmtiles directories", "root_bytes", len(rootBytes), "leaves_bytes", len(leavesBytes), "leaves", numLeaves)

	jsonMetadata := make(map[string]interface{})
	for _, k := range p.metadata.Keys() {
		v, _ := p.metadata.Get(k)
		jsonMetadata[k] = v
	}

	metadataBytes, err := pmtiles.SerializeMetadata(jsonMetadata, pmtiles.Gzip)
	if err != nil {
		return fmt.Errorf("error serializing pmtiles metadata: %v", err)
	}

	tileDataLength, err := p.tileData.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	p.header.RootOffset = pmtiles.HeaderV3LenBytes
	p.header.RootLength = uint64(len(rootBytes))
	p.header.MetadataOffset = p.header.RootOffset + p.header.RootLength
	p.header.MetadataLength = uint64(len(metadataBytes))
	p.header.LeafDirectoryOffset = p.header.MetadataOffset + p.header.MetadataLength
	p.header.LeafDirectoryLength = uint64(len(leavesBytes))
	p.header.TileDataOffset = p.header.LeafDirectoryOffset + p.header.LeafDirectoryLength
	p.header.TileDataLength = uint64(tileDataLength)

	headerBytes := pmtiles.SerializeHeader(p.header)

	_, err = p.outFile.Write(headerBytes)
	if err != nil {
		return fmt.Errorf("error writing pmtiles header: %w", err)
	}

	_, err = p.outFile.Write(rootBytes)
	if err != nil {
		return fmt.Errorf("error writing pmtiles root directory: %w", err)
	}

	_, err = p.outFile.Write(metadataBytes)
	if err != nil {
		return fmt.Errorf("error writing pmtiles metadata: %w", err)
	}

	_, err = p.outFile.Write(leavesBytes)
	if err != nil {
		return fmt.Errorf("error writing pmtiles leaf directory: %w", err)
	}

	_, err = p.tileData.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("error seeking to start of tile data: %w", err)
	}

	_, err = io.Copy(p.outFile, p.tileData)
	if err != nil {
		return fmt.Errorf("error copying tile data to outfile: %w", err)
	}

	return p.outFile.Sync()
}

func optimizeDirectories(entries []pmtiles.EntryV3, targetRootLen int, compression pmtiles.Compression) ([]byte, []byte, int) {
	if len(entries) < 16384 {
		testRootBytes := pmtiles.SerializeEntries(entries, compression)
		if len(testRootBytes) <= targetRootLen {
			// The entire directory fits into the root
			return testRootBytes, make([]byte, 0), 0
		}
	}

	// Root directory is leaf pointers only. Grow the leaves until the root fits.
	leafSize := float32(len(entries)) / 3500
	if leafSize < 4096 {
		leafSize = 4096
	}

	for {
		rootBytes, leavesBytes, numLeaves := buildRootsLeaves(entries, int(leafSize), compression)
		if len(rootBytes) <= targetRootLen {
			return rootBytes, leavesBytes, numLeaves
		}
		leafSize *= 1.2
	}
}

func buildRootsLeaves(entries []pmtiles.EntryV3, leafSize int, compression pmtiles.Compression) ([]byte, []byte, int) {
	rootEntries := make([]pmtiles.EntryV3, 0)
	leavesBytes := make([]byte, 0)
	numLeaves := 0

	for i := 0; i < len(entries); i += leafSize {
		numLeaves++
		end := min(i+leafSize, len(entries))
		serialized := pmtiles.SerializeEntries(entries[i:end], compression)

		rootEntries = append(rootEntries, pmtiles.EntryV3{
			TileID:    entries[i].TileID,
			Offset:    uint64(len(leavesBytes)),
			Length:    uint32(len(serialized)),
			RunLength: 0,
		})
		leavesBytes = append(leavesBytes, serialized...)
	}

	rootBytes := pmtiles.SerializeEntries(rootEntries, compression)
	return rootBytes, leavesBytes, numLeaves
}

// NewPmtilesOutputter creates a PMTiles archive at dsn. metadata supplies
// the header zoom range, bounds and center.
func NewPmtilesOutputter(dsn string, metadata *MbtilesMetadata, tileType pmtiles.TileType, logger *slog.Logger) (*pmtilesOutputter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metadata == nil {
		metadata = NewMbtilesMetadata(map[string]string{})
	}

	tmpFile, err := os.CreateTemp("", "pmtiles-tiledata")
	if err != nil {
		return nil, fmt.Errorf("error creating temp file: %w", err)
	}

	outFile, err := os.Create(dsn)
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return nil, fmt.Errorf("error creating pmtiles output file: %w", err)
	}

	outputter := &pmtilesOutputter{
		outFile:   outFile,
		tileset:   roaring64.New(),
		hashFunc:  fnv.New128a(),
		tileData:  tmpFile,
		offsetMap: make(map[string]offsetLen),
		entries:   make([]pmtiles.EntryV3, 0),
		header:    pmtiles.HeaderV3{TileType: tileType},
		metadata:  metadata,
		logger:    logger,
	}
	return outputter, nil
}
