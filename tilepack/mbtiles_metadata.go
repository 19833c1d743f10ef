package tilepack

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MbtilesMetadata holds the name/value pairs of the metadata table. Values
// are stored as text and parsed on access.
type MbtilesMetadata struct {
	metadata map[string]string
}

func NewMbtilesMetadata(metadata map[string]string) *MbtilesMetadata {

	m := &MbtilesMetadata{
		metadata: metadata,
	}

	return m
}

func (m *MbtilesMetadata) Get(k string) (string, bool) {
	v, exists := m.metadata[k]
	return v, exists
}

func (m *MbtilesMetadata) Keys() []string {

	keys := make([]string, 0, len(m.metadata))

	for k := range m.metadata {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

func (m *MbtilesMetadata) Len() int {
	return len(m.metadata)
}

func (m *MbtilesMetadata) float(k string) (float64, error) {

	str, exists := m.Get(k)

	if !exists {
		return 0, fmt.Errorf("Metadata is missing %s", k)
	}

	f, err := strconv.ParseFloat(str, 64)

	if err != nil {
		return 0, fmt.Errorf("Failed to parse %s, %w", k, err)
	}

	return f, nil
}

func (m *MbtilesMetadata) zoom(k string) (maptile.Zoom, error) {

	str, exists := m.Get(k)

	if !exists {
		return 0, fmt.Errorf("Metadata is missing %s", k)
	}

	i, err := strconv.ParseUint(str, 10, 8)

	if err != nil {
		return 0, fmt.Errorf("Failed to parse %s value, %w", k, err)
	}

	return maptile.Zoom(i), nil
}

// Bounds returns the coverage box written by WriteMetadata.
func (m *MbtilesMetadata) Bounds() (orb.Bound, error) {

	var bounds orb.Bound

	keys := []string{
		MetadataCoverageTopLeftLon,
		MetadataCoverageBottomRightLat,
		MetadataCoverageBottomRightLon,
		MetadataCoverageTopLeftLat,
	}

	values := make([]float64, len(keys))

	for i, k := range keys {

		v, err := m.float(k)

		if err != nil {
			return bounds, err
		}

		values[i] = v
	}

	bounds = orb.Bound{
		Min: orb.Point{values[0], values[1]},
		Max: orb.Point{values[2], values[3]},
	}

	return bounds, nil
}

func (m *MbtilesMetadata) Center() (orb.Point, error) {

	var pt orb.Point

	lon, err := m.float(MetadataCoverageCenterLon)

	if err != nil {
		return pt, err
	}

	lat, err := m.float(MetadataCoverageCenterLat)

	if err != nil {
		return pt, err
	}

	pt = orb.Point{lon, lat}
	return pt, nil
}

func (m *MbtilesMetadata) MinZoom() (maptile.Zoom, error) {
	return m.zoom(MetadataMinZoom)
}

func (m *MbtilesMetadata) MaxZoom() (maptile.Zoom, error) {
	return m.zoom(MetadataMaxZoom)
}

func (m *MbtilesMetadata) TileSideLength() (int, error) {

	str, exists := m.Get(MetadataTileSideLength)

	if !exists {
		return 0, fmt.Errorf("Metadata is missing %s", MetadataTileSideLength)
	}

	i, err := strconv.Atoi(str)

	if err != nil {
		return 0, fmt.Errorf("Failed to parse %s value, %w", MetadataTileSideLength, err)
	}

	return i, nil
}
