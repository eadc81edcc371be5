// Package feature implements the feature-collection store (§3.4, §4.6):
// typed point/line/polygon collections with per-feature numeric and textual
// attributes, queried by spatial envelope and optional time overlap.
package feature

import (
	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/spatial"
)

// Kind is the geometry type a collection stores.
type Kind int

const (
	Points Kind = iota
	Lines
	Polygons
)

func (k Kind) String() string {
	switch k {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case Polygons:
		return "polygons"
	default:
		return "unknown"
	}
}

// ParseKind converts a §4.6 kind string.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "points":
		return Points, nil
	case "lines":
		return Lines, nil
	case "polygons":
		return Polygons, nil
	default:
		return 0, apperr.New(apperr.ArgumentError, "unknown feature kind %q", s)
	}
}

// AttrDescriptor names one attribute column and its unit, mirroring the
// descriptor layer's numeric/textual attribute arrays (§4.6).
type AttrDescriptor struct {
	Key  string
	Unit string
}

// DataSetMetaData describes one registered collection. (Owner,Name) is
// unique within a backend.
type DataSetMetaData struct {
	DatasetID    int64
	Owner        string
	Name         string
	Kind         Kind
	NumericAttrs []AttrDescriptor
	TextualAttrs []AttrDescriptor
	HasTime      bool
	Crs          spatial.CrsId
}

// Point is a single point feature: one coordinate pair plus its attribute
// row, ordered within the collection by the backend's feature_index column.
type Point struct {
	X, Y         float64
	Numeric      []float64
	Textual      []string
	TimeInterval *spatial.TimeInterval
}

// Line is a single polyline feature: an ordered vertex list.
type Line struct {
	Vertices     []Coord
	Numeric      []float64
	Textual      []string
	TimeInterval *spatial.TimeInterval
}

// Polygon is a single polygon feature: an outer ring followed by zero or
// more hole rings, each closed (first vertex == last vertex).
type Polygon struct {
	Rings        [][]Coord
	Numeric      []float64
	Textual      []string
	TimeInterval *spatial.TimeInterval
}

// Coord is a bare 2D vertex, used by Line and Polygon rings.
type Coord struct {
	X, Y float64
}

// FeatureCollection holds one backend query result, typed per Meta.Kind.
// Exactly one of PointFeatures/LineFeatures/PolygonFeatures is populated.
type FeatureCollection struct {
	Meta           DataSetMetaData
	PointFeatures  []Point
	LineFeatures   []Line
	PolygonFeatures []Polygon
}

// Len reports the feature count regardless of kind.
func (fc *FeatureCollection) Len() int {
	switch fc.Meta.Kind {
	case Points:
		return len(fc.PointFeatures)
	case Lines:
		return len(fc.LineFeatures)
	case Polygons:
		return len(fc.PolygonFeatures)
	default:
		return 0
	}
}
