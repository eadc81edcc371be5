package queryprocessor

import (
	"encoding/json"
	"math"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/feature"
	"github.com/mappingcore/geodb/internal/rasterdb"
	"github.com/mappingcore/geodb/internal/spatial"
)

// ResultType names which QueryResult field is populated. The operator
// decides the kind of its result; Process does not check Query.ResultType
// against it.
type ResultType int

const (
	ResultRaster ResultType = iota
	ResultPoints
	ResultLines
	ResultPolygons
	ResultPlot
)

func (t ResultType) String() string {
	switch t {
	case ResultRaster:
		return "raster"
	case ResultPoints:
		return "points"
	case ResultLines:
		return "lines"
	case ResultPolygons:
		return "polygons"
	case ResultPlot:
		return "plot"
	default:
		return "unknown"
	}
}

// Query is the top-level request handed to Process (§4.7). OperatorGraph is
// left as raw JSON: its shape is operator-defined, and only the operator
// registry below knows how to interpret a given "type" discriminator.
type Query struct {
	OperatorGraph     json.RawMessage
	ResultType        ResultType
	Rect              spatial.QueryRect
	IncludeProvenance bool
}

// QueryResult is the discriminated union Process returns: exactly one of
// the typed fields is populated, as named by Type.
type QueryResult struct {
	Type       ResultType
	Raster     *rasterdb.Result
	Points     []feature.Point
	Lines      []feature.Line
	Polygons   []feature.Polygon
	Plot       *Histogram
	Provenance *Provenance
}

// FitToQueryRect reports whether the result is raster-typed and its grid
// extent covers rect on both axes, whatever the sign of the pixel scales.
// It does not crop the result.
func (r *QueryResult) FitToQueryRect(rect spatial.QueryRect) bool {
	if r.Type != ResultRaster || r.Raster == nil {
		return false
	}
	g := r.Raster.Grid
	xa, xb := g.OriginX, g.PixelToWorldX(g.Width)
	ya, yb := g.OriginY, g.PixelToWorldY(g.Height)
	return math.Min(xa, xb) <= rect.Rect.X1 && math.Max(xa, xb) >= rect.Rect.X2 &&
		math.Min(ya, yb) <= rect.Rect.Y1 && math.Max(ya, yb) >= rect.Rect.Y2
}

// OperatorNode is one node of the parsed operator graph: a "type"
// discriminator plus its operator-specific parameters.
type OperatorNode struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

// Operator evaluates one node of the graph against ctx, returning its
// contribution to the final QueryResult.
type Operator func(ctx *EvalContext, params json.RawMessage) (*QueryResult, error)

var operatorRegistry = map[string]Operator{}

// RegisterOperator installs an operator under its graph "type" name,
// assembled once at the binary entry point (Design Note "Backend
// registration" applied uniformly to every explicit-registry concern in
// this module).
func RegisterOperator(typeName string, op Operator) {
	operatorRegistry[typeName] = op
}

func lookupOperator(typeName string) (Operator, error) {
	op, ok := operatorRegistry[typeName]
	if !ok {
		return nil, apperr.New(apperr.ArgumentError, "unknown operator type %q", typeName)
	}
	return op, nil
}

// EvalContext carries the per-Process state an operator needs: the process-
// wide RasterDB handle cache, the FeatureCollectionDB backend, the query
// rectangle, and the running provenance collector.
type EvalContext struct {
	Rasters    *HandleCache
	Features   feature.FeatureBackend
	Rect       spatial.QueryRect
	Provenance *Provenance
}
