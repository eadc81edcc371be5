package queryprocessor

import (
	"encoding/json"
	"fmt"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/feature"
)

// RasterQueryParams are the "params" of a "raster_query" operator node.
type RasterQueryParams struct {
	Dataset   string `json:"dataset"`
	Channel   int    `json:"channel"`
	Transform bool   `json:"transform"`
}

// RasterQuery evaluates a leaf "raster_query" node: acquire the named
// dataset's handle, run RasterDB.Query against the graph's query rectangle,
// release the handle once the result buffer has been copied out.
func RasterQuery(ctx *EvalContext, raw json.RawMessage) (*QueryResult, error) {
	var p RasterQueryParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperr.Wrap(apperr.ArgumentError, err, "raster_query: parse params")
	}
	if ctx.Rasters == nil {
		return nil, apperr.New(apperr.MustNotHappen, "raster_query: no handle cache in context")
	}

	db, release, err := ctx.Rasters.Acquire(p.Dataset)
	if err != nil {
		return nil, err
	}
	defer release()

	result, profiler, err := db.Query(ctx.Rect, p.Channel, p.Transform)
	if err != nil {
		return nil, err
	}

	if ctx.Provenance != nil {
		ctx.Provenance.Add(p.Dataset, "raster", map[string]string{
			"channel":    fmt.Sprintf("%d", p.Channel),
			"zoom":       fmt.Sprintf("%d", result.Zoom),
			"tiles_read": fmt.Sprintf("%d", profiler.TilesRead),
			"bytes_read": fmt.Sprintf("%d", profiler.BytesRead),
		})
	}

	return &QueryResult{Type: ResultRaster, Raster: result}, nil
}

// FeatureQueryParams are the "params" of a "feature_query" operator node.
type FeatureQueryParams struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FeatureQuery evaluates a leaf "feature_query" node against the graph's
// query rectangle, dispatching to LoadPoints/LoadLines/LoadPolygons by the
// collection's declared kind.
func FeatureQuery(ctx *EvalContext, raw json.RawMessage) (*QueryResult, error) {
	var p FeatureQueryParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperr.Wrap(apperr.ArgumentError, err, "feature_query: parse params")
	}
	if ctx.Features == nil {
		return nil, apperr.New(apperr.MustNotHappen, "feature_query: no feature backend in context")
	}

	meta, err := ctx.Features.LoadMetadata(p.Owner, p.Name)
	if err != nil {
		return nil, err
	}

	q := feature.LoadQuery{Envelope: ctx.Rect.Rect}
	if meta.HasTime {
		t := ctx.Rect.Temporal
		q.Temporal = &t
	}

	result := &QueryResult{}
	if ctx.Provenance != nil {
		ctx.Provenance.Add(fmt.Sprintf("%s/%s", p.Owner, p.Name), "feature", map[string]string{"kind": meta.Kind.String()})
	}

	switch meta.Kind {
	case feature.Points:
		pts, err := ctx.Features.LoadPoints(meta.DatasetID, q)
		if err != nil {
			return nil, err
		}
		result.Type = ResultPoints
		result.Points = pts
	case feature.Lines:
		lines, err := ctx.Features.LoadLines(meta.DatasetID, q)
		if err != nil {
			return nil, err
		}
		result.Type = ResultLines
		result.Lines = lines
	case feature.Polygons:
		polys, err := ctx.Features.LoadPolygons(meta.DatasetID, q)
		if err != nil {
			return nil, err
		}
		result.Type = ResultPolygons
		result.Polygons = polys
	default:
		return nil, apperr.New(apperr.MustNotHappen, "feature_query: unhandled kind %v", meta.Kind)
	}
	return result, nil
}

// RegisterDefaults installs the baseline leaf operators. Called explicitly
// from program entry points, never from a package init() (Design Note
// "Backend registration").
func RegisterDefaults() {
	RegisterOperator("raster_query", RasterQuery)
	RegisterOperator("feature_query", FeatureQuery)
}
