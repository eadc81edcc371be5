package queryprocessor

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/feature"
)

// QueryProcessor ties the operator registry to a process-wide RasterDB
// handle cache and a FeatureCollectionDB backend, and is the entry point
// binaries construct once at startup. Unlike rasters, feature backends are
// not individually ref-counted: the backend's own connection pool already
// amortizes that cost, so a single shared handle suffices.
type QueryProcessor struct {
	Rasters  *HandleCache
	Features feature.FeatureBackend
}

// QueryProgress is the handle returned by ProcessAsync: Wait blocks until
// the query finishes, Result then returns its outcome.
type QueryProgress struct {
	id     uuid.UUID
	done   chan struct{}
	result *QueryResult
	err    error
}

// ID returns the query's generated identifier, used for logging/diagnostics.
func (p *QueryProgress) ID() uuid.UUID { return p.id }

// Wait blocks until the query has finished evaluating.
func (p *QueryProgress) Wait() { <-p.done }

// Result returns the outcome of a finished query. Calling it before Wait
// returns has returned may race; callers always call Wait first.
func (p *QueryProgress) Result() (*QueryResult, error) { return p.result, p.err }

// ProcessAsync starts evaluating q's operator graph against its registry in
// a goroutine and returns immediately with a handle to observe completion.
func (qp *QueryProcessor) ProcessAsync(q Query) *QueryProgress {
	progress := &QueryProgress{id: uuid.New(), done: make(chan struct{})}
	go func() {
		defer close(progress.done)
		progress.result, progress.err = qp.evaluate(q)
	}()
	return progress
}

// Process runs q to completion synchronously: ProcessAsync followed by
// Wait/Result (§4.7).
func (qp *QueryProcessor) Process(q Query) (*QueryResult, error) {
	progress := qp.ProcessAsync(q)
	progress.Wait()
	return progress.Result()
}

func (qp *QueryProcessor) evaluate(q Query) (*QueryResult, error) {
	var root OperatorNode
	if err := json.Unmarshal(q.OperatorGraph, &root); err != nil {
		return nil, apperr.Wrap(apperr.ArgumentError, err, "query: parse operator graph")
	}
	op, err := lookupOperator(root.Type)
	if err != nil {
		return nil, err
	}

	var prov *Provenance
	if q.IncludeProvenance {
		prov = NewProvenance()
	}
	ctx := &EvalContext{Rasters: qp.Rasters, Features: qp.Features, Rect: q.Rect, Provenance: prov}

	result, err := op(ctx, root.Params)
	if err != nil {
		return nil, err
	}
	if q.IncludeProvenance {
		result.Provenance = prov
	}
	return result, nil
}
