// Package queryprocessor assembles RasterDB/FeatureCollectionDB queries
// behind a single Query/QueryResult surface (§4.7), keeping one process-wide
// cache of open RasterDB handles so repeated queries against the same
// dataset do not reopen its backend connection each time.
package queryprocessor

import (
	"sync"

	"github.com/mappingcore/geodb/internal/log"
	"github.com/mappingcore/geodb/internal/rasterdb"
)

// Opener constructs a RasterDB for name on a cache miss, and returns a
// closer to release its backend resources once the handle's refcount
// reaches zero.
type Opener func(name string) (db *rasterdb.RasterDB, closer func() error, err error)

type handle struct {
	db     *rasterdb.RasterDB
	closer func() error
	refs   int
}

// HandleCache is the process-wide ref-counted RasterDB handle cache of
// §4.7/§5: one mutex serializes lookups; a cache miss releases the lookup
// lock before doing the (possibly slow) open, then re-acquires it to
// install the result, re-checking in case a concurrent caller already won
// the race ("upgrade-with-retry").
type HandleCache struct {
	mu      sync.Mutex
	handles map[string]*handle
	open    Opener
}

// NewHandleCache returns an empty cache that uses open to service misses.
func NewHandleCache(open Opener) *HandleCache {
	return &HandleCache{handles: make(map[string]*handle), open: open}
}

// Acquire returns a RasterDB for name, opening it if not already cached,
// and a release function the caller must call exactly once when done.
func (hc *HandleCache) Acquire(name string) (*rasterdb.RasterDB, func(), error) {
	hc.mu.Lock()
	if h, ok := hc.handles[name]; ok {
		h.refs++
		hc.mu.Unlock()
		return h.db, hc.releaseFunc(name), nil
	}
	hc.mu.Unlock()

	db, closer, err := hc.open(name)
	if err != nil {
		return nil, nil, err
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	if h, ok := hc.handles[name]; ok {
		// Lost the race: another caller opened name while we were opening
		// our own copy. Use theirs, discard ours.
		h.refs++
		if closer != nil {
			if err := closer(); err != nil {
				log.L().Warnf("handle cache: close redundant open of %s: %v", name, err)
			}
		}
		return h.db, hc.releaseFunc(name), nil
	}
	hc.handles[name] = &handle{db: db, closer: closer, refs: 1}
	return db, hc.releaseFunc(name), nil
}

func (hc *HandleCache) releaseFunc(name string) func() {
	return func() {
		hc.mu.Lock()
		defer hc.mu.Unlock()
		h, ok := hc.handles[name]
		if !ok {
			return
		}
		h.refs--
		if h.refs > 0 {
			return
		}
		delete(hc.handles, name)
		if h.closer != nil {
			if err := h.closer(); err != nil {
				log.L().Warnf("handle cache: close %s: %v", name, err)
			}
		}
	}
}

// Len reports the number of distinct open handles, used by tests and
// diagnostics.
func (hc *HandleCache) Len() int {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return len(hc.handles)
}
