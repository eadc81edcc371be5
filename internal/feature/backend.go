package feature

import (
	"sync"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/spatial"
)

// LoadQuery is the spatial/temporal predicate shared by LoadPoints/
// LoadLines/LoadPolygons (§4.6, "spatial predicate: envelope test,
// temporal predicate: interval overlap").
type LoadQuery struct {
	Envelope spatial.SpatialRect
	Temporal *spatial.TimeInterval // nil means no temporal filter
}

// FeatureBackend is the storage interface for feature collections (§4.6).
type FeatureBackend interface {
	// LoadMetadataForUser returns every collection owned by owner.
	LoadMetadataForUser(owner string) ([]DataSetMetaData, error)
	// LoadMetadata returns a single collection's metadata by (owner,name).
	LoadMetadata(owner, name string) (DataSetMetaData, error)
	// LoadMetadataByID returns a single collection's metadata by id.
	LoadMetadataByID(datasetID int64) (DataSetMetaData, error)

	CreatePoints(owner, name string, crs spatial.CrsId, numeric, textual []AttrDescriptor, hasTime bool, features []Point) (int64, error)
	CreateLines(owner, name string, crs spatial.CrsId, numeric, textual []AttrDescriptor, hasTime bool, features []Line) (int64, error)
	CreatePolygons(owner, name string, crs spatial.CrsId, numeric, textual []AttrDescriptor, hasTime bool, features []Polygon) (int64, error)

	LoadPoints(datasetID int64, q LoadQuery) ([]Point, error)
	LoadLines(datasetID int64, q LoadQuery) ([]Line, error)
	LoadPolygons(datasetID int64, q LoadQuery) ([]Polygon, error)

	Close() error
}

// Constructor builds a FeatureBackend from a connection location string,
// matching internal/backend's explicit-registration pattern (Design Note
// "Backend registration").
type Constructor func(location string) (FeatureBackend, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a named FeatureBackend constructor, called explicitly from
// program entry points rather than via init()-time side effects (Design
// Note "Backend registration").
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Open builds the named backend against location.
func Open(name, location string) (FeatureBackend, error) {
	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, apperr.New(apperr.ArgumentError, "unknown feature backend %q", name)
	}
	return ctor(location)
}
