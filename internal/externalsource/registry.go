package externalsource

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/log"
)

// Registry indexes the descriptor JSON files found under a directory
// (gdalsource.datasets.path), keyed by the descriptor's base file name
// without extension, mirroring the original's directory-of-datasets layout.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Descriptor
}

// NewRegistry returns an empty registry. Scan populates it.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Descriptor)}
}

// Scan (re)reads every *.json file directly under dir, replacing the
// registry's contents. A descriptor that fails to parse is logged and
// skipped rather than aborting the whole scan, so one bad file does not
// take every other dataset offline.
func (r *Registry) Scan(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return apperr.Wrap(apperr.ConfigError, err, "external source registry: read %s", dir)
	}

	found := make(map[string]*Descriptor)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.L().Warnf("external source registry: read %s: %v, skipping", path, err)
			continue
		}
		desc, err := ParseDescriptor(data)
		if err != nil {
			log.L().Warnf("external source registry: parse %s: %v, skipping", path, err)
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		found[id] = desc
	}

	r.mu.Lock()
	r.byID = found
	r.mu.Unlock()
	return nil
}

// Lookup returns the descriptor registered under id, if any.
func (r *Registry) Lookup(id string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// IDs returns the currently registered descriptor ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}
