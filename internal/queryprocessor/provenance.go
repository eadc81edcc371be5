package queryprocessor

import "sync"

// ProvenanceEntry records one raster or feature fetch contributing to a
// query result, supplemented from the source-tracking alluded to by
// QueryProcessor::process(..., includeProvenance) in original_source.
type ProvenanceEntry struct {
	SourceID   string
	SourceType string // "raster" or "feature"
	Metadata   map[string]string
}

// Provenance accumulates entries across the lifetime of one Process call.
// Safe for concurrent append from operators running in parallel subgraphs.
type Provenance struct {
	mu      sync.Mutex
	entries []ProvenanceEntry
}

// NewProvenance returns an empty collector.
func NewProvenance() *Provenance {
	return &Provenance{}
}

// Add appends an entry.
func (p *Provenance) Add(sourceID, sourceType string, metadata map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, ProvenanceEntry{SourceID: sourceID, SourceType: sourceType, Metadata: metadata})
}

// Entries returns a snapshot of the accumulated entries.
func (p *Provenance) Entries() []ProvenanceEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ProvenanceEntry, len(p.entries))
	copy(out, p.entries)
	return out
}
