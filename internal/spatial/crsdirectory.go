package spatial

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/log"
)

// CrsDirectory is the supplemented CrsId -> WKT mapping (SPEC_FULL §4):
// the original exposes EPSG lookups via GDAL's embedded database; this
// engine instead loads an explicit flat file so the query processor and
// importer never depend on a system GDAL install for CRS metadata alone.
//
// File format, one entry per line:
//
//	AUTHORITY:CODE<TAB>WKT string
//
// Blank lines and lines starting with '#' are ignored.
type CrsDirectory struct {
	mu  sync.RWMutex
	wkt map[CrsId]string
}

// NewCrsDirectory returns an empty directory. Load populates it.
func NewCrsDirectory() *CrsDirectory {
	return &CrsDirectory{wkt: make(map[CrsId]string)}
}

// Load reads entries from path, replacing the directory's contents.
func (d *CrsDirectory) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperr.Wrap(apperr.ConfigError, err, "crs directory: open %s", path)
	}
	defer f.Close()

	entries := make(map[CrsId]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			log.L().Warnf("crs directory: %s:%d malformed, skipping", path, lineNo)
			continue
		}
		id, err := parseCrsId(line[:tab])
		if err != nil {
			log.L().Warnf("crs directory: %s:%d %v, skipping", path, lineNo, err)
			continue
		}
		entries[id] = strings.TrimSpace(line[tab+1:])
	}
	if err := scanner.Err(); err != nil {
		return apperr.Wrap(apperr.ConfigError, err, "crs directory: read %s", path)
	}

	d.mu.Lock()
	d.wkt = entries
	d.mu.Unlock()
	return nil
}

// Lookup returns the WKT string registered for id, if any.
func (d *CrsDirectory) Lookup(id CrsId) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	wkt, ok := d.wkt[id]
	return wkt, ok
}

// Put registers or overwrites an entry, used by tests and by importers that
// discover a CRS not yet present in the on-disk directory.
func (d *CrsDirectory) Put(id CrsId, wkt string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wkt[id] = wkt
}

// ParseCrsString parses an "AUTHORITY:CODE" identifier such as "EPSG:4326"
// (the form GDAL's from_srs_string accepts for EPSG codes).
func ParseCrsString(s string) (CrsId, error) {
	return parseCrsId(s)
}

func parseCrsId(s string) (CrsId, error) {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return CrsId{}, apperr.New(apperr.ArgumentError, "crs id %q missing ':'", s)
	}
	code, err := strconv.Atoi(strings.TrimSpace(s[colon+1:]))
	if err != nil {
		return CrsId{}, apperr.Wrap(apperr.ArgumentError, err, "crs id %q code", s)
	}
	return CrsId{Authority: strings.TrimSpace(s[:colon]), Code: code}, nil
}
