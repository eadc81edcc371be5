package queryprocessor

import (
	"sync"
	"testing"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/raster"
	"github.com/mappingcore/geodb/internal/rasterdb"
)

func TestHandleCacheReusesOpenHandle(t *testing.T) {
	opens := 0
	var mu sync.Mutex
	hc := NewHandleCache(func(name string) (*rasterdb.RasterDB, func() error, error) {
		mu.Lock()
		opens++
		mu.Unlock()
		return rasterdb.Open(name, nil, raster.GridCrs{}, nil, rasterdb.DefaultOptions()), nil, nil
	})

	db1, release1, err := hc.Acquire("ds1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	db2, release2, err := hc.Acquire("ds1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if db1 != db2 {
		t.Fatal("expected the same *RasterDB instance from repeated Acquire")
	}
	if opens != 1 {
		t.Fatalf("expected exactly 1 open call, got %d", opens)
	}

	release1()
	if hc.Len() != 1 {
		t.Fatalf("expected handle to survive while still referenced, got len %d", hc.Len())
	}
	release2()
	if hc.Len() != 0 {
		t.Fatalf("expected handle evicted once unreferenced, got len %d", hc.Len())
	}
}

func TestHandleCacheClosesOnFinalRelease(t *testing.T) {
	closed := 0
	hc := NewHandleCache(func(name string) (*rasterdb.RasterDB, func() error, error) {
		return rasterdb.Open(name, nil, raster.GridCrs{}, nil, rasterdb.DefaultOptions()),
			func() error { closed++; return nil }, nil
	})

	_, release, err := hc.Acquire("ds")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	release()
	if closed != 1 {
		t.Fatalf("expected closer called once, got %d", closed)
	}
}

func TestHandleCachePropagatesOpenError(t *testing.T) {
	wantErr := apperr.New(apperr.BackendError, "boom")
	hc := NewHandleCache(func(name string) (*rasterdb.RasterDB, func() error, error) {
		return nil, nil, wantErr
	})

	_, _, err := hc.Acquire("missing")
	if err != wantErr {
		t.Fatalf("expected propagated open error, got %v", err)
	}
}
