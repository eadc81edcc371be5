package queryprocessor

import (
	"testing"

	"github.com/mappingcore/geodb/internal/raster"
)

func TestComputeHistogramIgnoresNoData(t *testing.T) {
	dd, err := raster.NewDataDescription(raster.U8, 0, 10, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Values 0 (no-data, excluded), 2, 4, 6, 8, 10.
	data := []byte{0, 2, 4, 6, 8, 10}
	h := ComputeHistogram(data, raster.U8, dd, 5)

	if h.Count != 5 {
		t.Fatalf("expected 5 counted pixels (no-data excluded), got %d", h.Count)
	}
	wantMean := (2.0 + 4 + 6 + 8 + 10) / 5.0
	if h.Mean != wantMean {
		t.Fatalf("Mean = %v, want %v", h.Mean, wantMean)
	}

	var total int64
	for _, c := range h.BucketCount {
		total += c
	}
	if total != int64(h.Count) {
		t.Fatalf("bucket counts sum to %d, want %d", total, h.Count)
	}
}

func TestComputeAttributeHistogramSingleValue(t *testing.T) {
	h := ComputeAttributeHistogram([]float64{5, 5, 5}, 4)
	if h.Count != 3 {
		t.Fatalf("expected 3 values, got %d", h.Count)
	}
	if h.Mean != 5 {
		t.Fatalf("Mean = %v, want 5", h.Mean)
	}
}
