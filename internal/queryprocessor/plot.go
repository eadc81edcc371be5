package queryprocessor

import (
	"math"
	"sort"

	"github.com/mappingcore/geodb/internal/raster"
)

// Histogram is the numeric-summary PLOT result supplemented from
// original_source/src/datatypes/plots/histogram.cpp and statistics.cpp:
// a fixed-width-bucket histogram plus the usual descriptive statistics.
// Rendering the histogram to an image stays out of scope (spec.md
// Non-goals: "does not render images"); only this structure is computed.
type Histogram struct {
	Min, Max   float64
	Mean       float64
	StdDev     float64
	Count      int
	BucketEdges []float64
	BucketCount []int64
}

// ComputeHistogram builds a Histogram over a raster pixel buffer, ignoring
// no-data pixels, using numBuckets equal-width buckets spanned by the
// channel's declared [min,max].
func ComputeHistogram(data []byte, et raster.ElementType, dd raster.DataDescription, numBuckets int) Histogram {
	if numBuckets < 1 {
		numBuckets = 1
	}
	h := Histogram{
		Min:         dd.Min,
		Max:         dd.Max,
		BucketEdges: make([]float64, numBuckets+1),
		BucketCount: make([]int64, numBuckets),
	}
	span := dd.Max - dd.Min
	for i := 0; i <= numBuckets; i++ {
		h.BucketEdges[i] = dd.Min + span*float64(i)/float64(numBuckets)
	}

	n := len(data) / et.ByteSize()

	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := raster.GetFloat64(data, i, et)
		if dd.IsNoData(v) {
			continue
		}
		h.Count++
		sum += v
		sumSq += v * v

		bucket := 0
		if span > 0 {
			bucket = int((v - dd.Min) / span * float64(numBuckets))
		}
		if bucket < 0 {
			bucket = 0
		}
		if bucket >= numBuckets {
			bucket = numBuckets - 1
		}
		h.BucketCount[bucket]++
	}

	if h.Count > 0 {
		h.Mean = sum / float64(h.Count)
		variance := sumSq/float64(h.Count) - h.Mean*h.Mean
		if variance < 0 {
			variance = 0
		}
		h.StdDev = math.Sqrt(variance)
	}
	return h
}

// ComputeAttributeHistogram builds a Histogram over a numeric feature
// attribute column rather than a raster pixel buffer.
func ComputeAttributeHistogram(values []float64, numBuckets int) Histogram {
	if len(values) == 0 {
		return Histogram{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	minV, maxV := sorted[0], sorted[len(sorted)-1]

	dd, _ := raster.NewDataDescription(raster.F64, minV, maxV, false, 0)
	buf := make([]byte, len(values)*raster.F64.ByteSize())
	for i, v := range values {
		raster.PutFloat64(buf, i, raster.F64, v)
	}
	return ComputeHistogram(buf, raster.F64, dd, numBuckets)
}
