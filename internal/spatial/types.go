// Package spatial holds the spatio-temporal primitives shared by the
// raster and feature stores (§3.1).
package spatial

import "math"

// CrsId identifies a coordinate reference system by authority + code
// (e.g. EPSG:4326). Equality is by value.
type CrsId struct {
	Authority string
	Code      int
}

func (c CrsId) Equal(o CrsId) bool {
	return c.Authority == o.Authority && c.Code == o.Code
}

func (c CrsId) String() string {
	return c.Authority + ":" + itoa(c.Code)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// EPSG4326 is the WGS84 geographic CRS, used throughout the test suite.
var EPSG4326 = CrsId{Authority: "EPSG", Code: 4326}

// EPSG3857 is Web Mercator.
var EPSG3857 = CrsId{Authority: "EPSG", Code: 3857}

// SpatialRect is an axis-aligned spatial window with x1<=x2, y1<=y2 (§3.1).
// Flip flags are derived per-CRS by callers that know the CRS's native axis
// order (e.g. north-up vs south-up rasters); SpatialRect itself stores only
// the normalized extent.
type SpatialRect struct {
	X1, Y1, X2, Y2 float64
	Crs            CrsId
}

// NewSpatialRect normalizes the corners so that X1<=X2 and Y1<=Y2.
func NewSpatialRect(x1, y1, x2, y2 float64, crs CrsId) SpatialRect {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return SpatialRect{X1: x1, Y1: y1, X2: x2, Y2: y2, Crs: crs}
}

func (r SpatialRect) Width() float64  { return r.X2 - r.X1 }
func (r SpatialRect) Height() float64 { return r.Y2 - r.Y1 }

// Intersects reports whether two rects in the same CRS overlap.
func (r SpatialRect) Intersects(o SpatialRect) bool {
	if !r.Crs.Equal(o.Crs) {
		return false
	}
	return r.X1 <= o.X2 && r.X2 >= o.X1 && r.Y1 <= o.Y2 && r.Y2 >= o.Y1
}

// TemporalRef tags whether a time value is meaningful unix time or
// unreferenced (e.g. a single static raster with no temporal axis).
type TemporalRef int

const (
	Unreferenced TemporalRef = iota
	Unix
)

// TimeInterval is a closed unix-second interval, t1<=t2 (§3.1).
type TimeInterval struct {
	T1, T2 float64
	Ref    TemporalRef
}

// NewTimeInterval normalizes t1<=t2.
func NewTimeInterval(t1, t2 float64, ref TemporalRef) TimeInterval {
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return TimeInterval{T1: t1, T2: t2, Ref: ref}
}

// Overlaps reports whether two intervals share at least one instant.
func (t TimeInterval) Overlaps(o TimeInterval) bool {
	return t.T1 <= o.T2 && t.T2 >= o.T1
}

// Contains reports whether t falls within [T1,T2] inclusive.
func (t TimeInterval) Contains(at float64) bool {
	return at >= t.T1 && at <= t.T2
}

// Length returns T2-T1.
func (t TimeInterval) Length() float64 {
	return t.T2 - t.T1
}

// QueryResolution is either absent (native resolution) or a target pixel
// size for the returned raster.
type QueryResolution struct {
	HasResolution bool
	XRes, YRes    float64
}

// NoResolution requests the dataset's native resolution.
var NoResolution = QueryResolution{}

// PixelResolution builds a resolution request (§3.1 "pixels{xres,yres}").
func PixelResolution(xres, yres float64) QueryResolution {
	return QueryResolution{HasResolution: true, XRes: xres, YRes: yres}
}

// QueryRect is the spatio-temporal window a query is evaluated against
// (§3.1, GLOSSARY "Query rectangle").
type QueryRect struct {
	Rect       SpatialRect
	Temporal   TimeInterval
	Resolution QueryResolution
}

// T1 is a convenience accessor for Temporal.T1.
func (q QueryRect) T1() float64 { return q.Temporal.T1 }

// approxEqual reports whether a and b lie within an absolute or relative
// tolerance of each other. GridCrs equality uses its own comparison.
func approxEqual(a, b, absTol, relTol float64) bool {
	if math.Abs(a-b) <= absTol {
		return true
	}
	if b == 0 {
		return a == 0
	}
	return math.Abs(a/b-1.0) <= relTol
}
