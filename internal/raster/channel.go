package raster

// Transform rescales a decoded pixel value before it is returned to a
// caller, e.g. "digital number -> physical unit" (§3.2). OffsetFromAttr and
// ScaleFromAttr, when set, name a numeric attribute on the source Raster to
// read the offset/scale from instead of using the literal values; when the
// named attribute is absent on a given raster the literal Offset/Scale
// (defaulting to 0/1) are used instead (§8.3 boundary case).
type Transform struct {
	Datatype       ElementType
	Offset         float64
	Scale          float64
	OffsetFromAttr string
	ScaleFromAttr  string
}

// DefaultTransform is the identity transform (offset 0, scale 1).
func DefaultTransform(dt ElementType) Transform {
	return Transform{Datatype: dt, Offset: 0, Scale: 1}
}

// Resolve computes the effective offset/scale for a specific raster's
// numeric attribute map, falling back to the literal values when a named
// attribute is absent.
func (t Transform) Resolve(attrs map[string]float64) (offset, scale float64) {
	offset, scale = t.Offset, t.Scale
	if t.OffsetFromAttr != "" {
		if v, ok := attrs[t.OffsetFromAttr]; ok {
			offset = v
		}
	}
	if t.ScaleFromAttr != "" {
		if v, ok := attrs[t.ScaleFromAttr]; ok {
			scale = v
		}
	}
	return offset, scale
}

// RasterChannel describes one band of a raster dataset: its value range and
// an optional unit transform (§3.2).
type RasterChannel struct {
	Data      DataDescription
	Unit      string
	Transform *Transform
}
