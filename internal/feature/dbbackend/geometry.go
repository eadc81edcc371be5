package dbbackend

import (
	"math"
	"strconv"
	"strings"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/feature"
)

type bbox struct {
	minX, minY, maxX, maxY float64
}

func bboxOf(coords []feature.Coord) bbox {
	bb := bbox{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
	for _, c := range coords {
		bb.minX = math.Min(bb.minX, c.X)
		bb.minY = math.Min(bb.minY, c.Y)
		bb.maxX = math.Max(bb.maxX, c.X)
		bb.maxY = math.Max(bb.maxY, c.Y)
	}
	return bb
}

func lineWKT(vertices []feature.Coord) string {
	var sb strings.Builder
	sb.WriteString("LINESTRING(")
	for i, v := range vertices {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(v.X, 'g', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v.Y, 'g', -1, 64))
	}
	sb.WriteByte(')')
	return sb.String()
}

func polygonWKT(rings [][]feature.Coord) string {
	var sb strings.Builder
	sb.WriteString("POLYGON(")
	for ri, ring := range rings {
		if ri > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for i, v := range ring {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.FormatFloat(v.X, 'g', -1, 64))
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(v.Y, 'g', -1, 64))
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(')')
	return sb.String()
}

// parseLineWKT parses the LINESTRING(...) form produced by lineWKT.
func parseLineWKT(wkt string) ([]feature.Coord, error) {
	body, err := wktBody(wkt, "LINESTRING")
	if err != nil {
		return nil, err
	}
	return parseCoordList(body)
}

// parsePolygonWKT parses the POLYGON((...),(...)) form produced by polygonWKT.
func parsePolygonWKT(wkt string) ([][]feature.Coord, error) {
	body, err := wktBody(wkt, "POLYGON")
	if err != nil {
		return nil, err
	}
	var rings [][]feature.Coord
	for _, ringStr := range splitTopLevel(body) {
		ring, err := parseCoordList(strings.Trim(strings.TrimSpace(ringStr), "()"))
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

func wktBody(wkt, tag string) (string, error) {
	wkt = strings.TrimSpace(wkt)
	if !strings.HasPrefix(wkt, tag+"(") || !strings.HasSuffix(wkt, ")") {
		return "", apperr.New(apperr.MustNotHappen, "malformed %s wkt: %s", tag, wkt)
	}
	return wkt[len(tag)+1 : len(wkt)-1], nil
}

// splitTopLevel splits "(a,b),(c,d)" into ["(a,b)","(c,d)"] at paren depth 0.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func parseCoordList(s string) ([]feature.Coord, error) {
	var coords []feature.Coord
	for _, pair := range strings.Split(s, ",") {
		fields := strings.Fields(strings.TrimSpace(pair))
		if len(fields) != 2 {
			return nil, apperr.New(apperr.MustNotHappen, "malformed wkt coordinate pair: %q", pair)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, apperr.Wrap(apperr.MustNotHappen, err, "parse wkt x")
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, apperr.Wrap(apperr.MustNotHappen, err, "parse wkt y")
		}
		coords = append(coords, feature.Coord{X: x, Y: y})
	}
	return coords, nil
}

const envelopePredicateSQL = "bbox_minx <= ? AND bbox_maxx >= ? AND bbox_miny <= ? AND bbox_maxy >= ?"
