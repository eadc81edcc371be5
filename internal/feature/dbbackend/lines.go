package dbbackend

import (
	"database/sql"
	"fmt"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/feature"
	"github.com/mappingcore/geodb/internal/spatial"
)

func (b *Backend) CreateLines(owner, name string, crs spatial.CrsId, numeric, textual []feature.AttrDescriptor, hasTime bool, features []feature.Line) (int64, error) {
	cols := "geom_wkt VARCHAR, bbox_minx DOUBLE, bbox_miny DOUBLE, bbox_maxx DOUBLE, bbox_maxy DOUBLE"
	if hasTime {
		cols += ", time_start DOUBLE, time_end DOUBLE"
	}
	if attrCols := attrColumnsSQL(numeric, textual); attrCols != "" {
		cols += ", " + attrCols
	}

	id, err := b.createDataset(owner, name, feature.Lines, crs, numeric, textual, hasTime, cols)
	if err != nil {
		return 0, err
	}

	for i, f := range features {
		bb := bboxOf(f.Vertices)
		cols := []string{"feature_index", "geom_wkt", "bbox_minx", "bbox_miny", "bbox_maxx", "bbox_maxy"}
		vals := []any{int64(i), lineWKT(f.Vertices), bb.minX, bb.minY, bb.maxX, bb.maxY}
		if hasTime {
			cols = append(cols, "time_start", "time_end")
			if f.TimeInterval != nil {
				vals = append(vals, f.TimeInterval.T1, f.TimeInterval.T2)
			} else {
				vals = append(vals, nil, nil)
			}
		}
		for k := 0; k < len(numeric); k++ {
			cols = append(cols, fmt.Sprintf("numeric_%d", k))
			vals = append(vals, valueOrNil(f.Numeric, k))
		}
		for k := 0; k < len(textual); k++ {
			cols = append(cols, fmt.Sprintf("textual_%d", k))
			vals = append(vals, textOrNil(f.Textual, k))
		}
		if err := b.insertRow(id, cols, vals); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (b *Backend) LoadLines(datasetID int64, q feature.LoadQuery) ([]feature.Line, error) {
	meta, err := b.LoadMetadataByID(datasetID)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT feature_index, geom_wkt%s%s FROM %s WHERE %s",
		timeColumnsSelect(meta.HasTime), attrColumnsSelect(meta), tableName(datasetID), envelopePredicateSQL)
	args := []any{q.Envelope.X2, q.Envelope.X1, q.Envelope.Y2, q.Envelope.Y1}
	if meta.HasTime && q.Temporal != nil {
		query += " AND time_start <= ? AND time_end >= ?"
		args = append(args, q.Temporal.T2, q.Temporal.T1)
	}
	query += " ORDER BY feature_index"

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendError, err, "load lines")
	}
	defer rows.Close()

	var out []feature.Line
	for rows.Next() {
		l, err := scanLine(rows, meta)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLine(rows *sql.Rows, meta feature.DataSetMetaData) (feature.Line, error) {
	var idx int64
	var wkt string
	dest := []any{&idx, &wkt}

	var t1, t2 sql.NullFloat64
	if meta.HasTime {
		dest = append(dest, &t1, &t2)
	}
	numVals := make([]sql.NullFloat64, len(meta.NumericAttrs))
	for i := range numVals {
		dest = append(dest, &numVals[i])
	}
	textVals := make([]sql.NullString, len(meta.TextualAttrs))
	for i := range textVals {
		dest = append(dest, &textVals[i])
	}

	if err := rows.Scan(dest...); err != nil {
		return feature.Line{}, apperr.Wrap(apperr.BackendError, err, "scan line")
	}

	vertices, err := parseLineWKT(wkt)
	if err != nil {
		return feature.Line{}, err
	}
	l := feature.Line{Vertices: vertices}
	if meta.HasTime && t1.Valid && t2.Valid {
		ti := spatial.NewTimeInterval(t1.Float64, t2.Float64, spatial.Unix)
		l.TimeInterval = &ti
	}
	l.Numeric = make([]float64, len(numVals))
	for i, v := range numVals {
		l.Numeric[i] = v.Float64
	}
	l.Textual = make([]string, len(textVals))
	for i, v := range textVals {
		l.Textual[i] = v.String
	}
	return l, nil
}
