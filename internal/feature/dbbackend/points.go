package dbbackend

import (
	"database/sql"
	"fmt"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/feature"
	"github.com/mappingcore/geodb/internal/spatial"
)

func (b *Backend) CreatePoints(owner, name string, crs spatial.CrsId, numeric, textual []feature.AttrDescriptor, hasTime bool, features []feature.Point) (int64, error) {
	cols := "x DOUBLE, y DOUBLE"
	if hasTime {
		cols += ", time_start DOUBLE, time_end DOUBLE"
	}
	if attrCols := attrColumnsSQL(numeric, textual); attrCols != "" {
		cols += ", " + attrCols
	}

	id, err := b.createDataset(owner, name, feature.Points, crs, numeric, textual, hasTime, cols)
	if err != nil {
		return 0, err
	}

	for i, f := range features {
		if err := b.insertPoint(id, int64(i), f, len(numeric), len(textual), hasTime); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (b *Backend) insertPoint(datasetID, index int64, f feature.Point, numN, numT int, hasTime bool) error {
	cols := []string{"feature_index", "x", "y"}
	vals := []any{index, f.X, f.Y}
	if hasTime {
		cols = append(cols, "time_start", "time_end")
		if f.TimeInterval != nil {
			vals = append(vals, f.TimeInterval.T1, f.TimeInterval.T2)
		} else {
			vals = append(vals, nil, nil)
		}
	}
	for i := 0; i < numN; i++ {
		cols = append(cols, fmt.Sprintf("numeric_%d", i))
		vals = append(vals, valueOrNil(f.Numeric, i))
	}
	for i := 0; i < numT; i++ {
		cols = append(cols, fmt.Sprintf("textual_%d", i))
		vals = append(vals, textOrNil(f.Textual, i))
	}
	return b.insertRow(datasetID, cols, vals)
}

func (b *Backend) insertRow(datasetID int64, cols []string, vals []any) error {
	placeholders := make([]string, len(vals))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName(datasetID), joinComma(cols), joinComma(placeholders))
	if _, err := b.db.Exec(stmt, vals...); err != nil {
		return apperr.Wrap(apperr.BackendError, err, "insert feature")
	}
	return nil
}

func valueOrNil(vs []float64, i int) any {
	if i >= len(vs) {
		return nil
	}
	return vs[i]
}

func textOrNil(vs []string, i int) any {
	if i >= len(vs) {
		return nil
	}
	return vs[i]
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

func (b *Backend) LoadPoints(datasetID int64, q feature.LoadQuery) ([]feature.Point, error) {
	meta, err := b.LoadMetadataByID(datasetID)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT feature_index, x, y%s%s FROM %s WHERE x >= ? AND x <= ? AND y >= ? AND y <= ?",
		timeColumnsSelect(meta.HasTime), attrColumnsSelect(meta), tableName(datasetID))
	args := []any{q.Envelope.X1, q.Envelope.X2, q.Envelope.Y1, q.Envelope.Y2}
	if meta.HasTime && q.Temporal != nil {
		query += " AND time_start <= ? AND time_end >= ?"
		args = append(args, q.Temporal.T2, q.Temporal.T1)
	}
	query += " ORDER BY feature_index"

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendError, err, "load points")
	}
	defer rows.Close()

	var out []feature.Point
	for rows.Next() {
		p, err := scanPoint(rows, meta)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPoint(rows *sql.Rows, meta feature.DataSetMetaData) (feature.Point, error) {
	var idx int64
	var p feature.Point
	dest := []any{&idx, &p.X, &p.Y}

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
		return feature.Point{}, apperr.Wrap(apperr.BackendError, err, "scan point")
	}

	if meta.HasTime && t1.Valid && t2.Valid {
		ti := spatial.NewTimeInterval(t1.Float64, t2.Float64, spatial.Unix)
		p.TimeInterval = &ti
	}
	p.Numeric = make([]float64, len(numVals))
	for i, v := range numVals {
		p.Numeric[i] = v.Float64
	}
	p.Textual = make([]string, len(textVals))
	for i, v := range textVals {
		p.Textual[i] = v.String
	}
	return p, nil
}

func timeColumnsSelect(hasTime bool) string {
	if hasTime {
		return ", time_start, time_end"
	}
	return ""
}

func attrColumnsSelect(meta feature.DataSetMetaData) string {
	out := ""
	for i := range meta.NumericAttrs {
		out += fmt.Sprintf(", numeric_%d", i)
	}
	for i := range meta.TextualAttrs {
		out += fmt.Sprintf(", textual_%d", i)
	}
	return out
}
