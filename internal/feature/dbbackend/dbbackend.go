// Package dbbackend is the reference FeatureBackend (§4.6): one "datasets"
// metadata table plus one "dataset_<id>" table per collection, on DuckDB,
// mirroring the connection setup and dynamic-column scanning of
// catalog_db.go retargeted from a read-only vector catalog to a writable
// feature store.
package dbbackend

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/samber/lo"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/feature"
	"github.com/mappingcore/geodb/internal/log"
	"github.com/mappingcore/geodb/internal/spatial"
)

// Name is the registry key this backend should be installed under by
// callers via feature.Register(Name, Open) at program startup.
const Name = "duckdb"

// Backend is the DuckDB-backed FeatureBackend.
type Backend struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates the "datasets" table (if absent) and returns a ready Backend.
func Open(location string) (feature.FeatureBackend, error) {
	if location == "" {
		return nil, apperr.New(apperr.ConfigError, "feature dbbackend: empty location")
	}
	db, err := sql.Open("duckdb", location)
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendError, err, "feature dbbackend: open %s", location)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		return nil, apperr.Wrap(apperr.BackendError, err, "feature dbbackend: ping %s", location)
	}

	b := &Backend{db: db}
	if err := b.migrate(); err != nil {
		return nil, err
	}
	log.L().Infof("feature dbbackend ready: %s", location)
	return b, nil
}

func (b *Backend) migrate() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS dataset_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS datasets (
			dataset_id BIGINT PRIMARY KEY,
			owner VARCHAR,
			name VARCHAR,
			kind VARCHAR,
			epsg INTEGER,
			has_time BOOLEAN,
			numeric_attributes VARCHAR,
			textual_attributes VARCHAR,
			UNIQUE (owner, name)
		)`,
	}
	for _, s := range stmts {
		if _, err := b.db.Exec(s); err != nil {
			return apperr.Wrap(apperr.BackendError, err, "feature dbbackend: migrate")
		}
	}
	return nil
}

func tableName(datasetID int64) string {
	return fmt.Sprintf("dataset_%d", datasetID)
}

type attrRef struct {
	Key  string `json:"key"`
	Unit string `json:"unit"`
}

func encodeAttrs(attrs []feature.AttrDescriptor) (string, error) {
	refs := lo.Map(attrs, func(a feature.AttrDescriptor, _ int) attrRef {
		return attrRef{Key: a.Key, Unit: a.Unit}
	})
	b, err := json.Marshal(refs)
	if err != nil {
		return "", apperr.Wrap(apperr.MustNotHappen, err, "feature dbbackend: marshal attrs")
	}
	return string(b), nil
}

func decodeAttrs(s string) []feature.AttrDescriptor {
	var refs []attrRef
	_ = json.Unmarshal([]byte(s), &refs)
	return lo.Map(refs, func(r attrRef, _ int) feature.AttrDescriptor {
		return feature.AttrDescriptor{Key: r.Key, Unit: r.Unit}
	})
}

func (b *Backend) LoadMetadataForUser(owner string) ([]feature.DataSetMetaData, error) {
	rows, err := b.db.Query(
		`SELECT dataset_id, owner, name, kind, epsg, has_time, numeric_attributes, textual_attributes
		 FROM datasets WHERE owner = ? ORDER BY name`, owner,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendError, err, "load metadata for user")
	}
	defer rows.Close()

	var out []feature.DataSetMetaData
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (b *Backend) LoadMetadata(owner, name string) (feature.DataSetMetaData, error) {
	row := b.db.QueryRow(
		`SELECT dataset_id, owner, name, kind, epsg, has_time, numeric_attributes, textual_attributes
		 FROM datasets WHERE owner = ? AND name = ?`, owner, name,
	)
	return scanMetaRow(row)
}

func (b *Backend) LoadMetadataByID(datasetID int64) (feature.DataSetMetaData, error) {
	row := b.db.QueryRow(
		`SELECT dataset_id, owner, name, kind, epsg, has_time, numeric_attributes, textual_attributes
		 FROM datasets WHERE dataset_id = ?`, datasetID,
	)
	return scanMetaRow(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(rs rowScanner) (feature.DataSetMetaData, error) {
	var id int64
	var owner, name, kind, numJSON, textJSON string
	var epsg int
	var hasTime bool
	if err := rs.Scan(&id, &owner, &name, &kind, &epsg, &hasTime, &numJSON, &textJSON); err != nil {
		return feature.DataSetMetaData{}, apperr.Wrap(apperr.BackendError, err, "scan dataset metadata")
	}
	k, err := feature.ParseKind(kind)
	if err != nil {
		return feature.DataSetMetaData{}, err
	}
	return feature.DataSetMetaData{
		DatasetID:    id,
		Owner:        owner,
		Name:         name,
		Kind:         k,
		NumericAttrs: decodeAttrs(numJSON),
		TextualAttrs: decodeAttrs(textJSON),
		HasTime:      hasTime,
		Crs:          spatial.CrsId{Authority: "EPSG", Code: epsg},
	}, nil
}

func scanMetaRow(row *sql.Row) (feature.DataSetMetaData, error) {
	m, err := scanMeta(row)
	if err != nil {
		if isNoRows(err) {
			return feature.DataSetMetaData{}, apperr.New(apperr.ArgumentError, "dataset not found")
		}
		return feature.DataSetMetaData{}, err
	}
	return m, nil
}

func isNoRows(err error) bool {
	ae, ok := err.(*apperr.Error)
	if !ok || ae.Cause == nil {
		return false
	}
	return ae.Cause == sql.ErrNoRows
}

func (b *Backend) createDataset(owner, name string, kind feature.Kind, crs spatial.CrsId, numeric, textual []feature.AttrDescriptor, hasTime bool, columnsSQL string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	numJSON, err := encodeAttrs(numeric)
	if err != nil {
		return 0, err
	}
	textJSON, err := encodeAttrs(textual)
	if err != nil {
		return 0, err
	}

	var id int64
	row := b.db.QueryRow(`SELECT nextval('dataset_id_seq')`)
	if err := row.Scan(&id); err != nil {
		return 0, apperr.Wrap(apperr.BackendError, err, "create dataset: allocate id")
	}

	_, err = b.db.Exec(
		`INSERT INTO datasets (dataset_id, owner, name, kind, epsg, has_time, numeric_attributes, textual_attributes)
		 VALUES (?,?,?,?,?,?,?,?)`,
		id, owner, name, kind.String(), crs.Code, hasTime, numJSON, textJSON,
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.BackendError, err, "create dataset: insert metadata")
	}

	ddl := fmt.Sprintf(`CREATE TABLE %s (feature_index BIGINT PRIMARY KEY, %s)`, tableName(id), columnsSQL)
	if _, err := b.db.Exec(ddl); err != nil {
		return 0, apperr.Wrap(apperr.BackendError, err, "create dataset: feature table")
	}
	return id, nil
}

func attrColumnsSQL(numeric, textual []feature.AttrDescriptor) string {
	var cols []string
	for i := range numeric {
		cols = append(cols, fmt.Sprintf("numeric_%d DOUBLE", i))
	}
	for i := range textual {
		cols = append(cols, fmt.Sprintf("textual_%d VARCHAR", i))
	}
	return strings.Join(cols, ", ")
}

func (b *Backend) Close() error {
	return b.db.Close()
}
