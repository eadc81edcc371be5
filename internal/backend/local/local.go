// Package local implements internal/backend.RasterBackend on top of a
// single-file DuckDB database: one table for raster metadata, one for tile
// payloads, mirroring the driver usage of catalog_db.go but retargeted
// from a read-only vector catalog to a writable raster/tile index.
package local

import (
	"database/sql"
	"encoding/json"
	"math"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/mappingcore/geodb/internal/apperr"
	"github.com/mappingcore/geodb/internal/backend"
	"github.com/mappingcore/geodb/internal/log"
	"github.com/mappingcore/geodb/internal/raster"
)

// Name is the registry key this backend should be installed under by
// callers (cmd/rasterimport, cmd/geoquery) via backend.Register(Name, Open)
// at program startup — not via an init()-time side effect (Design Note
// "Backend registration").
const Name = "local"

// Backend is the local DuckDB-indexed raster backend.
type Backend struct {
	db       *sql.DB
	mu       sync.Mutex
	datasetJSON []byte
}

// Open creates the schema (if absent) and returns a ready Backend.
func Open(cfg backend.Config) (backend.RasterBackend, error) {
	if cfg.Location == "" {
		return nil, apperr.New(apperr.ConfigError, "local raster backend: empty location")
	}
	db, err := sql.Open("duckdb", cfg.Location)
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendError, err, "local raster backend: open %s", cfg.Location)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		return nil, apperr.Wrap(apperr.BackendError, err, "local raster backend: ping %s", cfg.Location)
	}

	b := &Backend{db: db}
	if err := b.migrate(); err != nil {
		return nil, err
	}

	dj, err := json.Marshal(descriptorView{Coords: coordsView(cfg), Channels: channelsView(cfg.Channels)})
	if err != nil {
		return nil, apperr.Wrap(apperr.MustNotHappen, err, "local raster backend: marshal descriptor")
	}
	b.datasetJSON = dj

	log.L().Infof("local raster backend ready: %s", cfg.Location)
	return b, nil
}

func (b *Backend) migrate() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS rasterid_seq START 1`,
		`CREATE TABLE IF NOT EXISTS rasters (
			rasterid BIGINT,
			channel INTEGER,
			time_start DOUBLE,
			time_end DOUBLE,
			attr_string VARCHAR,
			attr_numeric VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS tiles (
			rasterid BIGINT,
			zoom INTEGER,
			x BIGINT, y BIGINT, z BIGINT,
			width INTEGER, height INTEGER, depth INTEGER,
			compression UTINYINT,
			payload BLOB,
			PRIMARY KEY (rasterid, zoom, x, y, z)
		)`,
	}
	for _, s := range stmts {
		if _, err := b.db.Exec(s); err != nil {
			return apperr.Wrap(apperr.BackendError, err, "local raster backend: migrate")
		}
	}
	return nil
}

type descriptorView struct {
	Coords   coordsJSON            `json:"coords"`
	Channels []channelDescription  `json:"channels"`
}

type coordsJSON struct {
	EPSG   int        `json:"epsg"`
	Size   [2]int     `json:"size"`
	Origin [2]float64 `json:"origin"`
	Scale  [2]float64 `json:"scale"`
}

type channelDescription struct {
	Datatype string   `json:"datatype"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	NoData   *float64 `json:"nodata,omitempty"`
}

func coordsView(cfg backend.Config) coordsJSON {
	return coordsJSON{
		EPSG:   cfg.Grid.Crs.Code,
		Size:   [2]int{cfg.Grid.Width, cfg.Grid.Height},
		Origin: [2]float64{cfg.Grid.OriginX, cfg.Grid.OriginY},
		Scale:  [2]float64{cfg.Grid.PixelScaleX, cfg.Grid.PixelScaleY},
	}
}

func channelsView(channels []raster.RasterChannel) []channelDescription {
	out := make([]channelDescription, len(channels))
	for i, c := range channels {
		cd := channelDescription{Min: c.Data.Min, Max: c.Data.Max}
		switch c.Data.Datatype {
		case raster.U8:
			cd.Datatype = "Byte"
		case raster.U16:
			cd.Datatype = "UInt16"
		case raster.I16:
			cd.Datatype = "Int16"
		case raster.U32:
			cd.Datatype = "UInt32"
		case raster.I32:
			cd.Datatype = "Int32"
		case raster.F32:
			cd.Datatype = "Float32"
		case raster.F64:
			cd.Datatype = "Float64"
		}
		if c.Data.HasNoData {
			nd := c.Data.NoDataValue
			cd.NoData = &nd
		}
		out[i] = cd
	}
	return out
}

// ReadJSON returns the descriptor rebuilt from the Config the backend was
// opened with: coords plus each channel's datatype, min, max and nodata.
// Channel transforms are not included.
func (b *Backend) ReadJSON() ([]byte, error) {
	return b.datasetJSON, nil
}

func (b *Backend) CreateRaster(channel int, timeStart, timeEnd float64, attrString map[string]string, attrNumeric map[string]float64) (int64, error) {
	as, err := json.Marshal(attrString)
	if err != nil {
		return 0, apperr.Wrap(apperr.MustNotHappen, err, "create raster: marshal attr_string")
	}
	an, err := json.Marshal(attrNumeric)
	if err != nil {
		return 0, apperr.Wrap(apperr.MustNotHappen, err, "create raster: marshal attr_numeric")
	}

	var rasterID int64
	row := b.db.QueryRow(`SELECT nextval('rasterid_seq')`)
	if err := row.Scan(&rasterID); err != nil {
		return 0, apperr.Wrap(apperr.BackendError, err, "create raster: allocate id")
	}

	_, err = b.db.Exec(
		`INSERT INTO rasters (rasterid, channel, time_start, time_end, attr_string, attr_numeric) VALUES (?,?,?,?,?,?)`,
		rasterID, channel, timeStart, timeEnd, string(as), string(an),
	)
	if err != nil {
		return 0, apperr.Wrap(apperr.BackendError, err, "create raster: insert")
	}
	return rasterID, nil
}

func (b *Backend) LinkRaster(rasterID int64, channel int, timeStart, timeEnd float64) error {
	_, attrS, attrN, err := b.readRasterRow(rasterID)
	if err != nil {
		return err
	}
	as, _ := json.Marshal(attrS)
	an, _ := json.Marshal(attrN)
	_, err = b.db.Exec(
		`INSERT INTO rasters (rasterid, channel, time_start, time_end, attr_string, attr_numeric) VALUES (?,?,?,?,?,?)`,
		rasterID, channel, timeStart, timeEnd, string(as), string(an),
	)
	if err != nil {
		return apperr.Wrap(apperr.BackendError, err, "link raster")
	}
	return nil
}

func (b *Backend) readRasterRow(rasterID int64) (channel int, attrString map[string]string, attrNumeric map[string]float64, err error) {
	var as, an string
	row := b.db.QueryRow(`SELECT channel, attr_string, attr_numeric FROM rasters WHERE rasterid = ? LIMIT 1`, rasterID)
	if scanErr := row.Scan(&channel, &as, &an); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return 0, nil, nil, apperr.New(apperr.NoRasterForGivenTime, "raster %d not found", rasterID)
		}
		return 0, nil, nil, apperr.Wrap(apperr.BackendError, scanErr, "read raster %d", rasterID)
	}
	attrString = map[string]string{}
	attrNumeric = map[string]float64{}
	_ = json.Unmarshal([]byte(as), &attrString)
	_ = json.Unmarshal([]byte(an), &attrNumeric)
	return channel, attrString, attrNumeric, nil
}

func (b *Backend) HasTile(rasterID int64, zoom int, x, y, z int64) (bool, error) {
	var n int
	row := b.db.QueryRow(
		`SELECT count(*) FROM tiles WHERE rasterid=? AND zoom=? AND x=? AND y=? AND z=?`,
		rasterID, zoom, x, y, z,
	)
	if err := row.Scan(&n); err != nil {
		return false, apperr.Wrap(apperr.BackendError, err, "has tile")
	}
	return n > 0, nil
}

func (b *Backend) WriteTile(t raster.Tile) error {
	_, err := b.db.Exec(
		`INSERT OR REPLACE INTO tiles (rasterid, zoom, x, y, z, width, height, depth, compression, payload)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.RasterID, t.Zoom, t.X, t.Y, t.Z, t.Width, t.Height, t.Depth, t.Compression, t.Payload,
	)
	if err != nil {
		return apperr.Wrap(apperr.BackendError, err, "write tile")
	}
	return nil
}

func (b *Backend) ClosestRaster(channel int, wantedTime float64) (raster.Raster, error) {
	rows, err := b.db.Query(
		`SELECT rasterid, time_start, time_end, attr_string, attr_numeric FROM rasters WHERE channel = ?`,
		channel,
	)
	if err != nil {
		return raster.Raster{}, apperr.Wrap(apperr.BackendError, err, "closest raster: query")
	}
	defer rows.Close()

	var best raster.Raster
	bestLength := math.Inf(1)
	bestDist := math.Inf(1)
	found := false

	for rows.Next() {
		var id int64
		var t1, t2 float64
		var as, an string
		if err := rows.Scan(&id, &t1, &t2, &as, &an); err != nil {
			return raster.Raster{}, apperr.Wrap(apperr.BackendError, err, "closest raster: scan")
		}
		var dist float64
		switch {
		case wantedTime < t1:
			dist = t1 - wantedTime
		case wantedTime > t2:
			dist = wantedTime - t2
		default:
			dist = 0
		}
		length := t2 - t1

		better := false
		switch {
		case !found:
			better = true
		case dist < bestDist:
			better = true
		case dist == bestDist && length < bestLength:
			better = true
		case dist == bestDist && length == bestLength && id < best.RasterID:
			better = true
		}
		if better {
			attrString := map[string]string{}
			attrNumeric := map[string]float64{}
			_ = json.Unmarshal([]byte(as), &attrString)
			_ = json.Unmarshal([]byte(an), &attrNumeric)
			best = raster.Raster{
				RasterID: id, ChannelIndex: channel,
				TimeStart: t1, TimeEnd: t2,
				AttrString: attrString, AttrNumeric: attrNumeric,
			}
			bestDist = dist
			bestLength = length
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return raster.Raster{}, apperr.Wrap(apperr.BackendError, err, "closest raster: rows")
	}
	if !found {
		return raster.Raster{}, apperr.New(apperr.NoRasterForGivenTime, "no raster on channel %d covers time %v", channel, wantedTime)
	}
	return best, nil
}

func (b *Backend) BestZoom(rasterID int64, desiredZoom int) (int, error) {
	row := b.db.QueryRow(`SELECT max(zoom) FROM tiles WHERE rasterid = ?`, rasterID)
	var maxZoom sql.NullInt64
	if err := row.Scan(&maxZoom); err != nil {
		return 0, apperr.Wrap(apperr.BackendError, err, "best zoom")
	}
	if !maxZoom.Valid {
		return 0, apperr.New(apperr.NoTiles, "raster %d has no tiles", rasterID)
	}
	if desiredZoom < 0 {
		desiredZoom = 0
	}
	if int64(desiredZoom) > maxZoom.Int64 {
		return int(maxZoom.Int64), nil
	}
	return desiredZoom, nil
}

func (b *Backend) EnumerateTiles(rasterID int64, zoom int, x0, y0, x1, y1 int64) ([]raster.Tile, error) {
	rows, err := b.db.Query(
		`SELECT x, y, z, width, height, depth, compression, payload FROM tiles
		 WHERE rasterid=? AND zoom=? AND x < ? AND y < ?`,
		rasterID, zoom, x1, y1,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.BackendError, err, "enumerate tiles")
	}
	defer rows.Close()

	var out []raster.Tile
	for rows.Next() {
		var t raster.Tile
		t.RasterID = rasterID
		t.Zoom = zoom
		if err := rows.Scan(&t.X, &t.Y, &t.Z, &t.Width, &t.Height, &t.Depth, &t.Compression, &t.Payload); err != nil {
			return nil, apperr.Wrap(apperr.BackendError, err, "enumerate tiles: scan")
		}
		// Width/Height are in this zoom's pixels; X/Y are zoom-0 pixels.
		if t.X+(int64(t.Width)<<uint(zoom)) <= x0 || t.Y+(int64(t.Height)<<uint(zoom)) <= y0 {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (b *Backend) ReadTile(rasterID int64, zoom int, x, y, z int64) (raster.Tile, error) {
	row := b.db.QueryRow(
		`SELECT width, height, depth, compression, payload FROM tiles WHERE rasterid=? AND zoom=? AND x=? AND y=? AND z=?`,
		rasterID, zoom, x, y, z,
	)
	t := raster.Tile{RasterID: rasterID, Zoom: zoom, X: x, Y: y, Z: z}
	if err := row.Scan(&t.Width, &t.Height, &t.Depth, &t.Compression, &t.Payload); err != nil {
		if err == sql.ErrNoRows {
			return raster.Tile{}, apperr.New(apperr.NoTiles, "no tile at zoom %d (%d,%d,%d)", zoom, x, y, z)
		}
		return raster.Tile{}, apperr.Wrap(apperr.BackendError, err, "read tile")
	}
	return t, nil
}

func (b *Backend) ReadAttributes(rasterID int64) (map[string]string, map[string]float64, error) {
	_, attrString, attrNumeric, err := b.readRasterRow(rasterID)
	if err != nil {
		return nil, nil, err
	}
	return attrString, attrNumeric, nil
}

// Close releases the underlying DuckDB connection. Not part of the
// RasterBackend interface; callers that own the concrete type may defer it.
func (b *Backend) Close() error {
	return b.db.Close()
}
