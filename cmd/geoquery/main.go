// Command geoquery evaluates a single-operator query graph against a
// RasterDB or FeatureCollectionDB store and prints the result as JSON.
package main

import (
	"encoding/base64"
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mappingcore/geodb/internal/backend"
	"github.com/mappingcore/geodb/internal/backend/local"
	"github.com/mappingcore/geodb/internal/codec"
	"github.com/mappingcore/geodb/internal/conf"
	"github.com/mappingcore/geodb/internal/feature"
	"github.com/mappingcore/geodb/internal/feature/dbbackend"
	"github.com/mappingcore/geodb/internal/log"
	"github.com/mappingcore/geodb/internal/queryprocessor"
	"github.com/mappingcore/geodb/internal/raster"
	"github.com/mappingcore/geodb/internal/rasterdb"
	"github.com/mappingcore/geodb/internal/spatial"
)

func main() {
	// Explicit registration at the process entry point, never via package
	// init() (Design Note "Backend registration").
	backend.Register(local.Name, local.Open)
	codec.RegisterDefaults()
	feature.Register(dbbackend.Name, dbbackend.Open)
	queryprocessor.RegisterDefaults()

	app := &cli.App{
		Name:  "geoquery",
		Usage: "evaluate a raster or feature query against a store and print the result as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file name"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "set logging level to TRACE"},
		},
		Before: func(c *cli.Context) error {
			if err := conf.InitConfig(c.String("config"), c.Bool("debug")); err != nil {
				return err
			}
			if c.Bool("debug") {
				if err := log.Init(log.Options{Level: "trace"}); err != nil {
					return err
				}
			}
			log.L().Infof("----  %s geoquery - Version %s ----------", conf.AppConfig.Name, conf.AppConfig.Version)
			return nil
		},
		Commands: []*cli.Command{
			rasterCommand(),
			featureCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.L().Fatalf("geoquery: %v", err)
	}
}

func commonBoundsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "store", Required: true, Usage: "path to the store file"},
		&cli.StringFlag{Name: "dataset", Required: true, Usage: "dataset/collection name"},
		&cli.Float64Flag{Name: "x1", Required: true, Usage: "query rectangle min x"},
		&cli.Float64Flag{Name: "y1", Required: true, Usage: "query rectangle min y"},
		&cli.Float64Flag{Name: "x2", Required: true, Usage: "query rectangle max x"},
		&cli.Float64Flag{Name: "y2", Required: true, Usage: "query rectangle max y"},
		&cli.Float64Flag{Name: "t1", Usage: "query time interval start (unix seconds)"},
		&cli.Float64Flag{Name: "t2", Usage: "query time interval end (unix seconds)"},
		&cli.IntFlag{Name: "epsg", Value: 4326, Usage: "EPSG code of the query rectangle"},
		&cli.BoolFlag{Name: "provenance", Usage: "include provenance entries in the output"},
	}
}

func queryRectFromContext(c *cli.Context) spatial.QueryRect {
	crs := spatial.CrsId{Authority: "EPSG", Code: c.Int("epsg")}
	return spatial.QueryRect{
		Rect:     spatial.NewSpatialRect(c.Float64("x1"), c.Float64("y1"), c.Float64("x2"), c.Float64("y2"), crs),
		Temporal: spatial.NewTimeInterval(c.Float64("t1"), c.Float64("t2"), spatial.Unix),
	}
}

func rasterCommand() *cli.Command {
	flags := append(commonBoundsFlags(),
		&cli.StringFlag{Name: "descriptor", Required: true, Usage: "path to the §6.1 dataset descriptor JSON file the store was created with"},
		&cli.IntFlag{Name: "channel", Usage: "channel index"},
		&cli.BoolFlag{Name: "transform", Usage: "apply the channel's declared transform to the result"},
	)
	return &cli.Command{
		Name:  "raster",
		Usage: "run a raster_query against a local RasterDB store",
		Flags: flags,
		Action: func(c *cli.Context) error {
			descBytes, err := os.ReadFile(c.String("descriptor"))
			if err != nil {
				return err
			}
			ds, err := raster.ParseDataset(descBytes)
			if err != nil {
				return err
			}

			store := c.String("store")
			be, err := backend.Open(local.Name, backend.Config{
				Name: local.Name, Location: store, Grid: ds.Grid, Channels: ds.Channels, Crs: ds.Grid.Crs,
			})
			if err != nil {
				return err
			}
			defer func() {
				if closer, ok := be.(interface{ Close() error }); ok {
					_ = closer.Close()
				}
			}()

			dataset := c.String("dataset")
			db := rasterdb.Open(dataset, be, ds.Grid, ds.Channels, rasterdb.DefaultOptions())
			hc := queryprocessor.NewHandleCache(func(name string) (*rasterdb.RasterDB, func() error, error) {
				return db, func() error { return nil }, nil
			})
			qp := &queryprocessor.QueryProcessor{Rasters: hc}

			params, _ := json.Marshal(queryprocessor.RasterQueryParams{
				Dataset: dataset, Channel: c.Int("channel"), Transform: c.Bool("transform"),
			})
			graph, _ := json.Marshal(queryprocessor.OperatorNode{Type: "raster_query", Params: params})

			result, err := qp.Process(queryprocessor.Query{
				OperatorGraph:     graph,
				ResultType:        queryprocessor.ResultRaster,
				Rect:              queryRectFromContext(c),
				IncludeProvenance: c.Bool("provenance"),
			})
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}
}

func featureCommand() *cli.Command {
	flags := append(commonBoundsFlags(),
		&cli.StringFlag{Name: "owner", Required: true, Usage: "collection owner"},
	)
	return &cli.Command{
		Name:  "feature",
		Usage: "run a feature_query against a FeatureCollectionDB store",
		Flags: flags,
		Action: func(c *cli.Context) error {
			fb, err := feature.Open(dbbackend.Name, c.String("store"))
			if err != nil {
				return err
			}
			defer fb.Close()

			qp := &queryprocessor.QueryProcessor{Features: fb}

			params, _ := json.Marshal(queryprocessor.FeatureQueryParams{Owner: c.String("owner"), Name: c.String("dataset")})
			graph, _ := json.Marshal(queryprocessor.OperatorNode{Type: "feature_query", Params: params})

			result, err := qp.Process(queryprocessor.Query{
				OperatorGraph:     graph,
				Rect:              queryRectFromContext(c),
				IncludeProvenance: c.Bool("provenance"),
			})
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}
}

// outputResult is the JSON-serializable view of a queryprocessor.QueryResult
// printed to stdout; raster pixel data is base64-encoded since it is binary.
type outputResult struct {
	Type       string                         `json:"type"`
	RasterData string                         `json:"raster_data,omitempty"`
	Grid       *raster.GridCrs                `json:"raster_grid,omitempty"`
	Points     []feature.Point                `json:"points,omitempty"`
	Lines      []feature.Line                 `json:"lines,omitempty"`
	Polygons   []feature.Polygon              `json:"polygons,omitempty"`
	Provenance []queryprocessor.ProvenanceEntry `json:"provenance,omitempty"`
}

func printResult(r *queryprocessor.QueryResult) error {
	out := outputResult{Type: r.Type.String()}
	if r.Raster != nil {
		out.RasterData = base64.StdEncoding.EncodeToString(r.Raster.Data)
		grid := r.Raster.Grid
		out.Grid = &grid
	}
	out.Points = r.Points
	out.Lines = r.Lines
	out.Polygons = r.Polygons
	if r.Provenance != nil {
		out.Provenance = r.Provenance.Entries()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
