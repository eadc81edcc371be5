package main

/*
# Running
Usage: ./rasterimport --descriptor dataset.json --input band.raw --dataset precip --channel 0 --time-start 2020-01-01T00:00:00Z --time-end 2020-01-01T06:00:00Z

Loads a raw, row-major pixel buffer (as described by the §6.1 JSON
descriptor given with --descriptor) into a local RasterDB store,
building the full zoom pyramid.

# Configuration
Layered per §6.6: /etc/geodb.conf, $HOME/geodb.conf, ./geodb.conf, then
MAPPING_* environment variables, then this program's own flags.

# Logging
Logging to stdout via logrus, trace level with --debug.
*/

import (
	"context"
	"fmt"
	"os"

	"github.com/pborman/getopt/v2"
	log "github.com/sirupsen/logrus"

	"github.com/mappingcore/geodb/internal/backend"
	"github.com/mappingcore/geodb/internal/backend/local"
	"github.com/mappingcore/geodb/internal/codec"
	"github.com/mappingcore/geodb/internal/conf"
	applog "github.com/mappingcore/geodb/internal/log"
	"github.com/mappingcore/geodb/internal/raster"
	"github.com/mappingcore/geodb/internal/rasterdb"
)

var (
	flagHelp           bool
	flagVersion        bool
	flagDebugOn        bool
	flagConfigFilename string
	flagDescriptorPath string
	flagInputPath      string
	flagDatasetName    string
	flagStorePath      string
	flagChannel        int
	flagTimeStart      string
	flagTimeEnd        string
	flagCompressionName = "zstd"
)

func init() {
	initCommandOptions()
}

func initCommandOptions() {
	getopt.FlagLong(&flagHelp, "help", '?', "Show command usage")
	getopt.FlagLong(&flagConfigFilename, "config", 'c', "", "config file name")
	getopt.FlagLong(&flagDebugOn, "debug", 'd', "Set logging level to TRACE")
	getopt.FlagLong(&flagVersion, "version", 'v', "Output the version information")
	getopt.FlagLong(&flagDescriptorPath, "descriptor", 0, "", "path to the §6.1 dataset descriptor JSON file")
	getopt.FlagLong(&flagInputPath, "input", 0, "", "path to the raw row-major pixel buffer to import")
	getopt.FlagLong(&flagDatasetName, "dataset", 0, "", "dataset name the store is opened/created under")
	getopt.FlagLong(&flagStorePath, "store", 0, "", "path to the local RasterDB store file")
	getopt.FlagLong(&flagChannel, "channel", 0, "channel index the imported raster belongs to")
	getopt.FlagLong(&flagTimeStart, "time-start", 0, "", "RFC3339 timestamp the raster becomes valid at")
	getopt.FlagLong(&flagTimeEnd, "time-end", 0, "", "RFC3339 timestamp the raster stops being valid at")
	getopt.FlagLong(&flagCompressionName, "compression", 0, "tile compression: raw, zstd, brotli or webp")
}

func main() {
	getopt.Parse()

	if flagHelp {
		getopt.Usage()
		os.Exit(1)
	}
	if flagVersion {
		fmt.Printf("%s %s\n", conf.AppConfig.Name, conf.AppConfig.Version)
		os.Exit(1)
	}

	log.Infof("----  %s rasterimport - Version %s ----------", conf.AppConfig.Name, conf.AppConfig.Version)

	if err := conf.InitConfig(flagConfigFilename, flagDebugOn); err != nil {
		log.Fatalf("config: %v", err)
	}
	if flagDebugOn {
		log.SetLevel(log.TraceLevel)
		if err := applog.Init(applog.Options{Level: "trace"}); err != nil {
			log.Fatalf("log: %v", err)
		}
	}

	// Backend and codec implementations are installed explicitly here, never
	// via package init() (Design Note "Backend registration").
	backend.Register(local.Name, local.Open)
	codec.RegisterDefaults()

	if err := run(); err != nil {
		log.Fatalf("rasterimport: %v", err)
	}
}

func run() error {
	if flagDescriptorPath == "" || flagInputPath == "" || flagDatasetName == "" || flagStorePath == "" {
		return fmt.Errorf("--descriptor, --input, --dataset and --store are all required")
	}

	descriptorBytes, err := os.ReadFile(flagDescriptorPath)
	if err != nil {
		return fmt.Errorf("read descriptor: %w", err)
	}
	ds, err := raster.ParseDataset(descriptorBytes)
	if err != nil {
		return fmt.Errorf("parse descriptor: %w", err)
	}
	if flagChannel < 0 || flagChannel >= len(ds.Channels) {
		return fmt.Errorf("channel %d out of range (descriptor has %d channels)", flagChannel, len(ds.Channels))
	}

	tStart, err := parseTimeFlag(flagTimeStart, negInf)
	if err != nil {
		return fmt.Errorf("--time-start: %w", err)
	}
	tEnd, err := parseTimeFlag(flagTimeEnd, posInf)
	if err != nil {
		return fmt.Errorf("--time-end: %w", err)
	}

	compression, err := parseCompression(flagCompressionName)
	if err != nil {
		return err
	}

	be, err := backend.Open(local.Name, backend.Config{
		Name:     local.Name,
		Location: flagStorePath,
		Grid:     ds.Grid,
		Channels: ds.Channels,
		Crs:      ds.Grid.Crs,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closer, ok := be.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}()

	db := rasterdb.Open(flagDatasetName, be, ds.Grid, ds.Channels, rasterdb.DefaultOptions())

	ch := ds.Channels[flagChannel]
	data, err := os.ReadFile(flagInputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	wantLen := ds.Grid.Width * ds.Grid.Height * ch.Data.Datatype.ByteSize()
	if len(data) != wantLen {
		return fmt.Errorf("input %s is %d bytes, descriptor grid x channel datatype expects %d", flagInputPath, len(data), wantLen)
	}

	img := rasterdb.Raster2D{
		Width:       ds.Grid.Width,
		Height:      ds.Grid.Height,
		Datatype:    ch.Data.Datatype,
		Data:        data,
		Grid:        ds.Grid,
		HasNoData:   ch.Data.HasNoData,
		NoDataValue: ch.Data.NoDataValue,
	}

	rasterID, err := db.Import(context.Background(), img, flagChannel, tStart, tEnd, rasterdb.Attrs{}, compression)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	log.Infof("imported rasterid=%d dataset=%q channel=%d [%v, %v)", rasterID, flagDatasetName, flagChannel, flagTimeStart, flagTimeEnd)
	return nil
}
