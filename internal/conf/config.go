package conf

/*
 Configuration loading for the core engine.

 Layering follows §6.6 exactly, mirroring the teacher's InitConfig /
 AutomaticEnv pattern and original_source/src/util/configuration.cpp's
 loadFromDefaultPaths: /etc/<name>.conf, then $HOME/<name>.conf, then
 ./<name>.conf, then environment variables prefixed MAPPING_/mapping_.
 Later sources override earlier ones. Config files are TOML; missing files
 are silently skipped (first-run / container deployments rarely ship one).
*/

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// RasterDBConfig selects the RasterBackend implementation (§4.1).
type RasterDBConfig struct {
	Backend string `mapstructure:"backend"`
}

// FeatureCollectionDBConfig selects the FeatureBackend implementation and
// its per-backend connection strings (§4.6).
type FeatureCollectionDBConfig struct {
	Backend string `mapstructure:"backend"`
}

// ProcessingConfig selects the QueryProcessor backend implementation (§4.7).
type ProcessingConfig struct {
	Backend string `mapstructure:"backend"`
}

// GDALSourceConfig points at the directory of external raster descriptors
// consumed by internal/externalsource.
type GDALSourceConfig struct {
	DatasetsPath string `mapstructure:"datasets.path"`
}

// CrsDirectoryConfig points at the CrsId -> WKT mapping file.
type CrsDirectoryConfig struct {
	Location string `mapstructure:"location"`
}

// LogConfig configures the file sink of internal/log.
type LogConfig struct {
	LogFileLevel    string `mapstructure:"logfilelevel"`
	LogFileLocation string `mapstructure:"logfilelocation"`
}

// Config is the fully layered, typed view of the process-wide configuration
// table described in §3.5.
type Config struct {
	RasterDB            RasterDBConfig
	FeatureCollectionDB FeatureCollectionDBConfig
	Processing          ProcessingConfig
	GDALSource          GDALSourceConfig
	CrsDirectory        CrsDirectoryConfig
	Log                 LogConfig
}

// Configuration is the process-wide, already-loaded configuration. It is
// populated by InitConfig and safe to read after that call returns.
var Configuration Config

var v *viper.Viper

// InitConfig loads configuration from the layered sources of §6.6.
// configFilename, if non-empty, is merged last among the file sources
// (after the three default paths), so it takes precedence over them but
// is still overridden by environment variables. debug sets log.logfilelevel
// to "trace", overriding every file and environment source.
func InitConfig(configFilename string, debug bool) error {
	v = viper.New()
	v.SetConfigType("toml")

	setDefaults(v)

	for _, path := range defaultConfigPaths() {
		mergeFileIfPresent(v, path)
	}
	if configFilename != "" {
		mergeFileIfPresent(v, configFilename)
	}

	v.SetEnvPrefix(AppConfig.EnvPrefix)
	v.SetEnvKeyReplacer(newDotUnderscoreReplacer())
	v.AutomaticEnv()
	// AutomaticEnv only sees upper-case names; this also picks up
	// mixed/lower-case ones such as MAPPING_data_size or mapping_log_logfilelevel.
	for _, kv := range os.Environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || len(name) <= 8 || (name[:8] != "MAPPING_" && name[:8] != "mapping_") {
			continue
		}
		v.Set(strings.ReplaceAll(strings.ToLower(name[8:]), "_", "."), val)
	}

	if debug {
		v.Set("log.logfilelevel", "trace")
	}

	Configuration = Config{
		RasterDB: RasterDBConfig{
			Backend: v.GetString("rasterdb.backend"),
		},
		FeatureCollectionDB: FeatureCollectionDBConfig{
			Backend: v.GetString("featurecollectiondb.backend"),
		},
		Processing: ProcessingConfig{
			Backend: v.GetString("processing.backend"),
		},
		GDALSource: GDALSourceConfig{
			DatasetsPath: v.GetString("gdalsource.datasets.path"),
		},
		CrsDirectory: CrsDirectoryConfig{
			Location: v.GetString("crsdirectory.location"),
		},
		Log: LogConfig{
			LogFileLevel:    v.GetString("log.logfilelevel"),
			LogFileLocation: v.GetString("log.logfilelocation"),
		},
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rasterdb.backend", "local")
	v.SetDefault("featurecollectiondb.backend", "duckdb")
	v.SetDefault("processing.backend", "local")
	v.SetDefault("log.logfilelevel", "info")
}

func defaultConfigPaths() []string {
	name := AppConfig.Name + ".conf"
	paths := []string{filepath.Join("/etc", name)}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, name))
	}
	paths = append(paths, filepath.Join(".", name))
	return paths
}

func mergeFileIfPresent(v *viper.Viper, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_ = v.MergeConfig(f)
}

// FeatureBackendLocation resolves featurecollectiondb.<name>.location, the
// per-backend connection string described in §3.5.
func FeatureBackendLocation(name string) string {
	if v == nil {
		return ""
	}
	return v.GetString("featurecollectiondb." + name + ".location")
}

// Get returns the raw string value for an arbitrary dotted key, for callers
// that need configuration outside the typed Config struct (e.g. operator
// parameters, §6.4).
func Get(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetInt mirrors Get for integer-valued keys (scenario S6).
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetSubTable returns the viper sub-tree rooted at prefix, or nil if the
// configuration has not been initialized or the prefix has no keys.
func GetSubTable(prefix string) *viper.Viper {
	if v == nil {
		return nil
	}
	return v.Sub(prefix)
}
