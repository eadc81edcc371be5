package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func clearConfigEnvVars() {
	envVars := []string{
		"MAPPING_RASTERDB_BACKEND",
		"MAPPING_FEATURECOLLECTIONDB_BACKEND",
		"MAPPING_PROCESSING_BACKEND",
		"MAPPING_GDALSOURCE_DATASETS_PATH",
		"MAPPING_LOG_LOGFILELEVEL",
	}
	for _, envVar := range envVars {
		os.Unsetenv(envVar)
	}
	Configuration = Config{}
}

func equals(tb testing.TB, exp, act interface{}, msg string) {
	if !reflect.DeepEqual(exp, act) {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("%s:%d: %s - expected: %#v; got: %#v\n", filepath.Base(file), line, msg, exp, act)
		tb.FailNow()
	}
}

func TestDefaultValues(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	if err := InitConfig("", false); err != nil {
		t.Fatal(err)
	}

	equals(t, "local", Configuration.RasterDB.Backend, "RasterDB.Backend default")
	equals(t, "duckdb", Configuration.FeatureCollectionDB.Backend, "FeatureCollectionDB.Backend default")
	equals(t, "local", Configuration.Processing.Backend, "Processing.Backend default")
}

func TestConfigFileOverriddenByEnvironment(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	tempDir, err := os.MkdirTemp("", "geodb_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	configContent := "[rasterdb]\nbackend = \"remote\"\n"
	configFile := filepath.Join(tempDir, "test_config.conf")
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	os.Setenv("MAPPING_RASTERDB_BACKEND", "local")
	defer os.Unsetenv("MAPPING_RASTERDB_BACKEND")

	if err := InitConfig(configFile, false); err != nil {
		t.Fatal(err)
	}

	equals(t, "local", Configuration.RasterDB.Backend, "env should override file")
}

func TestConfigFileOnly(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	tempDir, err := os.MkdirTemp("", "geodb_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	configContent := "[processing]\nbackend = \"distributed\"\n"
	configFile := filepath.Join(tempDir, "test_config.conf")
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	if err := InitConfig(configFile, false); err != nil {
		t.Fatal(err)
	}

	equals(t, "distributed", Configuration.Processing.Backend, "Processing.Backend from file")
}

// TestLayeringPrecedence checks the top of the scenario S6 layering: an
// environment variable overrides a value from an explicit config file.
func TestLayeringPrecedence(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	tempDir, err := os.MkdirTemp("", "geodb_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	cwdConfig := filepath.Join(tempDir, "cwd.conf")
	if err := os.WriteFile(cwdConfig, []byte("[gdalsource]\n[gdalsource.datasets]\npath = \"/from/cwd\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitConfig(cwdConfig, false); err != nil {
		t.Fatal(err)
	}
	equals(t, "/from/cwd", Configuration.GDALSource.DatasetsPath, "file-sourced value")

	os.Setenv("MAPPING_GDALSOURCE_DATASETS_PATH", "/from/env")
	if err := InitConfig(cwdConfig, false); err != nil {
		t.Fatal(err)
	}
	equals(t, "/from/env", Configuration.GDALSource.DatasetsPath, "env overrides file")
}

func TestFeatureBackendLocation(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	tempDir, err := os.MkdirTemp("", "geodb_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	content := "[featurecollectiondb.duckdb]\nlocation = \"/var/lib/geodb/features.duckdb\"\n"
	configFile := filepath.Join(tempDir, "test_config.conf")
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := InitConfig(configFile, false); err != nil {
		t.Fatal(err)
	}

	equals(t, "/var/lib/geodb/features.duckdb", FeatureBackendLocation("duckdb"), "featurecollectiondb.duckdb.location")
}
