package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bstardust/exif-analyzer/internal/batch"
	"github.com/bstardust/exif-analyzer/pkg/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := New()
	cfg.Scan.Root = "/photos"
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Scan.Recursive)
	assert.Equal(t, []string{".jpg", ".jpeg"}, cfg.Scan.Extensions)
	assert.Equal(t, batch.DefaultConcurrency(), cfg.Batch.Concurrency)
	assert.Equal(t, "https://maps.example/?q=", cfg.Report.MapURL)
	assert.Equal(t, "02.01.2006 15:04", cfg.Report.DateLayout)
	assert.False(t, cfg.S3.Enabled)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log_level: debug
scan:
  root: /from/file
  extensions: [".png", "tif"]
batch:
  concurrency: 3
report:
  csv: out.csv
watch:
  debounce: 500ms
`), 0o644))

	t.Setenv("EXIF_ANALYZER_BATCH_CONCURRENCY", "7")
	t.Setenv("EXIF_ANALYZER_S3_BUCKET", "env-bucket")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("csv", "", "")
	fs.Bool("recursive", true, "")
	require.NoError(t, fs.Parse([]string{"--csv", "flag.csv", "--recursive=false"}))

	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, BindFlags(v, fs, map[string]string{
		"csv":       "report.csv",
		"recursive": "scan.recursive",
		"missing":   "scan.root",
	}))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/from/file", cfg.Scan.Root)
	assert.Equal(t, []string{".png", "tif"}, cfg.Scan.Extensions)
	assert.Equal(t, 7, cfg.Batch.Concurrency)
	assert.Equal(t, "flag.csv", cfg.Report.CSV)
	assert.False(t, cfg.Scan.Recursive)
	assert.Equal(t, "env-bucket", cfg.S3.Bucket)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "us-east-1", cfg.S3.Region)

	exts, err := cfg.ExtensionSet()
	require.NoError(t, err)
	assert.Equal(t, []string{".png", ".tif"}, exts.Sorted())
}

func TestLoad_MissingFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := map[string]func(*Config){
		"missing root":        func(c *Config) { c.Scan.Root = "" },
		"no extensions":       func(c *Config) { c.Scan.Extensions = nil },
		"blank extensions":    func(c *Config) { c.Scan.Extensions = []string{" "} },
		"bad extension":       func(c *Config) { c.Scan.Extensions = []string{"a/b"} },
		"zero concurrency":    func(c *Config) { c.Batch.Concurrency = 0 },
		"csv wrong extension": func(c *Config) { c.Report.CSV = "report.txt" },
		"bad map url":         func(c *Config) { c.Report.MapURL = "maps" },
		"bad timezone":        func(c *Config) { c.Report.Timezone = "Mars/Olympus" },
		"negative interval":   func(c *Config) { c.Batch.ProgressInterval = -time.Second },
		"upload without report": func(c *Config) {
			c.S3 = S3Config{Enabled: true, Bucket: "reports", Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}
		},
		"upload bad bucket": func(c *Config) {
			c.Report.HTML = "r.html"
			c.S3 = S3Config{Enabled: true, Bucket: "Bad Bucket", Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}
		},
		"upload missing keys": func(c *Config) {
			c.Report.HTML = "r.html"
			c.S3 = S3Config{Enabled: true, Bucket: "reports", Endpoint: "localhost:9000"}
		},
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, common.IsConfigError(err))
		})
	}
}

func TestValidate_UploadOK(t *testing.T) {
	cfg := validConfig()
	cfg.Report.JSON = "out/r.JSON"
	cfg.S3 = S3Config{Enabled: true, Bucket: "reports", Endpoint: "https://s3.example", AccessKey: "a", SecretKey: "s", Region: "eu"}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"out/r.JSON"}, cfg.ReportPaths())
	assert.Equal(t, "reports", cfg.S3Client().Bucket)
}

func TestConfig_Location(t *testing.T) {
	cfg := New()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Report.Timezone = "Europe/Berlin"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	cfg.Report.Timezone = "Nowhere/Special"
	_, err = cfg.Location()
	assert.True(t, common.IsConfigError(err))
}
