package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/bstardust/exif-analyzer/internal/batch"
	"github.com/bstardust/exif-analyzer/internal/fileinfo"
	"github.com/bstardust/exif-analyzer/internal/metadata"
	"github.com/bstardust/exif-analyzer/internal/report"
	"github.com/bstardust/exif-analyzer/internal/utils"
	"github.com/bstardust/exif-analyzer/pkg/common"
	"github.com/bstardust/exif-analyzer/pkg/s3client"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variables, e.g.
// EXIF_ANALYZER_BATCH_CONCURRENCY.
const EnvPrefix = "EXIF_ANALYZER"

// Config represents the application configuration
type Config struct {
	LogLevel string       `mapstructure:"log_level"`
	Scan     ScanConfig   `mapstructure:"scan"`
	Batch    BatchConfig  `mapstructure:"batch"`
	Report   ReportConfig `mapstructure:"report"`
	Watch    WatchConfig  `mapstructure:"watch"`
	S3       S3Config     `mapstructure:"s3"`
}

// ScanConfig selects the files to analyze
type ScanConfig struct {
	Root           string   `mapstructure:"root"`
	Recursive      bool     `mapstructure:"recursive"`
	Extensions     []string `mapstructure:"extensions"`
	FollowSymlinks bool     `mapstructure:"follow_symlinks"`
}

// BatchConfig tunes the batch processor
type BatchConfig struct {
	Concurrency      int           `mapstructure:"concurrency"`
	// ProgressInterval is the minimum time between progress log lines.
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

// ReportConfig lists the report files to write and how to render them
type ReportConfig struct {
	CSV             string   `mapstructure:"csv"`
	HTML            string   `mapstructure:"html"`
	JSON            string   `mapstructure:"json"`
	MapURL          string   `mapstructure:"map_url"`
	DateLayout      string   `mapstructure:"date_layout"`
	// Timezone is the IANA zone capture dates are interpreted in.
	Timezone        string   `mapstructure:"timezone"`
	TechnicalFields []string `mapstructure:"technical_fields"`
}

// WatchConfig tunes the watch command
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// S3Config represents S3 connection configuration
type S3Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	Region        string        `mapstructure:"region"`
	Bucket        string        `mapstructure:"bucket"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	Prefix        string        `mapstructure:"prefix"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel: "info",
		Scan: ScanConfig{
			Recursive:  true,
			Extensions: append([]string(nil), fileinfo.DefaultExtensions...),
		},
		Batch: BatchConfig{
			Concurrency:      batch.DefaultConcurrency(),
			ProgressInterval: 2 * time.Second,
		},
		Report: ReportConfig{
			MapURL:          report.DefaultMapURL,
			DateLayout:      metadata.DisplayDateLayout,
			Timezone:        "UTC",
			TechnicalFields: append([]string(nil), metadata.DefaultTechnicalFields...),
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
	}
}

// defaults flattens New() into viper keys
func defaults() map[string]any {
	d := New()
	return map[string]any{
		"log_level":               d.LogLevel,
		"scan.root":               d.Scan.Root,
		"scan.recursive":          d.Scan.Recursive,
		"scan.extensions":         d.Scan.Extensions,
		"scan.follow_symlinks":    d.Scan.FollowSymlinks,
		"batch.concurrency":       d.Batch.Concurrency,
		"batch.progress_interval": d.Batch.ProgressInterval,
		"report.csv":              d.Report.CSV,
		"report.html":             d.Report.HTML,
		"report.json":             d.Report.JSON,
		"report.map_url":          d.Report.MapURL,
		"report.date_layout":      d.Report.DateLayout,
		"report.timezone":         d.Report.Timezone,
		"report.technical_fields": d.Report.TechnicalFields,
		"watch.debounce":          d.Watch.Debounce,
		"s3.enabled":              d.S3.Enabled,
		"s3.endpoint":             d.S3.Endpoint,
		"s3.region":               d.S3.Region,
		"s3.bucket":               d.S3.Bucket,
		"s3.access_key":           d.S3.AccessKey,
		"s3.secret_key":           d.S3.SecretKey,
		"s3.use_ssl":              d.S3.UseSSL,
		"s3.prefix":               d.S3.Prefix,
		"s3.presign_expiry":       d.S3.PresignExpiry,
	}
}

// Load reads configuration from, in increasing priority: defaults, the
// config file set on v (if any), EXIF_ANALYZER_* environment variables and
// flags bound to v.
func Load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// BindFlags binds the named flags to config keys. Flags missing from fs are
// ignored.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// ExtensionSet normalizes the configured extensions.
func (c *Config) ExtensionSet() (fileinfo.ExtensionSet, error) {
	set, err := fileinfo.NewExtensionSet(c.Scan.Extensions...)
	if err != nil {
		return nil, common.NewConfigError("scan.extensions", err.Error())
	}
	if len(set) == 0 {
		return nil, common.NewConfigError("scan.extensions", "at least one extension must be selected")
	}
	return set, nil
}

// Location resolves Report.Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, common.NewConfigError("report.timezone", err.Error())
	}
	return loc, nil
}

// ReportPaths returns the configured report targets.
func (c *Config) ReportPaths() []string {
	var paths []string
	for _, p := range []string{c.Report.CSV, c.Report.HTML, c.Report.JSON} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// S3Client converts the S3 section for the client package.
func (c *Config) S3Client() s3client.Config {
	return s3client.Config{
		Endpoint:  c.S3.Endpoint,
		Region:    c.S3.Region,
		Bucket:    c.S3.Bucket,
		AccessKey: c.S3.AccessKey,
		SecretKey: c.S3.SecretKey,
		UseSSL:    c.S3.UseSSL,
		Prefix:    c.S3.Prefix,
	}
}

// Validate checks everything that must hold before a batch starts. All
// problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Scan.Root) == "" {
		errs = append(errs, common.NewConfigError("scan.root", "scan root is required"))
	}
	if _, err := c.ExtensionSet(); err != nil {
		errs = append(errs, err)
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, common.NewConfigError("batch.concurrency", fmt.Sprintf("must be positive, got %d", c.Batch.Concurrency)))
	}

	targets := map[string]string{
		"report.csv":  c.Report.CSV,
		"report.html": c.Report.HTML,
		"report.json": c.Report.JSON,
	}
	for field, path := range targets {
		if path == "" {
			continue
		}
		want := "." + strings.TrimPrefix(field, "report.")
		if ext := strings.ToLower(filepath.Ext(path)); ext != want {
			errs = append(errs, common.NewConfigError(field, fmt.Sprintf("%s must end in %s", path, want)))
		}
	}
	if c.Batch.ProgressInterval < 0 {
		errs = append(errs, common.NewConfigError("batch.progress_interval", "must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if err := utils.ValidateMapURL(c.Report.MapURL); err != nil {
		errs = append(errs, common.NewConfigError("report.map_url", err.Error()))
	}

	if c.S3.Enabled {
		if len(c.ReportPaths()) == 0 {
			errs = append(errs, common.NewConfigError("s3.enabled", "upload requested but no report file is configured"))
		}
		if err := utils.ValidateS3BucketName(c.S3.Bucket); err != nil {
			errs = append(errs, common.NewConfigError("s3.bucket", err.Error()))
		}
		if err := utils.ValidateEndpoint(c.S3.Endpoint); err != nil {
			errs = append(errs, common.NewConfigError("s3.endpoint", err.Error()))
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			errs = append(errs, common.NewConfigError("s3.access_key", "S3 access key and secret key are required"))
		}
	}

	return errors.Join(errs...)
}
