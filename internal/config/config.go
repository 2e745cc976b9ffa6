// Package config loads the editor configuration from a TOML file, an
// optional .env file and the process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"banner-editor/internal/device"
	"banner-editor/internal/image"
	"banner-editor/internal/upload"
)

// DefaultFile is the config file read when no path is given.
const DefaultFile = "banner-editor.toml"

// Config is the full editor configuration.
type Config struct {
	LogLevel string            `toml:"log_level"`
	Render   RenderConfig      `toml:"render"`
	Export   ExportConfig      `toml:"export"`
	Variants []device.Override `toml:"variants"`
	Storage  StorageConfig     `toml:"storage"`
	Settings SettingsConfig    `toml:"settings"`
}

// RenderConfig controls the render engine.
type RenderConfig struct {
	Background   string `toml:"background"`
	Interpolator string `toml:"interpolator"`
}

// ExportConfig controls encoding.
type ExportConfig struct {
	Format  string `toml:"format"`
	Quality int    `toml:"quality"`
}

// StorageConfig selects where published banners are uploaded.
type StorageConfig struct {
	Type          string `toml:"type"`
	LocalPath     string `toml:"local_path"`
	PublicBaseURL string `toml:"public_base_url"`
	Bucket        string `toml:"bucket"`
	Endpoint      string `toml:"endpoint"`
	Region        string `toml:"region"`
	Prefix        string `toml:"prefix"`

	// Credentials are only read from the environment.
	AccessKeyID string `toml:"-"`
	SecretKey   string `toml:"-"`
}

// SettingsConfig locates the settings database.
type SettingsConfig struct {
	Database string `toml:"database"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Render: RenderConfig{
			Background:   "#f3f4f6",
			Interpolator: "bilinear",
		},
		Export: ExportConfig{
			Format:  "jpeg",
			Quality: image.DefaultQuality,
		},
		Storage: StorageConfig{
			Type:      "filesystem",
			LocalPath: "./data",
			Prefix:    "banners",
		},
		Settings: SettingsConfig{
			Database: "banner-editor.db",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error when path is DefaultFile.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		logrus.WithField("path", path).Debug("Loaded config file")
	case errors.Is(err, os.ErrNotExist) && path == DefaultFile:
		logrus.WithField("path", path).Debug("No config file, using defaults")
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML into cfg, keeping fields the document does not set.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// LoadDotEnv loads .env files into the environment. Missing files are
// skipped.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			logrus.WithField("file", f).Debug("No .env file found")
		}
	}
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, name string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Storage.Type, "STORAGE_TYPE")
	set(&c.Storage.LocalPath, "LOCAL_STORAGE_PATH")
	set(&c.Storage.Bucket, "S3_BUCKET_NAME")
	set(&c.Storage.Endpoint, "S3_ENDPOINT")
	set(&c.Storage.Region, "S3_REGION")
	set(&c.Storage.PublicBaseURL, "PUBLIC_BASE_URL")
	set(&c.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	set(&c.Storage.SecretKey, "S3_SECRET_ACCESS_KEY")
	set(&c.Settings.Database, "DATA_SOURCE_NAME")
	set(&c.LogLevel, "LOG_LEVEL")
}

// Validate checks every field that has a closed set of values.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if _, err := image.ParseColor(c.Render.Background); err != nil {
		return fmt.Errorf("invalid render.background: %w", err)
	}
	if _, err := image.ParseInterpolator(c.Render.Interpolator); err != nil {
		return fmt.Errorf("invalid render.interpolator: %w", err)
	}
	if _, err := image.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("invalid export.format: %w", err)
	}
	if c.Export.Quality < 0 || c.Export.Quality > 100 {
		return fmt.Errorf("invalid export.quality %d", c.Export.Quality)
	}
	if _, err := device.NewPolicy(c.Variants); err != nil {
		return fmt.Errorf("invalid variants: %w", err)
	}
	switch strings.ToLower(c.Storage.Type) {
	case "", "filesystem":
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Policy returns the device policy with configured widths applied.
func (c Config) Policy() (device.Policy, error) {
	return device.NewPolicy(c.Variants)
}

// Renderer builds the render engine.
func (c Config) Renderer() (*image.Renderer, error) {
	bg, err := image.ParseColor(c.Render.Background)
	if err != nil {
		return nil, err
	}
	interp, err := image.ParseInterpolator(c.Render.Interpolator)
	if err != nil {
		return nil, err
	}
	return image.NewRenderer(bg, interp), nil
}

// Exporter builds the export encoder.
func (c Config) Exporter() (image.Exporter, error) {
	format, err := image.ParseFormat(c.Export.Format)
	if err != nil {
		return image.Exporter{}, err
	}
	return image.NewExporter(format, c.Export.Quality), nil
}

// UploadOptions returns the storage backend options.
func (c Config) UploadOptions() upload.Options {
	s := c.Storage
	return upload.Options{
		Type:          strings.ToLower(s.Type),
		LocalPath:     s.LocalPath,
		PublicBaseURL: s.PublicBaseURL,
		Bucket:        s.Bucket,
		Endpoint:      s.Endpoint,
		Region:        s.Region,
		Prefix:        s.Prefix,
		AccessKeyID:   s.AccessKeyID,
		SecretKey:     s.SecretKey,
	}
}
