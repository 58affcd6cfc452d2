// Package config loads the YAML configuration shared by the server and the
// CLI.
//
// The file is named by the --config flag or, failing that, by the
// IMGHASH_CONFIG environment variable. Without either, Default() is used
// as is. Values missing from the file keep their defaults.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"imghash/internal/imagehash"
	"imghash/internal/imageprocessing"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "IMGHASH_CONFIG"

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Images  ImagesConfig  `yaml:"images"`
	Hash    HashConfig    `yaml:"hash"`
	Match   MatchConfig   `yaml:"match"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	MaxUploadMB  int64    `yaml:"max_upload_mb"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type ImagesConfig struct {
	Dir           string `yaml:"dir"`
	Workers       int    `yaml:"workers"`
	ThumbnailSize int    `yaml:"thumbnail_size"`
	// ThumbnailMode is fit, fill or stretch.
	ThumbnailMode string `yaml:"thumbnail_mode"`
}

// HashConfig mirrors imagehash.Config with names instead of enums.
type HashConfig struct {
	Algorithm  string `yaml:"algorithm"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Factor     int    `yaml:"factor"`
	ColorSpace string `yaml:"color_space"`
	Resize     string `yaml:"resize"`
	// MaxSize bounds the width and height a request may ask for.
	MaxSize int `yaml:"max_size"`
}

type MatchConfig struct {
	// Threshold is the minimum similarity, in percent, for a match.
	Threshold float64 `yaml:"threshold"`
}

type StorageConfig struct {
	// Path of the SQLite database; empty keeps everything in memory.
	Path string `yaml:"path"`
}

type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	Cleanup time.Duration `yaml:"cleanup"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			MaxUploadMB:  10,
			AllowOrigins: []string{"*"},
		},
		Images: ImagesConfig{
			Dir:           "./images",
			Workers:       4,
			ThumbnailSize: 100,
			ThumbnailMode: "fit",
		},
		Hash: HashConfig{
			Algorithm:  "perceptual",
			Width:      8,
			Height:     8,
			Factor:     4,
			ColorSpace: "rec601",
			Resize:     "imaging",
			MaxSize:    64,
		},
		Match: MatchConfig{Threshold: 85},
		Cache: CacheConfig{TTL: 5 * time.Minute, Cleanup: 10 * time.Minute},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the file at path over Default(). An empty path falls back to
// $IMGHASH_CONFIG, and to the defaults alone when that is empty too.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "cannot read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "cannot parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks every value the binaries would otherwise trip over later.
func (c Config) Validate() error {
	hashCfg, err := c.Hash.ToHashConfig()
	if err != nil {
		return err
	}
	if c.Hash.MaxSize < 1 {
		return errors.Errorf("hash.max_size must be positive, got %d", c.Hash.MaxSize)
	}
	if err := hashCfg.CheckLimit(c.Hash.MaxSize); err != nil {
		return errors.Wrap(err, "hash.max_size")
	}
	if _, err := imageprocessing.ParseResizeBackend(c.Hash.Resize); err != nil {
		return errors.Wrap(err, "hash.resize")
	}
	if _, err := imageprocessing.ParseThumbnailMode(c.Images.ThumbnailMode); err != nil {
		return errors.Wrap(err, "images.thumbnail_mode")
	}
	if c.Match.Threshold < 0 || c.Match.Threshold > 100 {
		return errors.Errorf("match.threshold %v is outside 0-100", c.Match.Threshold)
	}
	if c.Server.MaxUploadMB < 1 {
		return errors.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Images.Workers < 1 {
		return errors.Errorf("images.workers must be positive, got %d", c.Images.Workers)
	}
	return nil
}

// ToHashConfig converts the named settings into an imagehash.Config.
func (h HashConfig) ToHashConfig() (imagehash.Config, error) {
	alg, err := imagehash.ParseAlgorithm(h.Algorithm)
	if err != nil {
		return imagehash.Config{}, err
	}
	cs, err := imagehash.ParseColorSpace(h.ColorSpace)
	if err != nil {
		return imagehash.Config{}, err
	}
	cfg := imagehash.Config{
		Algorithm:  alg,
		Width:      h.Width,
		Height:     h.Height,
		Factor:     h.Factor,
		ColorSpace: cs,
	}
	return cfg, cfg.Validate()
}

// NewHasher builds the hasher described by h.
func (h HashConfig) NewHasher() (*imageprocessing.Hasher, error) {
	cfg, err := h.ToHashConfig()
	if err != nil {
		return nil, err
	}
	backend, err := imageprocessing.ParseResizeBackend(h.Resize)
	if err != nil {
		return nil, err
	}
	return imageprocessing.NewHasher(cfg, backend)
}
