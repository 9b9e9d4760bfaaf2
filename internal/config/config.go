// Package config loads server and CLI configuration from a TOML file,
// with environment-independent defaults for local use.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dhuston/livingmap/pkg/errors"
	"github.com/dhuston/livingmap/pkg/sim"
)

// Cache backend names.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the root configuration.
type Config struct {
	Server Server `toml:"server"`
	Cache  CacheC `toml:"cache"`
	Store  Store  `toml:"store"`
	Source Source `toml:"source"`
	Layout Layout `toml:"layout"`
}

// Duration wraps time.Duration so TOML files can use strings like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Server configures the HTTP API.
type Server struct {
	Addr            string   `toml:"addr"`
	LayoutTimeout   Duration `toml:"layout_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// CacheC configures the layout cache backend.
type CacheC struct {
	Backend string `toml:"backend"` // file | redis | none
	Dir     string `toml:"dir"`     // file backend
	Addr    string `toml:"addr"`    // redis backend
	Pass    string `toml:"password"`
	DB      int    `toml:"db"`
}

// Store configures snapshot persistence.
type Store struct {
	MongoURI   string `toml:"mongo_uri"` // empty means in-memory
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Source configures the upstream graph API.
type Source struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

// Layout overrides the engine defaults applied to requests that leave
// settings unset.
type Layout struct {
	Iterations   int     `toml:"iterations"`
	Gravity      float64 `toml:"gravity"`
	ScalingRatio float64 `toml:"scaling_ratio"`
	SlowDown     float64 `toml:"slow_down"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	defaults := sim.DefaultSettings()
	return Config{
		Server: Server{
			Addr:            ":8080",
			LayoutTimeout:   Duration(30 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Cache: CacheC{
			Backend: CacheBackendFile,
			Dir:     "", // resolved to ~/.cache/livingmap by the CLI
		},
		Layout: Layout{
			Iterations:   defaults.Iterations,
			Gravity:      defaults.Gravity,
			ScalingRatio: defaults.ScalingRatio,
			SlowDown:     defaults.SlowDown,
		},
	}
}

// Load reads a TOML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the TOML decoder can't express.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendNone, "":
	case CacheBackendRedis:
		if c.Cache.Addr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid cache.backend %q (must be file, redis, or none)", c.Cache.Backend)
	}
	if c.Server.LayoutTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server timeouts must be >= 0")
	}
	return nil
}

// Settings returns the configured layout defaults as engine settings.
func (c *Config) Settings() sim.Settings {
	s := sim.DefaultSettings()
	if c.Layout.Iterations > 0 {
		s.Iterations = c.Layout.Iterations
	}
	if c.Layout.Gravity > 0 {
		s.Gravity = c.Layout.Gravity
	}
	if c.Layout.ScalingRatio > 0 {
		s.ScalingRatio = c.Layout.ScalingRatio
	}
	if c.Layout.SlowDown > 0 {
		s.SlowDown = c.Layout.SlowDown
	}
	return s
}
