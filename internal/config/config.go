// Package config loads the isomatch configuration file.
//
// The file is TOML. Every key is optional; missing keys keep the values of
// [Default]. Unknown keys are rejected so typos do not pass silently.
//
//	workers = 8
//	timeout = "10s"
//	lookahead = "legacy"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "cache.internal:6379"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://db.internal:27017"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/pipeline"
	"github.com/matzehuels/isomatch/pkg/vf2"
)

const (
	appName = "isomatch"

	// EnvPath names the environment variable holding the config file path.
	EnvPath = "ISOMATCH_CONFIG"
)

// Backend names.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"

	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full configuration.
type Config struct {
	Workers      int      `toml:"workers"`
	MaxVisits    int      `toml:"max_visits"`
	Timeout      Duration `toml:"timeout"`
	Lookahead    string   `toml:"lookahead"`
	TargetPrefix string   `toml:"target_prefix"`
	QueryPrefix  string   `toml:"query_prefix"`

	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"` // file backend; XDG cache dir when empty
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Prefix        string   `toml:"prefix"`
	TTL           Duration `toml:"ttl"`
}

// StoreConfig selects and configures the report store.
type StoreConfig struct {
	Backend  string `toml:"backend"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers:      pipeline.DefaultWorkers,
		Timeout:      Duration{pipeline.DefaultTimeout},
		Lookahead:    vf2.LookaheadSymmetric.String(),
		TargetPrefix: "Graph ",
		QueryPrefix:  "Query ",
		Cache: CacheConfig{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
			Prefix:    appName,
			TTL:       Duration{24 * time.Hour},
		},
		Store: StoreConfig{
			Backend:  StoreMemory,
			MongoURI: "mongodb://localhost:27017",
			Database: appName,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{5 * time.Minute},
			MaxBodyBytes: 32 << 20,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/isomatch/config.toml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Resolve loads the configuration from the first of: flagPath, $ISOMATCH_CONFIG,
// DefaultPath. An explicitly named file must exist; a missing default file
// yields Default. The returned path is empty when no file was read.
func Resolve(flagPath string) (Config, string, error) {
	for _, p := range []string{flagPath, os.Getenv(EnvPath)} {
		if p != "" {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}

	p, err := DefaultPath()
	if err != nil {
		return Default(), "", nil
	}
	cfg, err := Load(p)
	if errs.Is(err, errs.ErrCodeFileNotFound) {
		return Default(), "", nil
	}
	return cfg, p, err
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return cfg, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges and backend names.
func (c Config) Validate() error {
	switch {
	case c.Workers < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "workers must not be negative")
	case c.MaxVisits < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "max_visits must not be negative")
	case c.Timeout.Duration < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "timeout must not be negative")
	case c.Cache.TTL.Duration < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	case c.Server.MaxBodyBytes < 0:
		return errs.New(errs.ErrCodeInvalidConfig, "server.max_body_bytes must not be negative")
	}
	if _, err := vf2.ParseLookahead(c.Lookahead); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "lookahead")
	}
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if !slices.Contains([]string{StoreMemory, StoreMongo}, c.Store.Backend) {
		return errs.New(errs.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// PipelineOptions returns the pipeline options this configuration describes.
// Command-line flags are applied on top by the caller.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Workers:   c.Workers,
		MaxVisits: c.MaxVisits,
		Timeout:   c.Timeout.Duration,
		Lookahead: c.Lookahead,
	}
}
