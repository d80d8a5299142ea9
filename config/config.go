// Package config loads the toolkit's file-based configuration: one logger
// section plus a section per data source. Values come from a YAML file
// with FINCOLLECT_* environment variables taking precedence, so API keys
// never have to live on disk.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fincollect/go-collector-kit/breaker"
	"github.com/fincollect/go-collector-kit/handler"
	"github.com/fincollect/go-collector-kit/logger"
	"github.com/fincollect/go-collector-kit/ratelimit"
)

// SourceConfig is the per-source section.
type SourceConfig struct {
	// APIKey authenticates against the upstream. Empty when the source
	// needs none (Treasury, SEC EDGAR).
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the source's default API root.
	BaseURL string `mapstructure:"base_url"`

	// CacheTTL enables response caching when positive.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	RateLimit ratelimit.Config    `mapstructure:"rate_limit"`
	Retry     handler.RetryConfig `mapstructure:"retry"`
	Breaker   breaker.Config      `mapstructure:"breaker"`
}

// File is the whole loaded configuration.
type File struct {
	Logger  logger.Config           `mapstructure:"logger"`
	Sources map[string]SourceConfig `mapstructure:"sources"`
}

// Load reads path and applies environment overrides. A missing file is an
// error; an empty sources map is not.
func Load(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FINCOLLECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	f.ApplyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ApplyDefaults fills zero-value fields in every section.
func (f *File) ApplyDefaults() {
	f.Logger.ApplyDefaults()
	for name, src := range f.Sources {
		src.RateLimit.ApplyDefaults()
		src.Retry.ApplyDefaults()
		src.Breaker.ApplyDefaults()
		f.Sources[name] = src
	}
}

// Validate checks every source section; the first failure wins.
func (f *File) Validate() error {
	for name, src := range f.Sources {
		if err := src.RateLimit.Validate(); err != nil {
			return fmt.Errorf("config: source %s rate_limit: %w", name, err)
		}
		if err := src.Retry.Validate(); err != nil {
			return fmt.Errorf("config: source %s retry: %w", name, err)
		}
		if err := src.Breaker.Validate(); err != nil {
			return fmt.Errorf("config: source %s breaker: %w", name, err)
		}
	}
	return nil
}

// Source returns one source section.
func (f *File) Source(name string) (SourceConfig, bool) {
	src, ok := f.Sources[name]
	return src, ok
}
