package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgrows/pkg/pgrows"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	SSLCert        string `yaml:"sslcert,omitempty"`
	SSLKey         string `yaml:"sslkey,omitempty"`
	SSLRootCert    string `yaml:"sslrootcert,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type RetryConfig struct {
	// Retries is a pointer so that an explicit 0 (no retries) differs from unset.
	Retries    *int   `yaml:"retries,omitempty"`
	Delay      string `yaml:"delay,omitempty"`
	Classifier string `yaml:"classifier,omitempty"`
}

type CacheConfig struct {
	MaxEntries int    `yaml:"max_entries,omitempty"`
	TTL        string `yaml:"ttl,omitempty"`

	// RedisURL enables a shared second-level cache, e.g. redis://localhost:6379/0.
	RedisURL string `yaml:"redis_url,omitempty"`
}

type StreamConfig struct {
	BatchSize int  `yaml:"batch_size,omitempty"`
	MinAge    *int `yaml:"min_age,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Retry      RetryConfig      `yaml:"retry"`
	Cache      CacheConfig      `yaml:"cache"`
	Stream     StreamConfig     `yaml:"stream"`
	Timeout    string           `yaml:"timeout"`

	// SurfaceCommitErrors defaults to true when omitted.
	SurfaceCommitErrors *bool `yaml:"surface_commit_errors,omitempty"`
}

const ConfigFileName = "pgrows.yaml"

func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}

// Settings are the effective runtime knobs after applying defaults.
type Settings struct {
	Retries             int
	RetryDelay          time.Duration
	Classifier          string
	CacheMaxEntries     int
	CacheTTL            time.Duration
	CacheRedisURL       string
	BatchSize           int
	MinAge              int
	Timeout             time.Duration
	SurfaceCommitErrors bool
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Retries:             pgrows.DefaultRetries,
		RetryDelay:          pgrows.DefaultRetryDelay,
		CacheMaxEntries:     pgrows.DefaultCacheMaxEntries,
		CacheTTL:            pgrows.DefaultCacheTTL,
		BatchSize:           pgrows.DefaultBatchSize,
		MinAge:              pgrows.DefaultMinAge,
		SurfaceCommitErrors: true,
	}
}

// Settings merges the project file over DefaultSettings. A nil receiver yields the defaults.
func (p *ProjectConfig) Settings() (Settings, error) {
	s := DefaultSettings()
	if p == nil {
		return s, nil
	}

	var errs []error
	parse := func(field, value string, dst *time.Duration) {
		if value == "" {
			return
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", field, value, pgrows.ErrInvalidConfig))
			return
		}
		*dst = d
	}

	if p.Retry.Retries != nil {
		s.Retries = *p.Retry.Retries
	}
	parse("retry.delay", p.Retry.Delay, &s.RetryDelay)
	s.Classifier = p.Retry.Classifier

	if p.Cache.MaxEntries != 0 {
		s.CacheMaxEntries = p.Cache.MaxEntries
	}
	parse("cache.ttl", p.Cache.TTL, &s.CacheTTL)
	s.CacheRedisURL = p.Cache.RedisURL

	if p.Stream.BatchSize != 0 {
		s.BatchSize = p.Stream.BatchSize
	}
	if p.Stream.MinAge != nil {
		s.MinAge = *p.Stream.MinAge
	}
	parse("timeout", p.Timeout, &s.Timeout)

	if p.SurfaceCommitErrors != nil {
		s.SurfaceCommitErrors = *p.SurfaceCommitErrors
	}

	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}
	return s, s.Validate()
}

// Validate checks the settings and returns all failures joined.
func (s Settings) Validate() error {
	var errs []error

	if s.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries cannot be negative: %w", pgrows.ErrInvalidConfig))
	}
	if s.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry delay cannot be negative: %w", pgrows.ErrInvalidConfig))
	}
	if s.CacheMaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("cache max entries must be positive: %w", pgrows.ErrInvalidConfig))
	}
	if s.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl cannot be negative: %w", pgrows.ErrInvalidConfig))
	}
	if s.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive: %w", pgrows.ErrInvalidConfig))
	}
	if s.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", pgrows.ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
