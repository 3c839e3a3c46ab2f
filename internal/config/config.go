package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/DataRozhlas/covid-obce/internal/domain"
)

const defaultDuplicateNames = "Březina|Brno-venkov,Mezholezy|Domažlice"

// Config holds all service settings, populated from environment variables.
type Config struct {
	FeedURL        string        `env:"FEED_URL"         envDefault:"https://data.irozhlas.cz/covid-uzis/obce.json"`
	FeedLayout     string        `env:"FEED_LAYOUT"      envDefault:"current"`
	FeedTimeout    time.Duration `env:"FEED_TIMEOUT"     envDefault:"10s"`
	FeedMaxRetries int           `env:"FEED_MAX_RETRIES" envDefault:"3"`

	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"15m"`

	ThresholdLevel2 float64 `env:"THRESHOLD_LEVEL2" envDefault:"76"`
	ThresholdLevel3 float64 `env:"THRESHOLD_LEVEL3" envDefault:"216"`
	ThresholdLevel4 float64 `env:"THRESHOLD_LEVEL4" envDefault:"474"`

	// Optional overrides of the FEED_LAYOUT preset columns. Unset keeps the
	// preset value.
	FeedWeeksStart  *int   `env:"FEED_WEEKS_START"`
	FeedWeeksEnd    *int   `env:"FEED_WEEKS_END"`
	FeedLast7Source string `env:"FEED_LAST7_SOURCE"`
	FeedLast7Index  *int   `env:"FEED_LAST7_INDEX"`

	HTTPAddr  string `env:"HTTP_ADDR"  envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Parsed by Load from DUPLICATE_NAMES, CORS_ALLOW_ORIGINS and
	// SHUTDOWN_TIMEOUT.
	DuplicateNames   []string
	CORSAllowOrigins []string
	ShutdownTimeout  time.Duration

	// Kafka sink configuration. The sink is enabled when brokers are set,
	// unless KAFKA_ENABLED says otherwise.
	KafkaBrokers []string
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"covid-obce-districts"`
	KafkaEnabled bool

	// Resolved from the raw settings above by Load.
	Layout     domain.Layout
	Duplicates domain.DuplicateNames
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout = shutdownTimeout

	cfg.DuplicateNames = sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("DUPLICATE_NAMES", defaultDuplicateNames))
	cfg.CORSAllowOrigins = sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ALLOW_ORIGINS", "*"))
	cfg.KafkaBrokers = sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", ""))
	cfg.KafkaEnabled = sharedcfg.EnvOrDefault("KAFKA_ENABLED", strconv.FormatBool(len(cfg.KafkaBrokers) > 0)) == "true"

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	layout, err := cfg.resolveLayout()
	if err != nil {
		return nil, err
	}
	cfg.Layout = layout

	duplicates, err := domain.ParseDuplicateNames(cfg.DuplicateNames)
	if err != nil {
		return nil, fmt.Errorf("DUPLICATE_NAMES: %w", err)
	}
	cfg.Duplicates = duplicates

	if err := cfg.Thresholds().Validate(); err != nil {
		return nil, fmt.Errorf("THRESHOLD_LEVEL2..4: %w", err)
	}

	return cfg, nil
}

// Thresholds returns the configured severity thresholds.
func (c *Config) Thresholds() domain.Thresholds {
	return domain.Thresholds{
		Level2: c.ThresholdLevel2,
		Level3: c.ThresholdLevel3,
		Level4: c.ThresholdLevel4,
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.FeedURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("FEED_URL must be an absolute http(s) URL")
	}
	if c.FeedTimeout <= 0 {
		return errors.New("FEED_TIMEOUT must be positive")
	}
	if c.FeedMaxRetries < 0 {
		return errors.New("FEED_MAX_RETRIES must not be negative")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be positive")
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required")
	}
	return nil
}

// resolveLayout applies the FEED_WEEKS_* and FEED_LAST7_* overrides to the
// FEED_LAYOUT preset.
func (c *Config) resolveLayout() (domain.Layout, error) {
	layout, err := domain.LayoutByName(c.FeedLayout)
	if err != nil {
		return domain.Layout{}, fmt.Errorf("FEED_LAYOUT: %w (known: %s)", err, strings.Join(domain.LayoutNames(), ", "))
	}

	custom := false
	if c.FeedWeeksStart != nil {
		layout.WeeksStart = *c.FeedWeeksStart
		custom = true
	}
	if c.FeedWeeksEnd != nil {
		layout.WeeksEnd = *c.FeedWeeksEnd
		custom = true
	}
	if c.FeedLast7Source != "" {
		src, err := domain.ParseLast7DaysSource(c.FeedLast7Source)
		if err != nil {
			return domain.Layout{}, fmt.Errorf("FEED_LAST7_SOURCE: %w", err)
		}
		layout.Last7DaysSource = src
		custom = true
	}
	if c.FeedLast7Index != nil {
		layout.Last7DaysIndex = *c.FeedLast7Index
		custom = true
	}
	if !custom {
		return layout, nil
	}

	layout.Name = domain.LayoutCustom
	if err := layout.Validate(); err != nil {
		return domain.Layout{}, fmt.Errorf("FEED_WEEKS_*/FEED_LAST7_*: %w", err)
	}
	return layout, nil
}
