package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/domain/risingbar"
	"github.com/oshokin/meet-desk/internal/logger"
)

// Config holds the settings of one judging desk.
type Config struct {
	// GRPCAddress is the desk RPC address, used to listen and to dial.
	GRPCAddress string `yaml:"grpc_addr"`
	// HTTPAddress serves the display API; empty disables it.
	HTTPAddress string `yaml:"http_addr"`
	// DatabasePath is the SQLite file holding contests and attempts.
	DatabasePath string `yaml:"database_path"`
	// RedisAddress enables publishing live events to Redis when set.
	RedisAddress string `yaml:"redis_addr"`
	// RedisChannelPrefix prefixes the per-contest Redis channel.
	RedisChannelPrefix string `yaml:"redis_channel_prefix"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is console (default) or json.
	LogFormat string `yaml:"log_format,omitempty"`
	// Locale drives how competitor names are compared ("pl", "de-CH").
	Locale string `yaml:"locale"`
	// QueueLimit is how many upcoming attempts the desk shows.
	QueueLimit int `yaml:"queue_limit"`
	// ClampWeight is the weight of one collar for loading sheets.
	ClampWeight float64 `yaml:"clamp_weight"`
	// Plates is the platform plate inventory in loading order.
	Plates []plates.Plate `yaml:"plates"`
	// BarWeights are the standard bars per gender.
	BarWeights BarWeights `yaml:"bar_weights"`
}

// BarWeights are the bar weights per gender in kilograms.
type BarWeights struct {
	Male   float64 `yaml:"male"`
	Female float64 `yaml:"female"`
}

// overrides lists the settings that can come from the environment.
type overrides struct {
	GRPCAddress        string        `env:"GRPC_ADDR"`
	HTTPAddress        string        `env:"HTTP_ADDR"`
	DatabasePath       string        `env:"DATABASE_PATH"`
	RedisAddress       string        `env:"REDIS_ADDR"`
	RedisChannelPrefix string        `env:"REDIS_CHANNEL_PREFIX"`
	Timeout            time.Duration `env:"TIMEOUT"`
	LogLevel           string        `env:"LOG_LEVEL"`
	LogFormat          string        `env:"LOG_FORMAT"`
	Locale             string        `env:"LOCALE"`
	QueueLimit         int           `env:"QUEUE_LIMIT"`
}

const (
	// DefaultGRPCAddress is where a fresh desk listens for operator terminals.
	DefaultGRPCAddress = "127.0.0.1:7070"

	// DefaultHTTPAddress is where a fresh desk serves displays.
	DefaultHTTPAddress = "127.0.0.1:8080"

	// DefaultConfigFilename is the default filename for desk settings.
	DefaultConfigFilename = "meet-desk-settings.yaml"

	// DefaultDatabaseFilename is the default SQLite file.
	DefaultDatabaseFilename = "meet-desk.db"

	// DefaultRedisChannelPrefix prefixes live event channels.
	DefaultRedisChannelPrefix = "meet-desk:live"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MEET_DESK_"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errGRPCAddressRequired is returned when the desk address is missing.
	errGRPCAddressRequired = errors.New("grpc address must be provided")
	// errNegativeQueueLimit is returned for a negative queue length.
	errNegativeQueueLimit = errors.New("queue limit must not be negative")
	// errUnknownLogFormat is returned for a log format other than console or json.
	errUnknownLogFormat = errors.New("unknown log format")
)

// Default returns validated settings for a desk on this machine.
func Default() *Config {
	cfg := &Config{
		GRPCAddress: DefaultGRPCAddress,
		HTTPAddress: DefaultHTTPAddress,
		LogLevel:    "info",
	}

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv overrides settings with MEET_DESK_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	var o overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&cfg.GRPCAddress, o.GRPCAddress)
	setString(&cfg.HTTPAddress, o.HTTPAddress)
	setString(&cfg.DatabasePath, o.DatabasePath)
	setString(&cfg.RedisAddress, o.RedisAddress)
	setString(&cfg.RedisChannelPrefix, o.RedisChannelPrefix)
	setString(&cfg.LogLevel, o.LogLevel)
	setString(&cfg.LogFormat, o.LogFormat)
	setString(&cfg.Locale, o.Locale)

	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}

	if o.QueueLimit > 0 {
		cfg.QueueLimit = o.QueueLimit
	}

	return nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.GRPCAddress == "" {
		return errGRPCAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if settings.HTTPAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http address: %w", err)
		}
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.DatabasePath == "" {
		settings.DatabasePath = DefaultDatabaseFilename
	}

	if settings.RedisChannelPrefix == "" {
		settings.RedisChannelPrefix = DefaultRedisChannelPrefix
	}

	if settings.QueueLimit < 0 {
		return errNegativeQueueLimit
	}

	if settings.QueueLimit == 0 {
		settings.QueueLimit = risingbar.DefaultLimit
	}

	if settings.ClampWeight <= 0 {
		settings.ClampWeight = plates.DefaultClampWeight
	}

	if _, ok := logger.ParseFormat(settings.LogFormat); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogFormat, settings.LogFormat)
	}

	if settings.Locale != "" {
		if _, err := language.Parse(settings.Locale); err != nil {
			return fmt.Errorf("invalid locale %q: %w", settings.Locale, err)
		}
	}

	if len(settings.Plates) == 0 {
		settings.Plates = plates.DefaultPlates()
	}

	if settings.BarWeights.Male <= 0 {
		settings.BarWeights.Male = plates.DefaultMaleBarWeight
	}

	if settings.BarWeights.Female <= 0 {
		settings.BarWeights.Female = plates.DefaultFemaleBarWeight
	}

	plateConfig := settings.PlateConfig()
	if err := plateConfig.Validate(); err != nil {
		return fmt.Errorf("invalid equipment: %w", err)
	}

	return nil
}

// PlateConfig returns the equipment description for the load validator.
func (c *Config) PlateConfig() plates.Config {
	return plates.Config{
		Plates: append([]plates.Plate(nil), c.Plates...),
		BarWeights: map[meet.Gender]float64{
			meet.GenderMale:   c.BarWeights.Male,
			meet.GenderFemale: c.BarWeights.Female,
		},
	}
}

// LocaleTag returns the collation locale; an empty locale selects the root locale.
func (c *Config) LocaleTag() language.Tag {
	if c.Locale == "" {
		return language.Und
	}

	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und
	}

	return tag
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}
