package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	"github.com/spf13/viper"

	"trade-edge-lab/internal/montecarlo"
)

// EnvPrefix is the prefix for environment overrides, e.g. TEL_SIMULATIONS.
const EnvPrefix = "TEL"

const (
	DefaultRiskPerTrade  = 250.0
	DefaultSimulations   = montecarlo.DefaultSimulations
	DefaultPathsToExport = 100
	DefaultOutputDir     = "reports"
	DefaultLogLevel      = "info"
)

// Config holds analysis and infrastructure settings.
type Config struct {
	RiskPerTrade        float64 `mapstructure:"risk_per_trade" validate:"gt=0"`
	Simulations         int     `mapstructure:"simulations" validate:"gte=1"`
	TradesPerSimulation int     `mapstructure:"trades_per_simulation" validate:"gte=0"` // 0 = history length
	Seed                string  `mapstructure:"seed" validate:"omitempty,number"`       // empty = random
	Workers             int     `mapstructure:"workers" validate:"gte=0"`               // 0 = GOMAXPROCS
	PathsToExport       int     `mapstructure:"paths_to_export" validate:"gte=0"`
	StrictMetrics       bool    `mapstructure:"strict_metrics"`
	OutputDir           string  `mapstructure:"output_dir" validate:"required"`
	PostgresDSN         string  `mapstructure:"postgres_dsn" validate:"omitempty,url"`
	ClickhouseDSN       string  `mapstructure:"clickhouse_dsn" validate:"omitempty,url"`
	LogLevel            string  `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	MetricsAddr         string  `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var defaults = map[string]any{
	"risk_per_trade":        DefaultRiskPerTrade,
	"simulations":           DefaultSimulations,
	"trades_per_simulation": 0,
	"seed":                  "",
	"workers":               0,
	"paths_to_export":       DefaultPathsToExport,
	"strict_metrics":        false,
	"output_dir":            DefaultOutputDir,
	"postgres_dsn":          "",
	"clickhouse_dsn":        "",
	"log_level":             DefaultLogLevel,
	"metrics_addr":          "",
}

// Load reads configuration from defaults, an optional YAML file, an optional
// .env file and TEL_* environment variables, in increasing precedence.
// Empty paths are skipped; a missing .env file is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Seed != "" {
		if _, err := strconv.ParseUint(c.Seed, 10, 64); err != nil {
			return fmt.Errorf("%w: seed must be an unsigned 64-bit integer: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// SeedOption returns the configured seed, or None for random seeding.
func (c *Config) SeedOption() optional.Option[uint64] {
	if c.Seed == "" {
		return optional.None[uint64]()
	}
	seed, err := strconv.ParseUint(c.Seed, 10, 64)
	if err != nil {
		return optional.None[uint64]()
	}
	return optional.Some(seed)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
