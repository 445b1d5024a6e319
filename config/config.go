package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the tool reads
const EnvPrefix = "PRICELIST_IMPORT"

// Config holds the application configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Import    ImportConfig    `mapstructure:"import"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// ImportConfig holds import engine configuration
type ImportConfig struct {
	ToleranceCents    int64  `mapstructure:"tolerance_cents"`
	PreviewRows       int    `mapstructure:"preview_rows"`
	Workers           int    `mapstructure:"workers"`
	MaxRows           int    `mapstructure:"max_rows"`
	BrandAwareEnabled bool   `mapstructure:"brand_aware_enabled"`
	TemplatesDir      string `mapstructure:"templates_dir"`
}

// TelemetryConfig holds OpenTelemetry exporter configuration
type TelemetryConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Endpoint       string        `mapstructure:"endpoint"`
	ServiceName    string        `mapstructure:"service_name"`
	Environment    string        `mapstructure:"environment"`
	ExportInterval time.Duration `mapstructure:"export_interval"`
}

// MetricsConfig holds Prometheus textfile export configuration
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// Validate checks values viper cannot constrain
func (c *Config) Validate() error {
	var errs []error
	if c.Import.ToleranceCents < 0 {
		errs = append(errs, fmt.Errorf("import.tolerance_cents must not be negative: %d", c.Import.ToleranceCents))
	}
	if c.Import.PreviewRows <= 0 {
		errs = append(errs, fmt.Errorf("import.preview_rows must be positive: %d", c.Import.PreviewRows))
	}
	if c.Import.Workers < 1 {
		errs = append(errs, fmt.Errorf("import.workers must be at least 1: %d", c.Import.Workers))
	}
	if c.Import.MaxRows < 0 {
		errs = append(errs, fmt.Errorf("import.max_rows must not be negative: %d", c.Import.MaxRows))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console: %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind env keys for nested config
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found. Variables already set in the
// environment win.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to parse %s: %w", envFile, err)
		}
		return nil
	}
	return fmt.Errorf("no .env file found")
}

// bindEnvVars binds the conventional unprefixed variables
func bindEnvVars(v *viper.Viper) {
	// Logging
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")

	// Telemetry
	_ = v.BindEnv("telemetry.endpoint", EnvPrefix+"_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("telemetry.service_name", EnvPrefix+"_TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME")
	_ = v.BindEnv("telemetry.environment", EnvPrefix+"_TELEMETRY_ENVIRONMENT", "ENVIRONMENT")

	// Import
	_ = v.BindEnv("import.templates_dir", EnvPrefix+"_IMPORT_TEMPLATES_DIR", "TEMPLATES_DIR")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.no_color", false)

	// Import defaults
	v.SetDefault("import.tolerance_cents", 2)
	v.SetDefault("import.preview_rows", 10)
	v.SetDefault("import.workers", 1)
	v.SetDefault("import.max_rows", 0)
	v.SetDefault("import.brand_aware_enabled", true)
	v.SetDefault("import.templates_dir", "")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", "pricelist-import")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.export_interval", 15*time.Second)

	// Metrics defaults
	v.SetDefault("metrics.textfile_path", "")
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}
