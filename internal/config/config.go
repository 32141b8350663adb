package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Flatten  FlattenConfig  `yaml:"flatten" mapstructure:"flatten"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// OverpassConfig configures the Overpass API client.
type OverpassConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateRPS     float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
}

// Timeout returns the request timeout as a duration.
func (c OverpassConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// DataConfig configures filesystem layout and catalog overrides.
type DataConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// FlattenConfig configures consolidated output generation.
type FlattenConfig struct {
	SplitByPurpose bool `yaml:"split_by_purpose" mapstructure:"split_by_purpose"`
	XLSX           bool `yaml:"xlsx" mapstructure:"xlsx"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("overpass.base_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.user_agent", "poi-cli/1.0")
	v.SetDefault("overpass.timeout_secs", 60)
	v.SetDefault("overpass.max_retries", 5)
	v.SetDefault("overpass.rate_rps", 1.0)
	v.SetDefault("data.dir", "data")
	v.SetDefault("flatten.split_by_purpose", false)
	v.SetDefault("flatten.xlsx", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
