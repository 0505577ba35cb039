// Package config loads the vwapbands command settings using Viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/raykavin/vwapbands/pkg/indicator"
	"github.com/raykavin/vwapbands/pkg/logger"
	"github.com/raykavin/vwapbands/pkg/logger/zerolog"
)

const (
	EnvPrefix          = "VWAPBANDS"
	DefaultStoragePath = "./vwapbands.db"
)

// Config holds every section of the configuration file
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Bands   BandsConfig   `mapstructure:"bands"`
	Storage StorageConfig `mapstructure:"storage"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	Colored    bool   `mapstructure:"colored"`
	TimeLayout string `mapstructure:"time_layout"`
}

type BandsConfig struct {
	Source           string    `mapstructure:"source"`
	Interval         string    `mapstructure:"interval"`
	Multipliers      []float64 `mapstructure:"multipliers"`
	RejectZeroVolume bool      `mapstructure:"reject_zero_volume"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type ReplayConfig struct {
	Strategy  string  `mapstructure:"strategy"`
	Timeframe string  `mapstructure:"timeframe"`
	Quote     string  `mapstructure:"quote"`
	Balance   float64 `mapstructure:"balance"`
	Fee       float64 `mapstructure:"fee"`
}

func setDefaults(v *viper.Viper) {
	bands := indicator.DefaultVWAPBandsConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.colored", true)
	v.SetDefault("log.time_layout", "2006-01-02 15:04:05")
	v.SetDefault("bands.source", string(bands.Source))
	v.SetDefault("bands.interval", string(bands.Interval))
	v.SetDefault("bands.multipliers", bands.DevMultipliers)
	v.SetDefault("bands.reject_zero_volume", false)
	v.SetDefault("storage.path", DefaultStoragePath)
	v.SetDefault("replay.strategy", "meanie-pants-vwap")
	v.SetDefault("replay.timeframe", "")
	v.SetDefault("replay.quote", "USDT")
	v.SetDefault("replay.balance", 10000.0)
	v.SetDefault("replay.fee", 0.001)
}

// Load reads the optional .env file, then path when not empty, then the
// VWAPBANDS_ environment. A missing config file is created with the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := writeDefaults(v, path); err != nil {
				return nil, err
			}
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func writeDefaults(v *viper.Viper, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Validate checks the values the commands cannot start without
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := c.Bands.Indicator(); err != nil {
		return err
	}
	if c.Replay.Balance < 0 || c.Replay.Fee < 0 {
		return fmt.Errorf("replay balance and fee must not be negative")
	}
	return nil
}

// Indicator converts the section into the engine configuration
func (b BandsConfig) Indicator() (indicator.VWAPBandsConfig, error) {
	interval, err := indicator.ParseInterval(b.Interval)
	if err != nil {
		return indicator.VWAPBandsConfig{}, err
	}

	source := indicator.SourceType(strings.ToLower(b.Source))
	if err := source.Validate(); err != nil {
		return indicator.VWAPBandsConfig{}, err
	}

	return indicator.VWAPBandsConfig{
		DevMultipliers:   append([]float64(nil), b.Multipliers...),
		Source:           source,
		Interval:         interval,
		RejectZeroVolume: b.RejectZeroVolume,
	}, nil
}

// Logger builds the zerolog adapter described by the log section
func (l LogConfig) Logger() (*zerolog.ZerologAdapter, error) {
	return zerolog.New(zerolog.Options{
		Level:      l.Level,
		TimeLayout: l.TimeLayout,
		Colored:    l.Colored,
		JSON:       l.JSON,
	})
}
