package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	SnapshotDir string `mapstructure:"snapshot-dir"`
	OutDir      string `mapstructure:"out-dir"`

	FeedURL    string `mapstructure:"feed-url" validate:"omitempty,url"`
	StreamURL  string `mapstructure:"stream-url" validate:"omitempty,url"`
	EventsFile string `mapstructure:"events-file"`

	FromHeight uint64 `mapstructure:"from"`
	ToHeight   uint64 `mapstructure:"to"`

	ProtocolFeeRate uint32 `mapstructure:"protocol-fee-rate" validate:"lte=10000"`

	StatsDir string `mapstructure:"stats-dir"`
	PgDSN    string `mapstructure:"pg-dsn"`

	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DCL_REPLAYER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("protocol-fee-rate", uint32(2000))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
