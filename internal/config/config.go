// Package config merges flag, environment and file configuration for the
// auctioneer commands and parses schedule files into engine terms.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	ScheduleFile string
	Steps        uint64
	QuoteBudget  string
	Profile      string
	Seed         int64
	Out          string
	PGDSN        string
	LogLevel     string
}

// LoadSimulate merges config file, environment variables, and flags into
// SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("AUCTIONEER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("steps", uint64(200))
	v.SetDefault("profile", "flat")
	v.SetDefault("seed", int64(1))
	v.SetDefault("out", "./data/epochs.jsonl")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return SimulateConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := readConfigFile(v, cfgFile); err != nil {
		return SimulateConfig{}, err
	}

	cfg := SimulateConfig{
		ScheduleFile: v.GetString("schedule"),
		Steps:        v.GetUint64("steps"),
		QuoteBudget:  v.GetString("quote-budget"),
		Profile:      v.GetString("profile"),
		Seed:         v.GetInt64("seed"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

func readConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
