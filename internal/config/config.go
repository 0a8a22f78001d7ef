// Package config loads relalg settings from a YAML file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RELALG_CATALOG.
const EnvPrefix = "RELALG"

// Config holds the resolved settings.
type Config struct {
	// Catalog is a YAML fixture or SQLite catalog path.
	Catalog  string `mapstructure:"catalog"`
	Coalesce bool   `mapstructure:"coalesce"`
	Format   string `mapstructure:"format"`
	LogLevel string `mapstructure:"log_level"`
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"catalog":   "catalog",
	"format":    "format",
	"log_level": "log-level",
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{Coalesce: true, Format: "text", LogLevel: "info"}
}

// Load reads path (if non-empty), applies RELALG_* environment variables
// and then any changed flags in fs. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("catalog", def.Catalog)
	v.SetDefault("coalesce", def.Coalesce)
	v.SetDefault("format", def.Format)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	if fs != nil {
		for key, name := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}
