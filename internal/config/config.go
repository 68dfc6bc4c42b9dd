// Package config loads server configuration from file and environment and
// validates it before anything starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultConfigDir is the per-user directory for config, policy, and packs.
const DefaultConfigDir = ".responseguard"

// Config is the root configuration of the service.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Verify VerifyConfig `mapstructure:"verify"`
	Logger LoggerConfig `mapstructure:"logger"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr is the listener address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// VerifyConfig selects the guard policy and the adapter behavior.
type VerifyConfig struct {
	// PolicyPath points at the guard-set YAML. Empty means
	// ~/.responseguard/guards.yaml, missing file means built-in defaults.
	PolicyPath string `mapstructure:"policy_path"`

	// PacksDir holds policy packs merged on top of the base guard set.
	PacksDir string `mapstructure:"packs_dir"`

	BlockOnFailure bool     `mapstructure:"block_on_failure"`
	Verbose        bool     `mapstructure:"verbose"`
	SkipPaths      []string `mapstructure:"skip_paths"`
	HistorySize    int      `mapstructure:"history_size" validate:"min=0"`
}

// LoggerConfig tunes the zap logger.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Load merges the config file (explicit path, working directory, or the
// user config dir) with RESPONSEGUARD_* environment overrides, then
// validates the result. A missing file is fine; defaults plus environment
// carry the service.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
		}
	}

	v.SetEnvPrefix("RESPONSEGUARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no file found: env + defaults carry the service
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Verify.PolicyPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Verify.PolicyPath = filepath.Join(home, DefaultConfigDir, "guards.yaml")
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("verify.block_on_failure", true)
	v.SetDefault("verify.history_size", 1000)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
