// Package config loads colldex settings from a YAML file, a .env file and
// COLLDEX_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, with dots in the
// key replaced by underscores: COLLDEX_WATCH_MODE sets watch.mode.
const EnvPrefix = "COLLDEX"

// Config holds every setting colldex reads.
type Config struct {
	BasePath string      `mapstructure:"base_path"`
	Index    IndexConfig `mapstructure:"index"`
	Watch    WatchConfig `mapstructure:"watch"`
	Log      LogConfig   `mapstructure:"log"`
}

type IndexConfig struct {
	PruneRequests bool `mapstructure:"prune_requests"`
}

type WatchConfig struct {
	Mode         string        `mapstructure:"mode"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Buffer       int           `mapstructure:"buffer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BasePath: "~/.colldex/collections",
		Watch: WatchConfig{
			Mode:         "auto",
			PollInterval: 500 * time.Millisecond,
			Buffer:       64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration. cfgFile names an explicit config file, which
// must exist; when empty, $HOME/.colldex/config.yaml is used if present.
func Load(cfgFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".colldex"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	expanded, err := ExpandHome(cfg.BasePath)
	if err != nil {
		return Config{}, err
	}
	cfg.BasePath = expanded

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be caught by type conversion.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.BasePath) == "" {
		errs = append(errs, errors.New("base_path must not be empty"))
	}

	switch strings.ToLower(c.Watch.Mode) {
	case "auto", "native", "poll":
	default:
		errs = append(errs, fmt.Errorf("watch.mode %q is not one of auto, native, poll", c.Watch.Mode))
	}
	if c.Watch.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("watch.poll_interval must be positive, got %s", c.Watch.PollInterval))
	}
	if c.Watch.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("watch.buffer must be positive, got %d", c.Watch.Buffer))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SlogLevel parses the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", l.Level)
	}
	return level, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("base_path", d.BasePath)
	v.SetDefault("index.prune_requests", d.Index.PruneRequests)
	v.SetDefault("watch.mode", d.Watch.Mode)
	v.SetDefault("watch.poll_interval", d.Watch.PollInterval)
	v.SetDefault("watch.buffer", d.Watch.Buffer)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
