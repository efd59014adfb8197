package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/txengine/internal/logging"
)

// FileName is the config file looked up in the working directory.
const FileName = "txengine.yaml"

// EnvPrefix prefixes environment overrides, e.g. TXENGINE_ENGINE_WORKERS.
const EnvPrefix = "TXENGINE"

// Config represents the top-level txengine.yaml configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn or error
}

// EngineConfig controls how records are applied.
type EngineConfig struct {
	Workers int  `yaml:"workers" mapstructure:"workers"`
	Strict  bool `yaml:"strict" mapstructure:"strict"`
}

// OutputConfig names optional run artifacts. Empty paths disable them.
type OutputConfig struct {
	RejectsPath string `yaml:"rejects_path" mapstructure:"rejects_path"`
	MetricsPath string `yaml:"metrics_path" mapstructure:"metrics_path"`
}

// flagKeys maps config keys to the command-line flags that override them.
var flagKeys = map[string]string{
	"log.level":           "log-level",
	"engine.workers":      "workers",
	"engine.strict":       "strict",
	"output.rejects_path": "rejects",
	"output.metrics_path": "metrics",
}

// Load reads a txengine.yaml file from disk. Keys absent from the file keep
// their defaults; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			Workers: 1,
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers: must be at least 1, got %d", c.Engine.Workers)
	}
	return nil
}

// Resolve builds the effective configuration. Later layers win: defaults,
// the config file at path (or ./txengine.yaml when path is empty and the
// file exists), a .env file in the working directory, TXENGINE_* environment
// variables, and finally flags in fs that were set explicitly.
func Resolve(path string, fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		if _, err := os.Stat(FileName); err == nil {
			path = FileName
		}
	}

	base := Default()
	if path != "" {
		var err error
		if base, err = Load(path); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v, base)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("engine.workers", cfg.Engine.Workers)
	v.SetDefault("engine.strict", cfg.Engine.Strict)
	v.SetDefault("output.rejects_path", cfg.Output.RejectsPath)
	v.SetDefault("output.metrics_path", cfg.Output.MetricsPath)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}
