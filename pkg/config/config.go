// Package config holds the settings of the interop layer: whether the
// convertibility cache is used, how far array mirrors may grow (which also
// bounds exported arrays) and how diagnostics are logged.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/guregu/null.v3"
)

// DefaultMirrorLimit is the default growth limit of array mirrors. It also
// bounds the length of arrays exported to host slices.
const DefaultMirrorLimit = 1 << 24

// Config represents the interop layer configuration.
type Config struct {
	ConversionCache null.Bool   `json:"conversionCache,omitempty" envconfig:"JSINTEROP_CONVERSION_CACHE"`
	MirrorLimit     null.Int    `json:"mirrorLimit,omitempty" envconfig:"JSINTEROP_MIRROR_LIMIT"`
	LogLevel        null.String `json:"logLevel,omitempty" envconfig:"JSINTEROP_LOG_LEVEL"`
	LogFormat       null.String `json:"logFormat,omitempty" envconfig:"JSINTEROP_LOG_FORMAT"`
}

// NewConfig creates a new config with the default values.
func NewConfig() Config {
	return Config{
		ConversionCache: null.NewBool(true, false),
		MirrorLimit:     null.NewInt(DefaultMirrorLimit, false),
		LogLevel:        null.NewString("warning", false),
		LogFormat:       null.NewString("text", false),
	}
}

// Apply applies the valid options of cfg to the receiver.
func (c Config) Apply(cfg Config) Config {
	if cfg.ConversionCache.Valid {
		c.ConversionCache = cfg.ConversionCache
	}
	if cfg.MirrorLimit.Valid {
		c.MirrorLimit = cfg.MirrorLimit
	}
	if cfg.LogLevel.Valid {
		c.LogLevel = cfg.LogLevel
	}
	if cfg.LogFormat.Valid {
		c.LogFormat = cfg.LogFormat
	}
	return c
}

// Validate reports options with unusable values.
func (c Config) Validate() error {
	if c.MirrorLimit.Valid && c.MirrorLimit.Int64 <= 0 {
		return fmt.Errorf("mirror limit must be positive, got %d", c.MirrorLimit.Int64)
	}
	if c.LogLevel.Valid {
		if _, err := logrus.ParseLevel(c.LogLevel.String); err != nil {
			return fmt.Errorf("invalid log level %q: %w", c.LogLevel.String, err)
		}
	}
	if c.LogFormat.Valid {
		switch strings.ToLower(c.LogFormat.String) {
		case "text", "json":
		default:
			return fmt.Errorf("invalid log format %q, expected text or json", c.LogFormat.String)
		}
	}
	return nil
}

// ParseJSON parses the supplied JSON into a Config.
func ParseJSON(data json.RawMessage) (Config, error) {
	conf := Config{}
	err := json.Unmarshal(data, &conf)
	return conf, err
}

// ReadFile parses the JSON config file at path on fs.
func ReadFile(fs afero.Fs, path string) (Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	conf, err := ParseJSON(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return conf, nil
}

// GetConsolidatedConfig combines {default config values + JSON config file +
// environment vars}, and returns the final result. An empty path skips the
// file.
func GetConsolidatedConfig(fs afero.Fs, path string, env map[string]string, logger logrus.FieldLogger) (Config, error) {
	result := NewConfig()
	if path != "" {
		fileConf, err := ReadFile(fs, path)
		if err != nil {
			return result, err
		}
		result = result.Apply(fileConf)
		if logger != nil {
			logger.WithField("path", path).Debug("Loaded interop config file")
		}
	}

	envConfig := Config{}
	if err := envconfig.Process("", &envConfig, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}); err != nil {
		return result, err
	}
	result = result.Apply(envConfig)

	return result, result.Validate()
}
