package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	apierrors "langteacher/errors"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the application's configuration
type Config struct {
	APIBaseURL      string        `mapstructure:"API_BASE_URL"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ErrorClearDelay time.Duration `mapstructure:"ERROR_CLEAR_DELAY"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	DefaultLanguage string        `mapstructure:"DEFAULT_LANGUAGE"`
	DetectGrammar   bool          `mapstructure:"DETECT_GRAMMAR"`
	MockAPIAddr     string        `mapstructure:"MOCK_API_ADDR"`
}

const (
	DefaultAPIBaseURL      = "http://localhost:8000"
	DefaultErrorClearDelay = 5 * time.Second
)

func Load(logger *zap.Logger) *Config {
	var config Config
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")        // For running locally
	v.AddConfigPath("../")      // For running from a subdir
	v.AddConfigPath("./config") // Common config folder
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		// Config unmarshaling is critical - fail fast during bootstrap
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
			os.Exit(1)
		}
	}

	config.secondsToDurations()
	config.normalize()
	return &config
}

// LoadFile reads a single yaml file on top of the defaults. Environment
// variables still take precedence.
func LoadFile(path string) (*Config, error) {
	var config Config
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, apierrors.WrapErrorf(err, "read config %s", path)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, apierrors.WrapErrorf(err, "decode config %s", path)
	}
	config.secondsToDurations()
	config.normalize()
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_BASE_URL", DefaultAPIBaseURL)
	v.SetDefault("REQUEST_TIMEOUT", 0)
	v.SetDefault("ERROR_CLEAR_DELAY", 5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DEFAULT_LANGUAGE", "")
	v.SetDefault("DETECT_GRAMMAR", true)
	v.SetDefault("MOCK_API_ADDR", "")
}

// secondsToDurations converts the raw second counts viper decoded. It runs
// once, right after Unmarshal.
func (c *Config) secondsToDurations() {
	c.RequestTimeout *= time.Second
	c.ErrorClearDelay *= time.Second
}

// normalize cleans up values read from file/env. It is idempotent.
func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.DefaultLanguage = strings.TrimSpace(c.DefaultLanguage)

	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}
	if c.ErrorClearDelay <= 0 {
		c.ErrorClearDelay = DefaultErrorClearDelay
	}
}
