// Copyright 2021 The httpwire Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads the httpwire command's settings from defaults,
// an optional YAML file and HTTPWIRE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the loader consults,
// e.g. HTTPWIRE_CLIENT_TIMEOUT.
const EnvPrefix = "HTTPWIRE"

// Config holds every setting of the httpwire command.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Client    ClientConfig    `mapstructure:"client" yaml:"client"`
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`
}

// LoggerConfig configures the command's zap logger.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ClientConfig configures the retry and timeout policies.
type ClientConfig struct {
	// Timeout is the per-attempt timeout. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Retries is the number of retries after the first attempt.
	Retries   int           `mapstructure:"retries" yaml:"retries"`
	RetryBase time.Duration `mapstructure:"retry_base" yaml:"retry_base"`
	RetryMax  time.Duration `mapstructure:"retry_max" yaml:"retry_max"`
	// FailStatus, if positive, makes every response with a status code
	// at or above it a failure.
	FailStatus int `mapstructure:"fail_status" yaml:"fail_status"`
}

// TransportConfig configures the connection pool.
type TransportConfig struct {
	DialTimeout        time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ExpectTimeout      time.Duration `mapstructure:"expect_timeout" yaml:"expect_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	MaxIdlePerHost     int           `mapstructure:"max_idle_per_host" yaml:"max_idle_per_host"`
	RateLimit          float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst          int           `mapstructure:"rate_burst" yaml:"rate_burst"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// SetDefaults registers the default value of every key on v. Keys
// must be registered for environment variables to be unmarshalled.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.compress", false)

	v.SetDefault("client.timeout", 5*time.Second)
	v.SetDefault("client.retries", 4)
	v.SetDefault("client.retry_base", 50*time.Millisecond)
	v.SetDefault("client.retry_max", time.Second)
	v.SetDefault("client.fail_status", 0)

	v.SetDefault("transport.dial_timeout", 30*time.Second)
	v.SetDefault("transport.expect_timeout", time.Second)
	v.SetDefault("transport.idle_timeout", 90*time.Second)
	v.SetDefault("transport.max_idle_per_host", 2)
	v.SetDefault("transport.rate_limit", 0.0)
	v.SetDefault("transport.rate_burst", 1)
	v.SetDefault("transport.insecure_skip_verify", false)
}

// NewDefaultConfig returns the configuration made of defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration into v and returns it. If file is
// empty, ./httpwire.yaml is read when present; a named file must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("httpwire")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values no component accepts.
func (c *Config) Validate() error {
	var errs []error
	switch c.Logger.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, errors.New("client.timeout must not be negative"))
	}
	if c.Client.Retries < 0 {
		errs = append(errs, errors.New("client.retries must not be negative"))
	}
	if c.Client.RetryBase <= 0 || c.Client.RetryMax < c.Client.RetryBase {
		errs = append(errs, errors.New("client.retry_base must be positive and no more than client.retry_max"))
	}
	if c.Client.FailStatus < 0 || c.Client.FailStatus > 999 {
		errs = append(errs, fmt.Errorf("client.fail_status must be between 0 and 999, got %d", c.Client.FailStatus))
	}
	if c.Transport.RateLimit < 0 {
		errs = append(errs, errors.New("transport.rate_limit must not be negative"))
	}
	if c.Transport.RateLimit > 0 && c.Transport.RateBurst < 1 {
		errs = append(errs, errors.New("transport.rate_burst must be positive when transport.rate_limit is set"))
	}
	return errors.Join(errs...)
}
