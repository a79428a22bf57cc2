// Package config loads the nfsctl configuration from file, environment
// and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NFSCTL_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/nfsclient/internal/bytesize"
	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

// Config is the full nfsctl configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Client holds the per-mount protocol tunables.
	Client ClientConfig `mapstructure:"client" yaml:"client"`

	// Metrics controls the optional Prometheus endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig mirrors the logger package configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  validate:"omitempty,oneof=DEBUG INFO WARN ERROR" yaml:"level"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"            yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// ClientConfig holds the protocol tunables every mount inherits.
type ClientConfig struct {
	// BufferSize is the per-mount scratch buffer; it bounds the largest
	// RPC message. Accepts human-readable sizes like "8KiB".
	BufferSize bytesize.ByteSize `mapstructure:"buffer_size" yaml:"buffer_size"`

	// PortBase is the first local UDP source port; each mount takes
	// the next one.
	PortBase uint16 `mapstructure:"port_base" yaml:"port_base"`

	// PortmapperPort is the remote portmap port.
	PortmapperPort uint16 `mapstructure:"portmapper_port" yaml:"portmapper_port"`

	// UDPRetries is the retransmit budget per RPC.
	UDPRetries int `mapstructure:"udp_retries" validate:"gte=0,lte=16" yaml:"udp_retries"`

	// TimeoutPerTry is how long each transmission waits for its reply.
	TimeoutPerTry time.Duration `mapstructure:"timeout_per_try" validate:"omitempty,gt=0" yaml:"timeout_per_try"`

	// UID and GID are the numeric identity for AUTH_SYS credentials.
	UID uint32 `mapstructure:"uid" yaml:"uid"`
	GID uint32 `mapstructure:"gid" yaml:"gid"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen"  validate:"omitempty,hostname_port" yaml:"listen"`
}

// RegistryConfig converts the client section into the registry's
// configuration value.
func (c *ClientConfig) RegistryConfig() nfsclient.Config {
	return nfsclient.Config{
		BufferSize:     c.BufferSize.Int(),
		ClientPortBase: c.PortBase,
		PortmapperPort: c.PortmapperPort,
		UDPRetries:     c.UDPRetries,
		TryTimeout:     c.TimeoutPerTry,
	}
}

// Load reads configuration from configPath (or the default location
// when empty), applies environment overrides and defaults, and
// validates the result. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the struct tags with the shared validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Save writes the configuration to path in YAML.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/nfsctl/config.yaml, or its
// ~/.config equivalent.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nfsctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nfsctl")
}

// setupViper wires the NFSCTL_* environment namespace and the config
// file search path. Example override: NFSCTL_CLIENT_UDP_RETRIES=4.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("NFSCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the config file, treating "not found" as fine.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// decodeHooks combines the custom type hooks: human byte sizes and
// duration strings.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize
// so config files can say buffer_size: "8KiB" or buffer_size: 8192.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML numbers often arrive as float64.
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}
