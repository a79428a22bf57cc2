package config

import (
	"time"

	"github.com/marmos91/nfsclient/internal/bytesize"
)

// ApplyDefaults fills unspecified fields with the documented defaults.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyClientDefaults(&cfg.Client)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyClientDefaults(cfg *ClientConfig) {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 8 * bytesize.KiB
	}
	if cfg.PortBase == 0 {
		cfg.PortBase = 600
	}
	if cfg.PortmapperPort == 0 {
		cfg.PortmapperPort = 111
	}
	if cfg.UDPRetries == 0 {
		cfg.UDPRetries = 2
	}
	if cfg.TimeoutPerTry == 0 {
		cfg.TimeoutPerTry = 500 * time.Millisecond
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:9355"
	}
}

// Default returns the configuration with every default applied, used by
// "nfsctl config init" to render the sample file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
