package main

import (
	"time"

	"github.com/adamthedash/iterators/config"
	"github.com/adamthedash/iterators/observability"
	"github.com/adamthedash/iterators/parmap"
	"github.com/adamthedash/iterators/resilience"
	"github.com/adamthedash/iterators/validation"
)

const (
	appName   = "pardigest"
	envPrefix = "PARDIGEST"
)

// Config is the full pardigest configuration. It is read from
// pardigest.yml, the environment (PARDIGEST_*) and command-line flags.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Parmap parmap.Config `yaml:"parmap" mapstructure:"parmap"`
	// Timeout bounds the digest of one file. Zero disables it.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// Retry applies to each file independently.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	// BufferSize is the per-worker read buffer in bytes.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size" validate:"min=512"`
	// KeepGoing logs failed files and carries on instead of stopping.
	KeepGoing bool `yaml:"keep_going" mapstructure:"keep_going"`

	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

func defaultConfig() Config {
	cfg := Config{
		ServiceConfig: config.ServiceConfig{Name: appName},
		Parmap:        parmap.DefaultConfig(),
		Retry:         resilience.DefaultRetryConfig(),
		BufferSize:    64 << 10,
		KeepGoing:     true,
		Telemetry:     observability.DefaultConfig(appName),
	}
	cfg.Parmap.Name = "digest"
	cfg.Retry.MaxAttempts = 1
	return cfg
}

// ApplyDefaults fills empty fields and copies shared settings into the
// telemetry config.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Parmap.ApplyDefaults()
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
}

// Validate checks the service fields, then every validate tag.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"workers":          "parmap.workers",
	"admission-buffer": "parmap.admission_buffer",
	"attempts":         "retry.max_attempts",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"otlp-endpoint":    "telemetry.endpoint",
	"otlp-insecure":    "telemetry.insecure",
}
