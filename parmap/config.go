package parmap

import (
	"runtime"

	"go.opentelemetry.io/otel/metric"

	"github.com/adamthedash/iterators/logger"
	"github.com/adamthedash/iterators/validation"
)

// Config sizes an engine. The zero AdmissionBuffer pointer means "same as
// Workers".
type Config struct {
	// Name labels logs, metrics and the trace span of the engine.
	Name string `yaml:"name" mapstructure:"name"`
	// Workers is the number of worker goroutines.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"min=1"`
	// AdmissionBuffer is how many tasks may wait in the queue beyond one per
	// worker. Zero makes the queue unbuffered.
	AdmissionBuffer *int `yaml:"admission_buffer" mapstructure:"admission_buffer" validate:"omitempty,min=0"`
}

// DefaultConfig returns one worker per available CPU and an admission
// buffer of the same size.
func DefaultConfig() Config {
	return Config{
		Name:    "parmap",
		Workers: runtime.GOMAXPROCS(0),
	}
}

// ApplyDefaults fills empty fields with their defaults. Workers is left
// alone so an explicit zero is reported by Validate.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "parmap"
	}
}

// Validate checks the config, returning an INVALID_CONFIG error.
func (c Config) Validate() error {
	return validation.Validate(c)
}

// Buffer returns the effective admission buffer.
func (c Config) Buffer() int {
	if c.AdmissionBuffer == nil {
		return c.Workers
	}
	return *c.AdmissionBuffer
}

// MaxInFlight returns Workers + Buffer, the most tasks an engine holds.
func (c Config) MaxInFlight() int {
	return c.Workers + c.Buffer()
}

// Option configures an engine.
type Option func(*options)

type options struct {
	cfg   Config
	log   *logger.Logger
	meter metric.Meter
}

// WithConfig replaces the whole config.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithWorkers sets the number of workers.
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Workers = n }
}

// WithAdmissionBuffer sets the admission buffer. Zero is honoured.
func WithAdmissionBuffer(n int) Option {
	return func(o *options) { o.cfg.AdmissionBuffer = &n }
}

// WithName sets the engine name.
func WithName(name string) Option {
	return func(o *options) { o.cfg.Name = name }
}

// WithLogger sets the logger. Defaults to logger.Get("parmap").
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMeter sets the meter used for engine metrics. Defaults to the global
// meter provider.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}
