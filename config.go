package tracing

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/the-yaml-life/tyl-tracing/tracelog"
)

// ErrUnknownConfigField classifies strict YAML parse failures caused by
// unknown keys. Use errors.Is(err, ErrUnknownConfigField) instead of
// string matching.
var ErrUnknownConfigField = errors.New("unknown config field")

// Environment is the runtime environment a service runs in.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// ParseEnvironment maps common spellings onto an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(s) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "test", "testing":
		return EnvTesting, nil
	case "prod", "production":
		return EnvProduction, nil
	default:
		return "", fmt.Errorf("%w: invalid environment %q", ErrInvalidConfig, s)
	}
}

// EnvironmentFromEnv reads ENVIRONMENT, defaulting to development.
func EnvironmentFromEnv() Environment {
	env, err := ParseEnvironment(os.Getenv("ENVIRONMENT"))
	if err != nil {
		return EnvDevelopment
	}
	return env
}

// UnmarshalYAML accepts the same spellings ParseEnvironment does.
func (e *Environment) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseEnvironment(raw)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Exporter types understood by the OpenTelemetry adapter. ExporterNoop
// keeps spans in-process only.
const (
	ExporterNoop = "noop"
	ExporterGRPC = "grpc"
	ExporterHTTP = "http"
)

// ExporterConfig selects how finished spans leave the process.
type ExporterConfig struct {
	Type     string `yaml:"type"`
	Endpoint string `yaml:"endpoint"`
}

// TraceConfig configures a tracer.
type TraceConfig struct {
	ServiceName    string         `yaml:"service_name"`
	ServiceVersion string         `yaml:"service_version"`
	Environment    Environment    `yaml:"environment"`
	SamplingRate   float64        `yaml:"sampling_rate"`
	MaxSpans       int            `yaml:"max_spans"`
	RatePerSecond  float64        `yaml:"rate_per_second"`
	Exporter       ExporterConfig `yaml:"exporter"`
}

// NewTraceConfig returns a config with development defaults: sample
// everything, retain up to 1000 finished spans, export nowhere.
func NewTraceConfig(serviceName string) TraceConfig {
	return TraceConfig{
		ServiceName:  serviceName,
		Environment:  EnvironmentFromEnv(),
		SamplingRate: 1.0,
		MaxSpans:     1000,
		Exporter:     ExporterConfig{Type: ExporterNoop},
	}
}

// WithEnvironment overrides the detected environment.
func (c TraceConfig) WithEnvironment(env Environment) TraceConfig {
	c.Environment = env
	return c
}

// WithSamplingRate sets the sampling rate, clamped to [0, 1].
func (c TraceConfig) WithSamplingRate(rate float64) TraceConfig {
	c.SamplingRate = clamp01(rate)
	return c
}

// WithMaxSpans sets the finished-span retention limit.
func (c TraceConfig) WithMaxSpans(maxSpans int) TraceConfig {
	c.MaxSpans = maxSpans
	return c
}

// WithExporter selects the exporter type and endpoint.
func (c TraceConfig) WithExporter(exporterType, endpoint string) TraceConfig {
	c.Exporter = ExporterConfig{Type: exporterType, Endpoint: endpoint}
	return c
}

// WithRateLimit caps sampled root spans per second. Zero disables the cap.
func (c TraceConfig) WithRateLimit(perSecond float64) TraceConfig {
	c.RatePerSecond = perSecond
	return c
}

// Validate checks the configuration for internal consistency.
func (c TraceConfig) Validate() error {
	if c.ServiceName == "" {
		return validationErr("service_name", "cannot be empty")
	}
	if c.SamplingRate < 0.0 || c.SamplingRate > 1.0 {
		return validationErr("sampling_rate", "must be between 0.0 and 1.0")
	}
	if c.MaxSpans <= 0 {
		return validationErr("max_spans", "must be greater than 0")
	}
	if c.RatePerSecond < 0 {
		return validationErr("rate_per_second", "cannot be negative")
	}
	switch c.Exporter.Type {
	case ExporterNoop:
	case ExporterGRPC, ExporterHTTP:
		if c.Exporter.Endpoint == "" {
			return validationErr("exporter.endpoint", "required for grpc and http exporters")
		}
	default:
		return validationErr("exporter.type", fmt.Sprintf("unsupported type %q (supported: noop, grpc, http)", c.Exporter.Type))
	}
	return nil
}

// MergeEnv overlays environment variables onto the config. TYL_-prefixed
// variables win over their bare counterparts.
func (c *TraceConfig) MergeEnv() error {
	logger := tracelog.WithComponent("config")

	if v := lookupEnv(logger, "TYL_SERVICE_NAME", "SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := lookupEnv(logger, "TYL_SERVICE_VERSION", "SERVICE_VERSION"); v != "" {
		c.ServiceVersion = v
	}
	if v := lookupEnv(logger, "TYL_TRACE_SAMPLING_RATE", "TRACE_SAMPLING_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid sampling rate %q: %v", ErrInvalidConfig, v, err)
		}
		c.SamplingRate = clamp01(rate)
	}
	if v := lookupEnv(logger, "TYL_TRACE_MAX_SPANS", "TRACE_MAX_SPANS"); v != "" {
		maxSpans, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: invalid max spans %q: %v", ErrInvalidConfig, v, err)
		}
		c.MaxSpans = maxSpans
	}
	if v := lookupEnv(logger, "TYL_TRACE_EXPORTER", "TRACE_EXPORTER"); v != "" {
		c.Exporter.Type = v
	}
	if v := lookupEnv(logger, "TYL_TRACE_ENDPOINT", "TRACE_ENDPOINT"); v != "" {
		c.Exporter.Endpoint = v
	}
	if v := lookupEnv(logger, "TYL_ENVIRONMENT", "ENVIRONMENT"); v != "" {
		env, err := ParseEnvironment(v)
		if err != nil {
			return err
		}
		c.Environment = env
	}
	return nil
}

// FromEnv builds a config entirely from the environment.
func FromEnv() (TraceConfig, error) {
	cfg := NewTraceConfig("app")
	if err := cfg.MergeEnv(); err != nil {
		return TraceConfig{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML config file with strict field checking and merges
// the environment on top.
func LoadFile(path string) (TraceConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator supplied
	if err != nil {
		return TraceConfig{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := NewTraceConfig("app")
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return TraceConfig{}, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return TraceConfig{}, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.MergeEnv(); err != nil {
		return TraceConfig{}, err
	}
	return cfg, nil
}

// lookupEnv reads the first set, non-empty variable from keys and logs
// the source, so operators can see where each value came from.
func lookupEnv(logger zerolog.Logger, keys ...string) string {
	for _, key := range keys {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			continue
		}
		logger.Debug().
			Str("key", key).
			Str("value", value).
			Str("source", "environment").
			Msg("using environment variable")
		return value
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
