package tracing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTraceConfigDefaults(t *testing.T) {
	cfg := NewTraceConfig("my-service")

	assert.Equal(t, "my-service", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.SamplingRate)
	assert.Equal(t, 1000, cfg.MaxSpans)
	assert.Equal(t, ExporterNoop, cfg.Exporter.Type)
	require.NoError(t, cfg.Validate())
}

func TestTraceConfigBuilder(t *testing.T) {
	cfg := NewTraceConfig("test-service").
		WithEnvironment(EnvProduction).
		WithSamplingRate(0.5).
		WithMaxSpans(500).
		WithExporter(ExporterGRPC, "localhost:4317").
		WithRateLimit(100)

	assert.Equal(t, "test-service", cfg.ServiceName)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, 0.5, cfg.SamplingRate)
	assert.Equal(t, 500, cfg.MaxSpans)
	assert.Equal(t, "localhost:4317", cfg.Exporter.Endpoint)
	assert.Equal(t, 100.0, cfg.RatePerSecond)
	require.NoError(t, cfg.Validate())
}

func TestWithSamplingRateClamps(t *testing.T) {
	assert.Equal(t, 1.0, NewTraceConfig("s").WithSamplingRate(7.5).SamplingRate)
	assert.Equal(t, 0.0, NewTraceConfig("s").WithSamplingRate(-3).SamplingRate)
}

func TestTraceConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(TraceConfig) TraceConfig
		wantField string
	}{
		{
			name:      "empty service name",
			mutate:    func(c TraceConfig) TraceConfig { c.ServiceName = ""; return c },
			wantField: "service_name",
		},
		{
			name:      "sampling rate out of range",
			mutate:    func(c TraceConfig) TraceConfig { c.SamplingRate = 1.5; return c },
			wantField: "sampling_rate",
		},
		{
			name:      "zero max spans",
			mutate:    func(c TraceConfig) TraceConfig { c.MaxSpans = 0; return c },
			wantField: "max_spans",
		},
		{
			name:      "negative rate limit",
			mutate:    func(c TraceConfig) TraceConfig { c.RatePerSecond = -1; return c },
			wantField: "rate_per_second",
		},
		{
			name:      "unknown exporter",
			mutate:    func(c TraceConfig) TraceConfig { c.Exporter.Type = "carrier-pigeon"; return c },
			wantField: "exporter.type",
		},
		{
			name: "grpc exporter without endpoint",
			mutate: func(c TraceConfig) TraceConfig {
				c.Exporter = ExporterConfig{Type: ExporterGRPC}
				return c
			},
			wantField: "exporter.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(NewTraceConfig("svc")).Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in      string
		want    Environment
		wantErr bool
	}{
		{in: "dev", want: EnvDevelopment},
		{in: "development", want: EnvDevelopment},
		{in: "Test", want: EnvTesting},
		{in: "testing", want: EnvTesting},
		{in: "prod", want: EnvProduction},
		{in: "PRODUCTION", want: EnvProduction},
		{in: "staging", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseEnvironment(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestEnvironmentFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	assert.Equal(t, EnvProduction, EnvironmentFromEnv())

	t.Setenv("ENVIRONMENT", "nonsense")
	assert.Equal(t, EnvDevelopment, EnvironmentFromEnv())
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("TYL_SERVICE_NAME", "env-service")
	t.Setenv("TRACE_SAMPLING_RATE", "0.25")
	t.Setenv("TYL_TRACE_MAX_SPANS", "42")
	t.Setenv("TYL_ENVIRONMENT", "testing")

	cfg := NewTraceConfig("app")
	require.NoError(t, cfg.MergeEnv())

	assert.Equal(t, "env-service", cfg.ServiceName)
	assert.Equal(t, 0.25, cfg.SamplingRate)
	assert.Equal(t, 42, cfg.MaxSpans)
	assert.Equal(t, EnvTesting, cfg.Environment)
}

func TestMergeEnvPrefixedWins(t *testing.T) {
	t.Setenv("TYL_SERVICE_NAME", "prefixed")
	t.Setenv("SERVICE_NAME", "bare")

	cfg := NewTraceConfig("app")
	require.NoError(t, cfg.MergeEnv())
	assert.Equal(t, "prefixed", cfg.ServiceName)
}

func TestMergeEnvInvalidValues(t *testing.T) {
	t.Setenv("TRACE_SAMPLING_RATE", "not-a-number")
	cfg := NewTraceConfig("app")
	err := cfg.MergeEnv()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	os.Unsetenv("TRACE_SAMPLING_RATE")
	t.Setenv("TYL_TRACE_MAX_SPANS", "many")
	cfg = NewTraceConfig("app")
	assert.ErrorIs(t, cfg.MergeEnv(), ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service_name: file-service
service_version: "1.2.3"
environment: production
sampling_rate: 0.75
max_spans: 50
exporter:
  type: http
  endpoint: localhost:4318
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	want := TraceConfig{
		ServiceName:    "file-service",
		ServiceVersion: "1.2.3",
		Environment:    EnvProduction,
		SamplingRate:   0.75,
		MaxSpans:       50,
		Exporter:       ExporterConfig{Type: ExporterHTTP, Endpoint: "localhost:4318"},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, cfg.Validate())
}

func TestLoadFileUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
service_name: svc
sampel_rate: 0.5
`), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFileEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service_name: from-file\n"), 0o600))

	t.Setenv("TYL_SERVICE_NAME", "from-env")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ServiceName, "environment overrides file")
}
