package oteltrace

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/the-yaml-life/tyl-tracing"
)

func TestNewProvider_Disabled(t *testing.T) {
	cfg := Config{
		Enabled:      false,
		ServiceName:  "test-service",
		ExporterType: "grpc",
	}

	provider, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if provider.tp != nil {
		t.Error("Expected noop provider (tp == nil)")
	}

	// Verify global tracer is noop
	tracer := otel.Tracer("test")
	_, span := tracer.Start(context.Background(), "noop-check")
	if span.IsRecording() {
		t.Error("Expected noop tracer span to be non-recording")
	}
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	cfg := Config{
		Enabled:      true,
		ServiceName:  "test-service",
		ExporterType: "invalid",
	}

	_, err := NewProvider(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for invalid exporter type")
	}

	expectedMsg := "unsupported exporter type: invalid (supported: grpc, http)"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestProvider_Shutdown(t *testing.T) {
	provider := &Provider{tp: nil}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Expected no error on noop shutdown, got: %v", err)
	}
}

func TestProvider_ShutdownCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &Provider{tp: nil}
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Expected no error on noop shutdown with canceled context, got: %v", err)
	}
}

func TestProvider_ConcurrentShutdown(t *testing.T) {
	provider := &Provider{tp: nil}

	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = provider.Shutdown(ctx)
			done <- struct{}{}
		}()
	}

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for concurrent shutdown")
		}
	}
}

func TestFromTraceConfig(t *testing.T) {
	cfg := tracing.NewTraceConfig("svc").
		WithEnvironment(tracing.EnvProduction).
		WithSamplingRate(0.5).
		WithExporter(tracing.ExporterGRPC, "collector:4317")

	pc := FromTraceConfig(cfg)
	if !pc.Enabled {
		t.Error("Expected provider enabled for grpc exporter")
	}
	if pc.ServiceName != "svc" {
		t.Errorf("Expected ServiceName=svc, got %s", pc.ServiceName)
	}
	if pc.Endpoint != "collector:4317" {
		t.Errorf("Expected Endpoint=collector:4317, got %s", pc.Endpoint)
	}
	if pc.Environment != "production" {
		t.Errorf("Expected Environment=production, got %s", pc.Environment)
	}
	if pc.SamplingRate != 0.5 {
		t.Errorf("Expected SamplingRate=0.5, got %f", pc.SamplingRate)
	}

	noop := FromTraceConfig(tracing.NewTraceConfig("svc"))
	if noop.Enabled {
		t.Error("Expected provider disabled for noop exporter")
	}
}
