package observability

import (
	"context"
	"testing"

	"xjsf/internal/models"
	"xjsf/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name       string
		metrics    bool
		tracing    bool
		sampleRate float64
	}{
		{"metrics only", true, false, 1},
		{"tracing only", false, true, 1},
		{"both", true, true, 0.5},
		{"neither", false, false, 0},
		{"never sample", false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := models.MetricsConfig{Enabled: tt.metrics, Path: "/metrics", Port: 9090}
			obs := models.ObservabilityConfig{
				ServiceName: "xjsf-test",
				Tracing: models.TracingConfig{
					Enabled:    tt.tracing,
					Exporter:   "stdout",
					SampleRate: tt.sampleRate,
				},
			}

			provider, err := Setup(metrics, obs, version.Info{Version: "test"})
			require.NoError(t, err)
			assert.Equal(t, tt.tracing, provider.tracerProvider != nil)
			assert.Equal(t, tt.metrics, provider.registry != nil)
			assert.Equal(t, tt.metrics, provider.Gatherer() != nil)

			assert.NoError(t, provider.Shutdown(context.Background()))
		})
	}
}

func TestSetup_InvalidExporter(t *testing.T) {
	obs := models.ObservabilityConfig{
		ServiceName: "xjsf-test",
		Tracing:     models.TracingConfig{Enabled: true, Exporter: "zipkin", SampleRate: 1},
	}

	provider, err := Setup(models.MetricsConfig{}, obs, version.Info{})
	require.Error(t, err)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestProvider_ShutdownNilProviders(t *testing.T) {
	p := &Provider{}
	assert.NoError(t, p.Shutdown(context.Background()))
}
