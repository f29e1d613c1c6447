package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relenghq/releng/internal/config"
)

func TestInitNoneIsNoOp(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Exporter: "none"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), config.TelemetryConfig{Exporter: "jaeger"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jaeger")
}

func TestInitStdoutProviderShutsDown(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Exporter: "stdout"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
