package observability

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellsim/cellsim/handover"
)

func TestCollectorRecordsSimulationEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.OnAttach(1, 2, 0)
	c.OnHandoverStart(1, 2, 3, 100)
	c.OnHandoverCommit(handover.HandoverEvent{Ue: 1, Source: 2, Target: 3, Time: 150})
	c.OnHandoverAbort(1, 3, 2, 400, "condition no longer holds")
	c.MeasurementTaken(1, 12)
	c.MeasurementTaken(1, 11)
	c.MeasurementGap(1)
	c.EventDispatched(2500000)
	c.RemPointsRendered(7500)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.AttachedUes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HandoversStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HandoversCommitted.WithLabelValues("2", "3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HandoversAborted.WithLabelValues("condition no longer holds")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Measurements))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MeasurementGaps))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EventsDispatched))
	assert.Equal(t, 2.5, testutil.ToFloat64(c.SimulatedTime))
	assert.Equal(t, 7500.0, testutil.ToFloat64(c.RemPoints))
}

func TestCollectorDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.EventDispatched(1)
	c.MeasurementTaken(1, 1)
	c.MeasurementGap(1)
	c.RemPointsRendered(1)
	c.OnAttach(1, 1, 0)
	c.OnHandoverCommit(handover.HandoverEvent{})
	assert.NotNil(t, c.Handler())
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	c.MeasurementTaken(1, 3)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "cellsim_measurements_total 1"))
}

func TestStdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Writer = &buf

	shutdown, err := InitTracing(context.Background(), cfg)
	require.NoError(t, err)
	_, span := StartSpan(context.Background(), "simulation.Run")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown)

	assert.Contains(t, buf.String(), "simulation.Run")

	shutdown, err = InitTracing(context.Background(), TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestUnsupportedExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "otlp"})
	assert.Error(t, err)
}

var _ handover.Listener = (*Collector)(nil)
