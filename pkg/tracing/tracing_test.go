package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/dalilfazara/dalil/config"
	"github.com/dalilfazara/dalil/pkg/logger"
)

func TestInit_Disabled(t *testing.T) {
	tel, err := Init(&config.TracingConfig{Enabled: false}, "test", logger.NewTestLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tel)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestInit_UnsupportedExporters(t *testing.T) {
	_, err := Init(&config.TracingConfig{Enabled: true, TraceExporter: "newrelic"}, "test", logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")

	_, err = Init(&config.TracingConfig{Enabled: true, MetricsExporter: " statsd "}, "test", logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metrics exporter: statsd")
}

func TestExporterFactories_RequireSettings(t *testing.T) {
	tests := []struct {
		name    string
		factory exporterFactory
		wantErr string
	}{
		{"jaeger", initJaegerExporter, "Jaeger endpoint is required"},
		{"zipkin", initZipkinExporter, "Zipkin endpoint is required"},
		{"stackdriver traces", initStackdriverTraceExporter, "Stackdriver project ID is required"},
		{"datadog traces", initDatadogTraceExporter, "Datadog agent address is required"},
		{"xray", initXRayExporter, "AWS region is required"},
		{"stackdriver metrics", initStackdriverMetricsExporter, "Stackdriver project ID is required"},
		{"datadog metrics", initDatadogMetricsExporter, "Datadog agent address is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tel := &Telemetry{logger: logger.NewTestLogger(t)}
			err := tt.factory(tel, &config.TracingConfig{ServiceName: "dalil-api"}, "test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, tel.closers)
		})
	}
}

func TestDatadogHelpers(t *testing.T) {
	assert.Equal(t, "dd:8126", datadogAgent(&config.TracingConfig{DatadogAgentAddress: "dd:8126", AgentEndpoint: "agent:1"}))
	assert.Equal(t, "agent:1", datadogAgent(&config.TracingConfig{AgentEndpoint: "agent:1"}))
	assert.Equal(t, []string{"env:production", "app:dalil"}, datadogTags(""))
	assert.Equal(t, []string{"env:staging", "app:dalil"}, datadogTags("staging"))
}

func TestTelemetry_ShutdownRunsClosersInReverse(t *testing.T) {
	var order []int
	tel := &Telemetry{}
	tel.onShutdown(func(context.Context) error { order = append(order, 1); return nil })
	tel.onShutdown(func(context.Context) error { order = append(order, 2); return errors.New("flush failed") })

	err := tel.Shutdown(context.Background())
	require.Error(t, err)
	assert.Equal(t, []int{2, 1}, order)

	var nilTel *Telemetry
	assert.NoError(t, nilTel.Shutdown(context.Background()))
}

func TestDisabled(t *testing.T) {
	assert.True(t, disabled(""))
	assert.True(t, disabled(" none "))
	assert.False(t, disabled("jaeger"))
}

func TestGetHTTPOptions(t *testing.T) {
	opts := GetHTTPOptions()
	require.NotNil(t, opts.FormatSpanName)
	req := httptest.NewRequest(http.MethodGet, "http://example.com/rest/v1/workers?select=*", nil)
	assert.Equal(t, "GET /rest/v1/workers", opts.FormatSpanName(req))
}

func TestRegisterViews(t *testing.T) {
	require.NoError(t, RegisterHTTPServerViews())
	require.NoError(t, RegisterViews())
	defer view.Unregister(Views...)

	Count(context.Background(), ContactClicks, KeyOutcome, OutcomeOK)
	Count(context.Background(), ContactClicks, KeyOutcome, OutcomeOK)

	rows, err := view.RetrieveData("dalil/contact_clicks")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].Data.(*view.CountData).Value)
}

func TestSpanHelpers(t *testing.T) {
	ctx, span := StartServiceSpan(context.Background(), "DirectoryService", "Register")
	require.NotNil(t, span)
	assert.Same(t, span, trace.FromContext(ctx))

	AddAttribute(ctx, "results", 3)
	AddAttribute(ctx, "page_url", "/")
	AddAttribute(ctx, "ok", true)
	AddAttribute(ctx, "other", 1.5)
	MarkSpanError(ctx, errors.New("boom"))
	MarkSpanError(ctx, nil)
	EndSpan(span, errors.New("boom"))

	// no span in context is a no-op
	AddAttribute(context.Background(), "k", "v")
	MarkSpanError(context.Background(), errors.New("boom"))
}

func TestWrapHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := WrapHTTPClient(nil)
	assert.NotNil(t, client.Transport)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
