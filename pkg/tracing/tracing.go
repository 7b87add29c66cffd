// Package tracing wires OpenCensus trace and metrics exporters and offers
// the span helpers used by services, repositories and HTTP clients.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/dalilfazara/dalil/config"
	"github.com/dalilfazara/dalil/pkg/logger"
)

// Telemetry holds what Init started so it can be flushed on shutdown
type Telemetry struct {
	logger  logger.Logger
	closers []func(ctx context.Context) error
}

func (t *Telemetry) onShutdown(fn func(ctx context.Context) error) {
	t.closers = append(t.closers, fn)
}

// Shutdown flushes exporters and stops the metrics server
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type exporterFactory func(t *Telemetry, cfg *config.TracingConfig, environment string) error

var traceExporters = map[string]exporterFactory{
	"jaeger":      initJaegerExporter,
	"zipkin":      initZipkinExporter,
	"stackdriver": initStackdriverTraceExporter,
	"datadog":     initDatadogTraceExporter,
	"xray":        initXRayExporter,
}

var metricsExporters = map[string]exporterFactory{
	"prometheus":  initPrometheusExporter,
	"stackdriver": initStackdriverMetricsExporter,
	"datadog":     initDatadogMetricsExporter,
}

func disabled(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || name == "none"
}

// Init configures sampling, the trace exporter and every comma separated
// metrics exporter. With tracing disabled it returns an empty Telemetry.
// codecov:ignore:start
func Init(cfg *config.TracingConfig, environment string, log logger.Logger) (*Telemetry, error) {
	t := &Telemetry{logger: log}
	if !cfg.Enabled {
		return t, nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if !disabled(cfg.TraceExporter) {
		factory, ok := traceExporters[cfg.TraceExporter]
		if !ok {
			return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
		}
		if err := factory(t, cfg, environment); err != nil {
			return nil, err
		}
	}

	if err := initMetricsExporters(t, cfg, environment); err != nil {
		return nil, err
	}

	if err := RegisterHTTPServerViews(); err != nil {
		return nil, fmt.Errorf("failed to register HTTP server views: %w", err)
	}
	if err := RegisterViews(); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"trace_exporter":   cfg.TraceExporter,
		"metrics_exporter": cfg.MetricsExporter,
		"sampling":         cfg.SamplingProbability,
	}).Info("OpenCensus initialized")
	return t, nil
}

func initMetricsExporters(t *Telemetry, cfg *config.TracingConfig, environment string) error {
	if disabled(cfg.MetricsExporter) {
		return nil
	}

	for _, name := range strings.Split(cfg.MetricsExporter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		factory, ok := metricsExporters[name]
		if !ok {
			return fmt.Errorf("unsupported metrics exporter: %s", name)
		}
		if err := factory(t, cfg, environment); err != nil {
			return fmt.Errorf("failed to initialize %s metrics exporter: %w", name, err)
		}
	}

	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return fmt.Errorf("failed to register database views: %w", err)
	}
	return nil
}

func initJaegerExporter(t *Telemetry, cfg *config.TracingConfig, _ string) error {
	if cfg.JaegerEndpoint == "" {
		return fmt.Errorf("Jaeger endpoint is required for Jaeger exporter")
	}

	je, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.JaegerEndpoint,
		ServiceName:       cfg.ServiceName,
		Process:           jaeger.Process{ServiceName: cfg.ServiceName},
	})
	if err != nil {
		return fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	trace.RegisterExporter(je)
	t.onShutdown(func(context.Context) error {
		je.Flush()
		return nil
	})
	return nil
}

func initZipkinExporter(t *Telemetry, cfg *config.TracingConfig, _ string) error {
	if cfg.ZipkinEndpoint == "" {
		return fmt.Errorf("Zipkin endpoint is required for Zipkin exporter")
	}

	reporter := zipkinhttp.NewReporter(cfg.ZipkinEndpoint)
	trace.RegisterExporter(zipkin.NewExporter(reporter, nil))
	t.onShutdown(func(context.Context) error {
		return reporter.Close()
	})
	return nil
}

func initStackdriverTraceExporter(t *Telemetry, cfg *config.TracingConfig, _ string) error {
	if cfg.StackdriverProjectID == "" {
		return fmt.Errorf("Stackdriver project ID is required for Stackdriver exporter")
	}

	se, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: cfg.StackdriverProjectID})
	if err != nil {
		return fmt.Errorf("failed to create Stackdriver exporter: %w", err)
	}

	trace.RegisterExporter(se)
	t.onShutdown(func(context.Context) error {
		se.Flush()
		return nil
	})
	return nil
}

func datadogAgent(cfg *config.TracingConfig) string {
	if cfg.DatadogAgentAddress != "" {
		return cfg.DatadogAgentAddress
	}
	return cfg.AgentEndpoint
}

func datadogTags(environment string) []string {
	if environment == "" {
		environment = "production"
	}
	return []string{"env:" + environment, "app:dalil"}
}

func initDatadogTraceExporter(t *Telemetry, cfg *config.TracingConfig, environment string) error {
	agent := datadogAgent(cfg)
	if agent == "" {
		return fmt.Errorf("Datadog agent address is required for Datadog exporter")
	}

	exporter, err := datadog.NewExporter(datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: agent,
		StatsAddr: agent,
		Tags:      datadogTags(environment),
	})
	if err != nil {
		return fmt.Errorf("failed to create Datadog exporter: %w", err)
	}

	trace.RegisterExporter(exporter)
	t.onShutdown(func(context.Context) error {
		exporter.Stop()
		return nil
	})
	return nil
}

func initXRayExporter(_ *Telemetry, cfg *config.TracingConfig, _ string) error {
	if cfg.XRayRegion == "" {
		return fmt.Errorf("AWS region is required for X-Ray exporter")
	}

	exporter, err := aws.NewExporter(aws.WithRegion(cfg.XRayRegion), aws.WithVersion("latest"))
	if err != nil {
		return fmt.Errorf("failed to create AWS X-Ray exporter: %w", err)
	}

	trace.RegisterExporter(exporter)
	return nil
}

func initPrometheusExporter(t *Telemetry, cfg *config.TracingConfig, _ string) error {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: strings.ReplaceAll(cfg.ServiceName, "-", "_"),
		OnError: func(err error) {
			t.logger.WithField("error", err.Error()).Error("Prometheus exporter error")
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	view.RegisterExporter(pe)

	if cfg.PrometheusPort <= 0 {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", pe)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.logger.WithField("error", err.Error()).Error("Prometheus metrics server failed")
		}
	}()
	t.onShutdown(server.Shutdown)
	return nil
}

func initStackdriverMetricsExporter(t *Telemetry, cfg *config.TracingConfig, _ string) error {
	if cfg.StackdriverProjectID == "" {
		return fmt.Errorf("Stackdriver project ID is required for Stackdriver metrics exporter")
	}

	se, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.StackdriverProjectID,
		MetricPrefix: cfg.ServiceName,
		OnError: func(err error) {
			t.logger.WithField("error", err.Error()).Error("Stackdriver metrics exporter error")
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create Stackdriver metrics exporter: %w", err)
	}

	view.RegisterExporter(se)
	t.onShutdown(func(context.Context) error {
		se.Flush()
		return nil
	})
	return nil
}

func initDatadogMetricsExporter(t *Telemetry, cfg *config.TracingConfig, environment string) error {
	agent := datadogAgent(cfg)
	if agent == "" {
		return fmt.Errorf("Datadog agent address is required for Datadog metrics exporter")
	}

	options := datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: agent,
		StatsAddr: agent,
		Tags:      datadogTags(environment),
		OnError: func(err error) {
			t.logger.WithField("error", err.Error()).Error("Datadog metrics exporter error")
		},
	}
	if cfg.DatadogAPIKey != "" {
		options.GlobalTags = map[string]interface{}{"api_key": cfg.DatadogAPIKey}
	}

	exporter, err := datadog.NewExporter(options)
	if err != nil {
		return fmt.Errorf("failed to create Datadog metrics exporter: %w", err)
	}

	view.RegisterExporter(exporter)
	t.onShutdown(func(context.Context) error {
		exporter.Stop()
		return nil
	})
	return nil
}

// codecov:ignore:end

// GetHTTPOptions returns the client transport used for outgoing calls to
// the REST data backend and blob storage
func GetHTTPOptions() ochttp.Transport {
	return ochttp.Transport{
		FormatSpanName: func(req *http.Request) string {
			return fmt.Sprintf("%s %s", req.Method, req.URL.Path)
		},
		StartOptions: trace.StartOptions{
			Sampler: trace.AlwaysSample(),
		},
	}
}

// RegisterHTTPServerViews registers views for HTTP server metrics
func RegisterHTTPServerViews() error {
	return view.Register(
		ochttp.ServerRequestCountView,
		ochttp.ServerRequestBytesView,
		ochttp.ServerResponseBytesView,
		ochttp.ServerLatencyView,
		ochttp.ServerRequestCountByMethod,
		ochttp.ServerResponseCountByStatusCode,
	)
}
