package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes the carbon pipeline instruments.
type Metrics struct {
	expensesIngested metric.Int64Counter
	routesResolved   metric.Int64Counter
	distanceLookups  metric.Int64Counter
	carbonRecords    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the pipeline instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "canopact"
	}
	meter := provider.Meter(name)

	expensesIngested, err := meter.Int64Counter("canopact_expenses_ingested_total")
	if err != nil {
		return nil, err
	}
	routesResolved, err := meter.Int64Counter("canopact_routes_resolved_total")
	if err != nil {
		return nil, err
	}
	distanceLookups, err := meter.Int64Counter("canopact_distance_lookups_total")
	if err != nil {
		return nil, err
	}
	carbonRecords, err := meter.Int64Counter("canopact_carbon_records_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		expensesIngested: expensesIngested,
		routesResolved:   routesResolved,
		distanceLookups:  distanceLookups,
		carbonRecords:    carbonRecords,
	}, nil
}

// RecordExpensesIngested adds the number of expenses upserted from one report.
func (m *Metrics) RecordExpensesIngested(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.expensesIngested.Add(ctx, int64(count))
}

// RecordRouteResolved increments route creations by route category and outcome.
func (m *Metrics) RecordRouteResolved(ctx context.Context, routeCategory, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("route_category", strings.TrimSpace(routeCategory)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.routesResolved.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDistanceLookup increments distance lookups by provider and outcome.
func (m *Metrics) RecordDistanceLookup(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.distanceLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCarbonRecord increments persisted carbon rows by travel mode.
func (m *Metrics) RecordCarbonRecord(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("mode", strings.TrimSpace(mode)))
	m.carbonRecords.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"route_category": {},
	"outcome":        {},
	"provider":       {},
	"mode":           {},
	"status_code":    {},
	"reason":         {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
