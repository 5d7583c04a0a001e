package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics adapts an OpenTelemetry meter to core.MetricsRegistry.
// Instruments are created lazily and cached by name since the otel API
// wants each counter/gauge/histogram created once and reused.
type OTelMetrics struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Float64Counter
	histograms map[string]metric.Float64Histogram
	gauges     map[string]metric.Float64ObservableGauge
	gaugeVals  map[string]float64
}

// NewOTelMetrics wraps meter, typically obtained from an otel SDK
// MeterProvider; cmd/swarmctl does not build one.
func NewOTelMetrics(meter metric.Meter) *OTelMetrics {
	return &OTelMetrics{
		meter:      meter,
		counters:   make(map[string]metric.Float64Counter),
		histograms: make(map[string]metric.Float64Histogram),
		gauges:     make(map[string]metric.Float64ObservableGauge),
		gaugeVals:  make(map[string]float64),
	}
}

func (m *OTelMetrics) Counter(name string, labels ...string) {
	m.mu.Lock()
	c, ok := m.counters[name]
	if !ok {
		c, _ = m.meter.Float64Counter(name)
		m.counters[name] = c
	}
	m.mu.Unlock()
	if c != nil {
		c.Add(context.Background(), 1, metric.WithAttributes(attrsFromLabels(labels)...))
	}
}

func (m *OTelMetrics) Histogram(name string, value float64, labels ...string) {
	m.mu.Lock()
	h, ok := m.histograms[name]
	if !ok {
		h, _ = m.meter.Float64Histogram(name)
		m.histograms[name] = h
	}
	m.mu.Unlock()
	if h != nil {
		h.Record(context.Background(), value, metric.WithAttributes(attrsFromLabels(labels)...))
	}
}

func (m *OTelMetrics) Gauge(name string, value float64, labels ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gaugeVals[name] = value
	if _, ok := m.gauges[name]; ok {
		return
	}
	gaugeName := name
	g, err := m.meter.Float64ObservableGauge(name, metric.WithFloat64Callback(
		func(ctx context.Context, o metric.Float64Observer) error {
			m.mu.Lock()
			v := m.gaugeVals[gaugeName]
			m.mu.Unlock()
			o.Observe(v)
			return nil
		},
	))
	if err == nil {
		m.gauges[name] = g
	}
}

// attrsFromLabels turns a flat "key1", "val1", "key2", "val2", ...
// list into otel attributes, dropping a trailing unpaired key.
func attrsFromLabels(labels []string) []attribute.KeyValue {
	n := len(labels) / 2
	out := make([]attribute.KeyValue, 0, n)
	for i := 0; i+1 < len(labels); i += 2 {
		out = append(out, attribute.String(labels[i], labels[i+1]))
	}
	return out
}
