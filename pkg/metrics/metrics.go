// Metrics collection for the slowdown post-processor
//
// Counters, gauges and histograms rendered in the Prometheus text
// exposition format. A run writes them once to a file that a textfile
// collector can pick up.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MetricType represents the type of metric
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Labels represents metric labels as key-value pairs
type Labels map[string]string

// Key generates a unique, order independent key for a label set
func (l Labels) Key() string {
	if len(l) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, k := range sortedLabelNames(l) {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(l[k])
	}
	return sb.String()
}

// String returns labels in Prometheus format
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range sortedLabelNames(l) {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeLabel(l[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

func (l Labels) with(name, value string) Labels {
	out := make(Labels, len(l)+1)
	for k, v := range l {
		out[k] = v
	}
	out[name] = value
	return out
}

func sortedLabelNames(l Labels) []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

// Metric is the interface for all metric types
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Write(sb *strings.Builder)
}

// series is the per label set storage shared by all metric types.
type series[T any] struct {
	mu     sync.Mutex
	values map[string]*T
	labels map[string]Labels
}

func (s *series[T]) load(labels Labels, init func() *T) *T {
	key := labels.Key()
	if s.values == nil {
		s.values = make(map[string]*T)
		s.labels = make(map[string]Labels)
	}
	v, ok := s.values[key]
	if !ok {
		v = init()
		s.values[key] = v
		s.labels[key] = labels
	}
	return v
}

// each visits label sets in key order. The caller holds mu.
func (s *series[T]) each(fn func(Labels, *T)) {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(s.labels[k], s.values[k])
	}
}

func writeHeader(sb *strings.Builder, m Metric) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", m.Name(), m.Help(), m.Name(), m.Type())
}

// Counter is a monotonically increasing metric
type Counter struct {
	name string
	help string
	data series[uint64]
}

// NewCounter creates a new counter metric
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Name() string     { return c.name }
func (c *Counter) Help() string     { return c.help }
func (c *Counter) Type() MetricType { return TypeCounter }

// Inc increments the counter by 1
func (c *Counter) Inc(labels Labels) {
	c.Add(labels, 1)
}

// Add increments the counter by the given value
func (c *Counter) Add(labels Labels, delta uint64) {
	c.data.mu.Lock()
	*c.data.load(labels, func() *uint64 { return new(uint64) }) += delta
	c.data.mu.Unlock()
}

// Get returns the current counter value for labels
func (c *Counter) Get(labels Labels) uint64 {
	c.data.mu.Lock()
	defer c.data.mu.Unlock()
	if v, ok := c.data.values[labels.Key()]; ok {
		return *v
	}
	return 0
}

func (c *Counter) Write(sb *strings.Builder) {
	writeHeader(sb, c)
	c.data.mu.Lock()
	defer c.data.mu.Unlock()
	c.data.each(func(l Labels, v *uint64) {
		fmt.Fprintf(sb, "%s%s %d\n", c.name, l, *v)
	})
}

// Gauge is a metric that can go up and down
type Gauge struct {
	name string
	help string
	data series[float64]
}

// NewGauge creates a new gauge metric
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Name() string     { return g.name }
func (g *Gauge) Help() string     { return g.help }
func (g *Gauge) Type() MetricType { return TypeGauge }

// Set sets the gauge to the given value
func (g *Gauge) Set(labels Labels, value float64) {
	g.data.mu.Lock()
	*g.data.load(labels, func() *float64 { return new(float64) }) = value
	g.data.mu.Unlock()
}

// Add adds the given value to the gauge
func (g *Gauge) Add(labels Labels, delta float64) {
	g.data.mu.Lock()
	*g.data.load(labels, func() *float64 { return new(float64) }) += delta
	g.data.mu.Unlock()
}

// Get returns the current gauge value for labels
func (g *Gauge) Get(labels Labels) float64 {
	g.data.mu.Lock()
	defer g.data.mu.Unlock()
	if v, ok := g.data.values[labels.Key()]; ok {
		return *v
	}
	return 0
}

func (g *Gauge) Write(sb *strings.Builder) {
	writeHeader(sb, g)
	g.data.mu.Lock()
	defer g.data.mu.Unlock()
	g.data.each(func(l Labels, v *float64) {
		fmt.Fprintf(sb, "%s%s %s\n", g.name, l, formatFloat(*v))
	})
}

// Histogram tracks the distribution of observations
type Histogram struct {
	name    string
	help    string
	buckets []float64
	data    series[histogramValue]
}

type histogramValue struct {
	count   uint64
	sum     float64
	buckets []uint64 // non-cumulative
}

// NewHistogram creates a new histogram metric with the given upper bounds
func NewHistogram(name, help string, buckets []float64) *Histogram {
	sorted := make([]float64, len(buckets))
	copy(sorted, buckets)
	sort.Float64s(sorted)
	return &Histogram{name: name, help: help, buckets: sorted}
}

// LinearBuckets creates count buckets starting at start with width intervals
func LinearBuckets(start, width float64, count int) []float64 {
	buckets := make([]float64, count)
	for i := range buckets {
		buckets[i] = start + float64(i)*width
	}
	return buckets
}

// ExponentialBuckets creates count buckets starting at start with factor multiplier
func ExponentialBuckets(start, factor float64, count int) []float64 {
	buckets := make([]float64, count)
	for i := range buckets {
		buckets[i] = start
		start *= factor
	}
	return buckets
}

func (h *Histogram) Name() string     { return h.name }
func (h *Histogram) Help() string     { return h.help }
func (h *Histogram) Type() MetricType { return TypeHistogram }

// Observe records a value in the histogram
func (h *Histogram) Observe(labels Labels, value float64) {
	h.data.mu.Lock()
	defer h.data.mu.Unlock()
	hv := h.data.load(labels, func() *histogramValue {
		return &histogramValue{buckets: make([]uint64, len(h.buckets))}
	})
	hv.count++
	hv.sum += value
	if i := sort.SearchFloat64s(h.buckets, value); i < len(h.buckets) {
		hv.buckets[i]++
	}
}

// HistogramSnapshot contains a point-in-time snapshot of histogram values
type HistogramSnapshot struct {
	Count   uint64
	Sum     float64
	Buckets map[float64]uint64 // cumulative, keyed by upper bound
}

// GetSnapshot returns a snapshot of histogram values for the given labels
func (h *Histogram) GetSnapshot(labels Labels) HistogramSnapshot {
	h.data.mu.Lock()
	defer h.data.mu.Unlock()
	snap := HistogramSnapshot{Buckets: make(map[float64]uint64, len(h.buckets))}
	hv, ok := h.data.values[labels.Key()]
	if !ok {
		return snap
	}
	snap.Count, snap.Sum = hv.count, hv.sum
	var cumulative uint64
	for i, bound := range h.buckets {
		cumulative += hv.buckets[i]
		snap.Buckets[bound] = cumulative
	}
	return snap
}

func (h *Histogram) Write(sb *strings.Builder) {
	writeHeader(sb, h)
	h.data.mu.Lock()
	defer h.data.mu.Unlock()
	h.data.each(func(l Labels, hv *histogramValue) {
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += hv.buckets[i]
			fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, l.with("le", formatFloat(bound)), cumulative)
		}
		fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, l.with("le", "+Inf"), hv.count)
		fmt.Fprintf(sb, "%s_sum%s %s\n", h.name, l, formatFloat(hv.sum))
		fmt.Fprintf(sb, "%s_count%s %d\n", h.name, l, hv.count)
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Registry holds registered metrics in registration order
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
	order   []string
}

// NewRegistry creates a new metrics registry
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

// Register adds a metric to the registry
func (r *Registry) Register(metric Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := metric.Name()
	if _, exists := r.metrics[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	r.metrics[name] = metric
	r.order = append(r.order, name)
	return nil
}

// MustRegister adds a metric and panics on error
func (r *Registry) MustRegister(metric Metric) {
	if err := r.Register(metric); err != nil {
		panic(err)
	}
}

// Get returns a metric by name
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics[name]
}

// Gather collects all metrics in Prometheus text format
func (r *Registry) Gather() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, name := range r.order {
		r.metrics[name].Write(&sb)
	}
	return sb.String()
}

// WriteFile writes the gathered metrics to path through a temporary file in
// the same directory, so a collector never reads a partial file.
func (r *Registry) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(r.Gather()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
