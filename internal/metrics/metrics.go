// v1
// internal/metrics/metrics.go
// Package metrics provides a minimal Prometheus-compatible registry for
// consumer instrumentation.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type counter struct {
	mu    sync.Mutex
	value uint64
}

func newCounter() *counter {
	return &counter{}
}

func (c *counter) inc() {
	c.mu.Lock()
	c.value++
	c.mu.Unlock()
}

func (c *counter) snapshot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

type counterVec struct {
	mu     sync.RWMutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (c *counterVec) inc(label string) {
	c.mu.Lock()
	c.values[label]++
	c.mu.Unlock()
}

func (c *counterVec) snapshot() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

type gauge struct {
	mu    sync.Mutex
	value float64
}

func newGauge() *gauge {
	return &gauge{}
}

func (g *gauge) set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

func (g *gauge) snapshot() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

var (
	consumedTotal   = newCounter()
	parseErrTotal   = newCounter()
	alertsTotal     = newCounterVec()
	windowDepth     = newGauge()
	windowSpread    = newGauge()
	lastTemperature = newGauge()
)

// IncConsumed counts one successfully fetched message.
func IncConsumed() {
	consumedTotal.inc()
}

// IncParseError counts one skipped malformed payload.
func IncParseError() {
	parseErrTotal.inc()
}

// IncAlert counts one raised alert by kind label.
func IncAlert(kind string) {
	alertsTotal.inc(strings.TrimSpace(kind))
}

// SetWindowDepth records the current number of buffered readings.
func SetWindowDepth(depth int) {
	if depth < 0 {
		depth = 0
	}
	windowDepth.set(float64(depth))
}

// SetWindowSpread records the current max-min spread of the window.
func SetWindowSpread(spread float64) {
	windowSpread.set(spread)
}

// SetLastTemperature records the most recent valid reading.
func SetLastTemperature(v float64) {
	lastTemperature.set(v)
}

// Render builds the Prometheus exposition for all registered metrics.
func Render() string {
	var b strings.Builder
	writeMetricHeader(&b, "buzzline_consumer_messages_total", "counter")
	writeSimpleCounter(&b, "buzzline_consumer_messages_total", consumedTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "buzzline_consumer_parse_errors_total", "counter")
	writeSimpleCounter(&b, "buzzline_consumer_parse_errors_total", parseErrTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "buzzline_alerts_total", "counter")
	writeCounter(&b, "buzzline_alerts_total", "kind", alertsTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "buzzline_window_depth", "gauge")
	writeGauge(&b, "buzzline_window_depth", windowDepth.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "buzzline_window_spread", "gauge")
	writeGauge(&b, "buzzline_window_spread", windowSpread.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "buzzline_last_temperature", "gauge")
	writeGauge(&b, "buzzline_last_temperature", lastTemperature.snapshot())
	b.WriteByte('\n')

	return b.String()
}

func writeMetricHeader(b *strings.Builder, name, typ string) {
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(typ)
	b.WriteByte('\n')
}

func writeCounter(b *strings.Builder, name, label string, values map[string]uint64) {
	if len(values) == 0 {
		fmt.Fprintf(b, "%s{} %d\n", name, 0)
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=\"%s\"} %d\n", name, label, escapeLabel(k), values[k])
	}
}

func writeSimpleCounter(b *strings.Builder, name string, value uint64) {
	fmt.Fprintf(b, "%s{} %d\n", name, value)
}

func writeGauge(b *strings.Builder, name string, value float64) {
	fmt.Fprintf(b, "%s{} %g\n", name, value)
}

func escapeLabel(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\"", "\\\"")
	return replacer.Replace(v)
}
