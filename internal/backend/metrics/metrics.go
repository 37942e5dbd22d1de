// Package metrics wraps backend adapters with Prometheus instrumentation.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/twinsync/internal/backend"
)

// Collectors holds the adapter metrics. One set serves every wrapped
// adapter; the scheme label tells them apart.
type Collectors struct {
	ops     *prometheus.CounterVec
	errors  *prometheus.CounterVec
	latency *prometheus.HistogramVec
	bytes   *prometheus.CounterVec
}

// NewCollectors creates the adapter metrics and registers them with reg.
// Registering twice against the same registry reuses the existing
// collectors.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twinsync",
			Subsystem: "backend",
			Name:      "operations_total",
			Help:      "Total number of backend operations",
		}, []string{"scheme", "op"}),

		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twinsync",
			Subsystem: "backend",
			Name:      "operation_errors_total",
			Help:      "Total number of failed backend operations, not counting misses",
		}, []string{"scheme", "op"}),

		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "twinsync",
			Subsystem: "backend",
			Name:      "operation_duration_seconds",
			Help:      "Backend operation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
		}, []string{"scheme", "op"}),

		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twinsync",
			Subsystem: "backend",
			Name:      "bytes_total",
			Help:      "Encoded bytes moved through the backend",
		}, []string{"scheme", "direction"}),
	}

	var err error
	if c.ops, err = register(reg, c.ops); err != nil {
		return nil, err
	}
	if c.errors, err = register(reg, c.errors); err != nil {
		return nil, err
	}
	if c.latency, err = register(reg, c.latency); err != nil {
		return nil, err
	}
	if c.bytes, err = register(reg, c.bytes); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var alreadyErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyErr) {
			if existing, ok := alreadyErr.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register backend metrics: %w", err)
	}
	return c, nil
}

// Adapter is an instrumented backend adapter. It forwards Delete, List and
// Close when the wrapped adapter supports them and otherwise returns an
// error wrapping errors.ErrUnsupported.
type Adapter struct {
	scheme  string
	next    backend.Adapter
	metrics *Collectors
}

var (
	_ backend.Adapter = (*Adapter)(nil)
	_ backend.Deleter = (*Adapter)(nil)
	_ backend.Lister  = (*Adapter)(nil)
	_ io.Closer       = (*Adapter)(nil)
)

// Wrap instruments next under the given scheme label. A nil c returns an
// adapter that only forwards.
func Wrap(scheme string, next backend.Adapter, c *Collectors) *Adapter {
	return &Adapter{scheme: scheme, next: next, metrics: c}
}

// Unwrap returns the wrapped adapter.
func (a *Adapter) Unwrap() backend.Adapter { return a.next }

// Get implements backend.Adapter.
func (a *Adapter) Get(ctx context.Context, identifier string) ([]byte, error) {
	start := time.Now()
	data, err := a.next.Get(ctx, identifier)
	a.record("get", start, err)
	if err == nil {
		a.recordBytes("read", len(data))
	}
	return data, err
}

// Put implements backend.Adapter.
func (a *Adapter) Put(ctx context.Context, identifier string, data []byte) error {
	start := time.Now()
	err := a.next.Put(ctx, identifier, data)
	a.record("put", start, err)
	if err == nil {
		a.recordBytes("written", len(data))
	}
	return err
}

// Delete implements backend.Deleter.
func (a *Adapter) Delete(ctx context.Context, identifier string) error {
	d, ok := a.next.(backend.Deleter)
	if !ok {
		return fmt.Errorf("%s backend delete: %w", a.scheme, errors.ErrUnsupported)
	}
	start := time.Now()
	err := d.Delete(ctx, identifier)
	a.record("delete", start, err)
	return err
}

// List implements backend.Lister.
func (a *Adapter) List(ctx context.Context) ([]string, error) {
	l, ok := a.next.(backend.Lister)
	if !ok {
		return nil, fmt.Errorf("%s backend list: %w", a.scheme, errors.ErrUnsupported)
	}
	start := time.Now()
	ids, err := l.List(ctx)
	a.record("list", start, err)
	return ids, err
}

// Close closes the wrapped adapter if it is an io.Closer.
func (a *Adapter) Close() error {
	if c, ok := a.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (a *Adapter) record(op string, start time.Time, err error) {
	if a.metrics == nil {
		return
	}
	a.metrics.ops.WithLabelValues(a.scheme, op).Inc()
	a.metrics.latency.WithLabelValues(a.scheme, op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		a.metrics.errors.WithLabelValues(a.scheme, op).Inc()
	}
}

func (a *Adapter) recordBytes(direction string, n int) {
	if a.metrics == nil {
		return
	}
	a.metrics.bytes.WithLabelValues(a.scheme, direction).Add(float64(n))
}
