// Package metrics holds the prometheus collectors of the knowledge graph client.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kgclient"

// Resolver lookup results.
const (
	LookupHit        = "hit"
	LookupSharedHit  = "shared_hit"
	LookupMiss       = "miss"
	LookupUnresolved = "unresolved"
)

// Collectors groups every client metric. A nil *Collectors records nothing.
type Collectors struct {
	transportRequests *prometheus.CounterVec
	transportDuration *prometheus.HistogramVec
	resolverLookups   *prometheus.CounterVec
	uploadOutcomes    *prometheus.CounterVec
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, reusing collectors already registered under the same name.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		transportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "requests_total",
			Help:      "Total knowledge graph HTTP requests by method and status.",
		}, []string{"method", "status"}),
		transportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "request_duration_seconds",
			Help:      "Knowledge graph HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		resolverLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "lookups_total",
			Help:      "Identifier resolution lookups by result.",
		}, []string{"result"}),
		uploadOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "outcomes_total",
			Help:      "Uploaded resources by kind and action.",
		}, []string{"kind", "action"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and status.",
		}, []string{"operation", "status"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		return c, nil
	}
	if err := registerOrReuse(reg, &c.transportRequests); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &c.transportDuration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &c.resolverLookups); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &c.uploadOutcomes); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &c.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &c.operationDuration); err != nil {
		return nil, err
	}
	return c, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("kgclient: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("kgclient: register metric: %w", err)
	}
	return nil
}

// ObserveRequest records one HTTP round-trip. Status 0 means the request never got a response.
func (c *Collectors) ObserveRequest(method string, status int, d time.Duration) {
	if c == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.transportRequests.WithLabelValues(method, label).Inc()
	c.transportDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ResolverLookup records an identifier resolution lookup.
func (c *Collectors) ResolverLookup(result string) {
	if c == nil {
		return
	}
	c.resolverLookups.WithLabelValues(result).Inc()
}

// UploadOutcome records the action taken for an uploaded resource.
func (c *Collectors) UploadOutcome(kind, action string) {
	if c == nil {
		return
	}
	c.uploadOutcomes.WithLabelValues(kind, action).Inc()
}

// ObserveOperation records an SDK operation.
func (c *Collectors) ObserveOperation(op string, d time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.operations.WithLabelValues(op, status).Inc()
	c.operationDuration.WithLabelValues(op).Observe(d.Seconds())
}
