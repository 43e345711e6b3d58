package metrics

import (
	"context"
	"time"
)

// Source resolves one metric value for one service. Implementations
// must honor context cancellation and return an error rather than a
// placeholder value when the metric cannot be resolved.
type Source interface {
	Query(ctx context.Context, service, metric string) (float64, error)
}

// Probe names one service/metric pair to sample in a tick.
type Probe struct {
	Service string
	Metric  string
}

// Sample is one metric observation for one service. Every probe
// produces exactly one Sample; when the value could not be resolved
// the sample is returned with Valid false instead of being dropped.
type Sample struct {
	Service string
	Metric  string
	Value   float64
	Time    time.Time

	// Valid reports whether Value holds a finite, successfully
	// resolved observation.
	Valid bool

	// Err explains why the sample is invalid. Nil when Valid is true.
	Err error
}
