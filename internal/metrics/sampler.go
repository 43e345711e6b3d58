package metrics

import (
	"context"
	"maps"
	"math"
	"sync"
	"time"

	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/logging"
	"github.com/tsm-sh/tsm/internal/util"
)

const (
	// DefaultWorkers is the worker pool size used when none is given.
	DefaultWorkers = 4

	// DefaultBudget is the per-batch wall-clock budget used when none
	// is given.
	DefaultBudget = 20 * time.Second
)

// Sampler collects metric samples for a batch of probes through a
// bounded worker pool. The whole batch shares one wall-clock budget;
// probes that cannot start or finish inside it come back invalid
// rather than blocking the tick.
type Sampler struct {
	source Source
	sem    *util.Semaphore
	budget time.Duration
	logger *logging.Logger

	mu   sync.Mutex
	last map[string]Sample
}

// NewSampler creates a sampler over the given source. workers bounds
// how many probes run concurrently and budget bounds how long a whole
// batch may take; non-positive values fall back to the defaults. A nil
// logger disables logging.
func NewSampler(source Source, workers int, budget time.Duration, logger *logging.Logger) *Sampler {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Sampler{
		source: source,
		sem:    util.NewSemaphore(workers),
		budget: budget,
		logger: logger.WithComponent("sampler"),
		last:   make(map[string]Sample),
	}
}

// Collect samples every probe and returns one Sample per probe, in
// probe order. Failed probes are marked invalid and are not retried;
// the next tick samples them again.
func (s *Sampler) Collect(ctx context.Context, probes []Probe) []Sample {
	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	samples := make([]Sample, len(probes))
	var wg sync.WaitGroup
	for i, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			samples[i] = s.collectOne(ctx, probe)
		}()
	}
	wg.Wait()

	s.mu.Lock()
	for _, sample := range samples {
		if sample.Valid {
			s.last[sample.Service] = sample
		}
	}
	s.mu.Unlock()

	return samples
}

// collectOne resolves a single probe under the batch context. Worker
// slots are taken through the semaphore so at most `workers` queries
// are in flight at once.
func (s *Sampler) collectOne(ctx context.Context, probe Probe) Sample {
	sample := Sample{Service: probe.Service, Metric: probe.Metric}

	if err := s.sem.Acquire(ctx); err != nil {
		sample.Time = time.Now()
		sample.Err = errors.NewMetricError("probe never started", errors.ErrSampleBudgetExceeded).
			WithService(probe.Service).
			WithMetric(probe.Metric)
		s.logger.Warn("sample budget expired before probe started",
			"service", probe.Service,
			"metric", probe.Metric)
		return sample
	}
	defer s.sem.Release()

	value, err := s.source.Query(ctx, probe.Service, probe.Metric)
	sample.Time = time.Now()

	if err != nil {
		if ctx.Err() != nil {
			err = errors.NewMetricError("probe aborted by sample budget", errors.ErrSampleBudgetExceeded).
				WithService(probe.Service).
				WithMetric(probe.Metric)
		} else {
			err = errors.NewMetricError("query failed", err).
				WithService(probe.Service).
				WithMetric(probe.Metric)
		}
		sample.Err = err
		s.logger.Warn("metric probe failed",
			"service", probe.Service,
			"metric", probe.Metric,
			"error", err)
		return sample
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		sample.Err = errors.NewMetricError("non-finite sample value", errors.ErrMetricUnavailable).
			WithService(probe.Service).
			WithMetric(probe.Metric)
		s.logger.Warn("metric probe returned non-finite value",
			"service", probe.Service,
			"metric", probe.Metric)
		return sample
	}

	sample.Value = value
	sample.Valid = true
	s.logger.Debug("metric sampled",
		"service", probe.Service,
		"metric", probe.Metric,
		"value", value)
	return sample
}

// Last returns a copy of the most recent valid sample per service.
// Invalid probes never overwrite an earlier valid sample, so this is
// the last known good view for status reporting.
func (s *Sampler) Last() map[string]Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.last)
}

// Forget drops the retained sample for a service. Call it when a
// service leaves the manifest.
func (s *Sampler) Forget(service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, service)
}
