// Package metrics samples per-service load metrics for the scaling loop.
//
// Core types:
//
//   - [Source]: resolves a single service/metric pair to a value
//   - [PrometheusSource]: a Source backed by PromQL query templates
//   - [Probe]: one service/metric pair to sample in a tick
//   - [Sampler]: fans probes out to a bounded worker pool under a budget
//   - [Sample]: one observation, valid or invalid, never missing
//
// # Usage
//
//	source, err := metrics.NewPrometheusSource(url, queries, timeout, logger)
//	if err != nil {
//		return err
//	}
//	sampler := metrics.NewSampler(source, 4, 20*time.Second, logger)
//
//	samples := sampler.Collect(ctx, probes)
//	for _, s := range samples {
//		if !s.Valid {
//			continue
//		}
//		// feed s.Value to the scaling policy
//	}
//
// Collect returns one Sample per probe, in probe order. A probe that
// fails, times out, or produces a non-finite value yields an invalid
// sample carrying the error; it is never retried within the tick. The
// next tick simply samples again.
//
// # Thread Safety
//
// Sampler and PrometheusSource are safe for concurrent use.
package metrics
