package loop

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tsm-sh/tsm/internal/discovery"
	"github.com/tsm-sh/tsm/internal/event"
	"github.com/tsm-sh/tsm/internal/logging"
	"github.com/tsm-sh/tsm/internal/metrics"
	"github.com/tsm-sh/tsm/internal/orchestrator"
	"github.com/tsm-sh/tsm/internal/scaling"
	"github.com/tsm-sh/tsm/internal/topology"
)

// runTick executes one pass of the state machine. Only the Run
// goroutine (or RunOnce in one-shot mode) calls it, so phase
// transitions and snapshot swaps are serial.
func (l *Loop) runTick(ctx context.Context, trig event.Trigger) {
	if ctx.Err() != nil {
		return
	}

	tickID := uuid.NewString()
	log := l.logger.WithTick(tickID)
	start := time.Now()

	l.mu.Lock()
	l.tickCount++
	l.lastTickID = tickID
	l.lastTickAt = start
	l.mu.Unlock()

	l.bus.Publish(event.NewTickStartedEvent(tickID, trig, l.dryRun))
	log.Info("tick started", "trigger", string(trig), "dry_run", l.dryRun)

	if l.projectOnly {
		l.projectionTick(ctx, tickID, log, start)
		return
	}

	l.setPhase(tickID, event.PhaseSampling)
	services, err := l.scanner.ListServices(l.manifest)
	if err != nil {
		l.abort(tickID, log, event.PhaseSampling, err)
		return
	}
	l.pruneDeparted(services)

	samples := l.sample(ctx, tickID, services)
	counts := l.liveCounts(ctx, log, services)

	l.setPhase(tickID, event.PhaseDeciding)
	decisions := l.decide(tickID, log, services, samples, counts)

	if l.dryRun {
		for _, d := range decisions {
			if d.Action == scaling.ActionNone {
				continue
			}
			log.Info("dry run: would scale",
				"service", d.Service, "from", d.Current, "to", d.Target, "reason", d.Reason)
		}
		l.finish(tickID, log, start, 0, 0)
		return
	}

	l.setPhase(tickID, event.PhaseReconciling)
	results := l.reconciler.Apply(ctx, decisions)
	scaled, failed := l.applyResults(tickID, log, decisions, results)

	l.setPhase(tickID, event.PhaseProjecting)
	observations := make([]topology.Observation, 0, len(services))
	resultBy := make(map[string]orchestrator.Result, len(results))
	for _, res := range results {
		resultBy[res.Service] = res
	}
	for _, svc := range services {
		observations = append(observations, l.observe(ctx, svc, counts, resultBy))
	}
	failed += l.projectAndWrite(tickID, log, observations)

	l.finish(tickID, log, start, scaled, failed)
}

// projectionTick rebuilds the topology from live state and writes the
// routing document, skipping sampling, deciding and reconciling.
func (l *Loop) projectionTick(ctx context.Context, tickID string, log *logging.Logger, start time.Time) {
	l.setPhase(tickID, event.PhaseProjecting)
	services, err := l.scanner.ListServices(l.manifest)
	if err != nil {
		l.abort(tickID, log, event.PhaseProjecting, err)
		return
	}
	l.pruneDeparted(services)

	observations := make([]topology.Observation, 0, len(services))
	for _, svc := range services {
		observations = append(observations, l.observe(ctx, svc, nil, nil))
	}
	failed := l.projectAndWrite(tickID, log, observations)

	l.finish(tickID, log, start, 0, failed)
}

// pruneDeparted drops cooldown and sampler state for services that
// were in the previous snapshot but are gone from the manifest.
func (l *Loop) pruneDeparted(services []discovery.Service) {
	prev := l.Snapshot()
	if prev == nil {
		return
	}
	current := make(map[string]struct{}, len(services))
	for _, svc := range services {
		current[svc.Name] = struct{}{}
	}
	for _, name := range prev.Services() {
		if _, ok := current[name]; ok {
			continue
		}
		l.tracker.Forget(name)
		if l.sampler != nil {
			l.sampler.Forget(name)
		}
	}
}

// sample collects this tick's metrics for every scalable service and
// publishes one MetricSampled event per probe, valid or not.
func (l *Loop) sample(ctx context.Context, tickID string, services []discovery.Service) map[string]metrics.Sample {
	probes := make([]metrics.Probe, 0, len(services))
	for _, svc := range services {
		if !svc.Scalable() {
			continue
		}
		probes = append(probes, metrics.Probe{Service: svc.Name, Metric: svc.Rule.Metric})
	}
	if len(probes) == 0 {
		return nil
	}

	samples := l.sampler.Collect(ctx, probes)
	byService := make(map[string]metrics.Sample, len(samples))
	for _, s := range samples {
		byService[s.Service] = s
		errMsg := ""
		if s.Err != nil {
			errMsg = s.Err.Error()
		}
		l.bus.Publish(event.NewMetricSampledEvent(tickID, s.Service, s.Metric, s.Value, s.Valid, errMsg))
	}
	return byService
}

// liveCounts reads the orchestrator's replica count for each scalable
// service so decisions start from observed state. A failed read falls
// back to the manifest's declared count.
func (l *Loop) liveCounts(ctx context.Context, log *logging.Logger, services []discovery.Service) map[string]int {
	counts := make(map[string]int, len(services))
	for _, svc := range services {
		if !svc.Scalable() {
			continue
		}
		n, err := l.client.Replicas(ctx, svc.Name)
		if err != nil {
			log.Debug("live replica read failed, using declared count",
				"service", svc.Name, "declared", svc.Replicas, "error", err)
			counts[svc.Name] = svc.Replicas
			continue
		}
		counts[svc.Name] = n
	}
	return counts
}

// decide evaluates the policy for every scalable service in manifest
// order and publishes a Decision event for each, no-ops included.
func (l *Loop) decide(tickID string, log *logging.Logger, services []discovery.Service, samples map[string]metrics.Sample, counts map[string]int) []scaling.Decision {
	now := time.Now()
	decisions := make([]scaling.Decision, 0, len(services))

	for _, svc := range services {
		if !svc.Scalable() {
			continue
		}
		sample, sampled := samples[svc.Name]
		in := scaling.Input{
			Service: svc.Name,
			Rule:    *svc.Rule,
			Current: currentCount(svc, counts),
			Value:   sample.Value,
			Valid:   sampled && sample.Valid,
		}
		d := l.policy.Evaluate(in, now)
		decisions = append(decisions, d)

		deferred := d.Reason == scaling.ReasonCooldownActive
		l.bus.Publish(event.NewDecisionEvent(tickID, d.Service, string(d.Action), d.Current, d.Target, d.Reason, deferred))
		if d.Action != scaling.ActionNone {
			log.Info("scaling decision",
				"service", d.Service, "action", string(d.Action),
				"current", d.Current, "target", d.Target, "reason", d.Reason)
		} else {
			log.Debug("no scaling action",
				"service", d.Service, "current", d.Current, "reason", d.Reason)
		}
	}
	return decisions
}

// applyResults folds reconciliation results into cooldown state and
// events. Cooldown arms only for applied reactive changes; bounds
// corrections stay exempt so a clamp never blocks the next watermark
// crossing.
func (l *Loop) applyResults(tickID string, log *logging.Logger, decisions []scaling.Decision, results []orchestrator.Result) (scaled, failed int) {
	decisionBy := make(map[string]scaling.Decision, len(decisions))
	for _, d := range decisions {
		decisionBy[d.Service] = d
	}

	now := time.Now()
	for _, res := range results {
		if res.Scaled {
			scaled++
			d := decisionBy[res.Service]
			if d.Reason != scaling.ReasonBoundsCorrection {
				l.tracker.Accept(res.Service, d.Action, now)
			}
			l.bus.Publish(event.NewServiceScaledEvent(tickID, res.Service, res.From, res.Target, res.Attempts))
			log.Info("service scaled",
				"service", res.Service, "from", res.From, "to", res.Target, "attempts", res.Attempts)
			if res.Err != nil {
				log.Warn("endpoint query failed after scaling",
					"service", res.Service, "error", res.Err)
			}
			continue
		}

		failed++
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		l.bus.Publish(event.NewScaleFailedEvent(tickID, res.Service, res.Target, res.Attempts, errMsg))
		log.Error("scaling failed",
			"service", res.Service, "target", res.Target, "attempts", res.Attempts, "error", res.Err)
	}
	return scaled, failed
}

// observe builds one service's topology observation. Scaled services
// reuse the endpoints the reconciler already fetched; everything else
// gets a live endpoint query. Any failure marks the observation failed
// so the snapshot retains the prior entry.
func (l *Loop) observe(ctx context.Context, svc discovery.Service, counts map[string]int, results map[string]orchestrator.Result) topology.Observation {
	obs := topology.Observation{Service: svc}

	if res, ok := results[svc.Name]; ok {
		switch {
		case res.Scaled && res.Err == nil:
			obs.Replicas = len(res.Endpoints)
			obs.Endpoints = res.Endpoints
		case res.Scaled:
			obs.Failed = true
			obs.Replicas = res.Target
		default:
			obs.Failed = true
			obs.Replicas = currentCount(svc, counts)
		}
		return obs
	}

	endpoints, err := l.client.LiveEndpoints(ctx, svc.Name)
	if err != nil {
		obs.Failed = true
		obs.Replicas = currentCount(svc, counts)
		return obs
	}
	obs.Replicas = len(endpoints)
	obs.Endpoints = endpoints
	return obs
}

// projectAndWrite advances the snapshot and writes the routing
// document. A write failure is reported but does not abort the tick:
// replica changes already applied stand, and the previous document
// stays in place.
func (l *Loop) projectAndWrite(tickID string, log *logging.Logger, observations []topology.Observation) int {
	snap := topology.Next(l.Snapshot(), time.Now(), observations)
	l.mu.Lock()
	l.snapshot = snap
	l.mu.Unlock()
	l.bus.Publish(event.NewTopologyUpdatedEvent(tickID, snap.Len(), snap.StaleCount()))

	doc := l.projector.Project(snap)
	n, err := l.projector.Write(doc)
	if err != nil {
		log.Error("projection failed, previous document left in place",
			"path", l.projector.Path(), "error", err)
		return 1
	}
	l.bus.Publish(event.NewProjectionWrittenEvent(tickID, l.projector.Path(), doc.RouterCount(), n))
	log.Info("routing document written",
		"path", l.projector.Path(), "routers", doc.RouterCount(), "bytes", n)
	return 0
}

func (l *Loop) setPhase(tickID string, next event.Phase) {
	l.mu.Lock()
	prev := l.phase
	l.phase = next
	l.mu.Unlock()
	if prev != next {
		l.bus.Publish(event.NewPhaseChangedEvent(tickID, prev, next))
	}
}

func (l *Loop) abort(tickID string, log *logging.Logger, phase event.Phase, err error) {
	l.mu.Lock()
	l.lastErr = err
	l.lastDuration = 0
	l.mu.Unlock()

	l.setPhase(tickID, event.PhaseAborted)
	l.bus.Publish(event.NewTickAbortedEvent(tickID, phase, err.Error()))
	log.Error("tick aborted", "phase", string(phase), "error", err)
	l.setPhase(tickID, event.PhaseIdle)
}

func (l *Loop) finish(tickID string, log *logging.Logger, start time.Time, scaled, failed int) {
	duration := time.Since(start)
	l.mu.Lock()
	l.lastDuration = duration
	l.lastErr = nil
	l.mu.Unlock()

	l.bus.Publish(event.NewTickCompletedEvent(tickID, duration, scaled, failed))
	log.Info("tick completed", "duration", duration.String(), "scaled", scaled, "errors", failed)
	l.setPhase(tickID, event.PhaseIdle)
}

func currentCount(svc discovery.Service, counts map[string]int) int {
	if n, ok := counts[svc.Name]; ok {
		return n
	}
	return svc.Replicas
}
