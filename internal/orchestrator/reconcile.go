package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/logging"
	"github.com/tsm-sh/tsm/internal/scaling"
	"github.com/tsm-sh/tsm/internal/util"
)

const (
	// DefaultWorkers bounds concurrent reconciliations per tick.
	DefaultWorkers = 2

	// DefaultMaxRetries is how many times a transient failure is
	// retried after the initial attempt.
	DefaultMaxRetries = 3

	// DefaultBackoff is the first retry delay; it doubles per retry.
	DefaultBackoff = 500 * time.Millisecond

	// DefaultBackoffCap bounds the doubling.
	DefaultBackoffCap = 5 * time.Second
)

// Result is the outcome of reconciling one decision. A true Scaled
// with a non-nil Err means the replica change was applied but the
// follow-up endpoint query failed; callers keep the previous endpoint
// list in that case.
type Result struct {
	Service   string
	From      int
	Target    int
	Attempts  int
	Scaled    bool
	Endpoints []string
	Err       error
}

// Reconciler applies a tick's scaling decisions through a Client.
// Services reconcile independently under a bounded worker pool, higher
// priority classes first, and one service's failure never blocks the
// rest.
type Reconciler struct {
	client     Client
	sem        *util.Semaphore
	maxRetries int
	backoff    time.Duration
	backoffCap time.Duration
	logger     *logging.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithWorkers bounds how many services reconcile concurrently.
func WithWorkers(n int) Option {
	return func(r *Reconciler) {
		if n >= 1 {
			r.sem = util.NewSemaphore(n)
		}
	}
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(r *Reconciler) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithBackoff sets the initial retry delay and its cap.
func WithBackoff(base, limit time.Duration) Option {
	return func(r *Reconciler) {
		if base > 0 {
			r.backoff = base
		}
		if limit >= base {
			r.backoffCap = limit
		}
	}
}

// NewReconciler creates a reconciler over the given client. A nil
// logger disables logging.
func NewReconciler(client Client, logger *logging.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = logging.NopLogger()
	}
	r := &Reconciler{
		client:     client,
		sem:        util.NewSemaphore(DefaultWorkers),
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		backoffCap: DefaultBackoffCap,
		logger:     logger.WithComponent("reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply reconciles every actionable decision and returns one Result
// per actionable decision. Work is dispatched in priority order, rank
// ties broken by service name, so critical services claim workers
// first.
func (r *Reconciler) Apply(ctx context.Context, decisions []scaling.Decision) []Result {
	actionable := make([]scaling.Decision, 0, len(decisions))
	for _, d := range decisions {
		if d.Action == scaling.ActionNone || d.Target == d.Current {
			continue
		}
		actionable = append(actionable, d)
	}
	sort.SliceStable(actionable, func(i, j int) bool {
		ri, rj := PriorityRank(actionable[i].Priority), PriorityRank(actionable[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return actionable[i].Service < actionable[j].Service
	})

	results := make([]Result, len(actionable))
	var wg sync.WaitGroup
	for i, d := range actionable {
		// Acquiring before spawning keeps dispatch in priority order.
		if err := r.sem.Acquire(ctx); err != nil {
			results[i] = Result{
				Service: d.Service,
				From:    d.Current,
				Target:  d.Target,
				Err:     errors.Wrapf(err, "reconcile of %s never started", d.Service),
			}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer r.sem.Release()
			results[i] = r.applyOne(ctx, d)
		}()
	}
	wg.Wait()
	return results
}

func (r *Reconciler) applyOne(ctx context.Context, d scaling.Decision) Result {
	result := Result{Service: d.Service, From: d.Current, Target: d.Target}
	log := r.logger.WithService(d.Service)

	delay := r.backoff
	for attempt := 1; ; attempt++ {
		result.Attempts = attempt
		err := r.client.SetReplicas(ctx, d.Service, d.Target)
		if err == nil {
			break
		}
		if attempt > r.maxRetries || !errors.IsRetryable(err) || ctx.Err() != nil {
			result.Err = errors.NewReconcileError("scale request failed", err).
				WithService(d.Service).
				WithTarget(d.Target).
				WithAttempts(attempt).
				WithTransient(errors.IsRetryable(err))
			log.Error("scale failed", "target", d.Target, "attempts", attempt, "error", err)
			return result
		}
		log.Warn("transient scale failure, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			result.Err = errors.Join(errors.ErrCanceled, ctx.Err())
			return result
		}
		delay = min(delay*2, r.backoffCap)
	}

	result.Scaled = true
	log.Info("service scaled", "from", d.Current, "to", d.Target, "attempts", result.Attempts)

	endpoints, err := r.client.LiveEndpoints(ctx, d.Service)
	if err != nil {
		result.Err = errors.Wrapf(err, "endpoints after scaling %s", d.Service)
		log.Warn("scaled but endpoint query failed", "error", err)
		return result
	}
	sort.Strings(endpoints)
	result.Endpoints = endpoints
	return result
}

// PriorityRank maps a priority class to its dispatch rank. Higher
// ranks reconcile first; unknown classes rank as medium.
func PriorityRank(priority string) int {
	switch priority {
	case config.PriorityCritical:
		return 3
	case config.PriorityHigh:
		return 2
	case config.PriorityLow:
		return 0
	default:
		return 1
	}
}
