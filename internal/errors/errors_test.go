package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// TickError Tests
// -----------------------------------------------------------------------------

func TestNewTickError(t *testing.T) {
	cause := ErrManifestInvalid
	err := NewTickError("manifest discovery failed", cause)

	if err.message != "manifest discovery failed" {
		t.Errorf("message = %q, want %q", err.message, "manifest discovery failed")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestTickError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *TickError
		want string
	}{
		{
			name: "basic error",
			err:  NewTickError("discovery failed", nil),
			want: "tick error: discovery failed",
		},
		{
			name: "with cause",
			err:  NewTickError("discovery failed", ErrManifestInvalid),
			want: "tick error: discovery failed: manifest is invalid",
		},
		{
			name: "with tick ID",
			err:  NewTickError("discovery failed", nil).WithTickID("a1b2"),
			want: "tick error [tick=a1b2]: discovery failed",
		},
		{
			name: "with tick ID and phase",
			err:  NewTickError("discovery failed", ErrManifestNotFound).WithTickID("a1b2").WithPhase("sampling"),
			want: "tick error [tick=a1b2, phase=sampling]: discovery failed: manifest not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTickError_Is(t *testing.T) {
	err := NewTickError("discovery failed", ErrManifestInvalid)

	// Should match TickError type
	if !Is(err, &TickError{}) {
		t.Error("Is(TickError{}) = false, want true")
	}

	// Should match wrapped sentinel error
	if !Is(err, ErrManifestInvalid) {
		t.Error("Is(ErrManifestInvalid) = false, want true")
	}

	// A TickError always means the tick was aborted
	if !Is(err, ErrTickAborted) {
		t.Error("Is(ErrTickAborted) = false, want true")
	}

	// Should not match unrelated errors
	if Is(err, ErrScaleRejected) {
		t.Error("Is(ErrScaleRejected) = true, want false")
	}
}

func TestTickError_Unwrap(t *testing.T) {
	cause := ErrManifestNotFound
	err := NewTickError("test", cause)

	if unwrapped := Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
}

// -----------------------------------------------------------------------------
// MetricError Tests
// -----------------------------------------------------------------------------

func TestNewMetricError(t *testing.T) {
	err := NewMetricError("query returned no samples", ErrMetricUnavailable)

	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false (the next tick is the retry)")
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestMetricError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *MetricError
		want string
	}{
		{
			name: "basic",
			err:  NewMetricError("no samples", nil),
			want: "metric error: no samples",
		},
		{
			name: "with service",
			err:  NewMetricError("no samples", nil).WithService("web"),
			want: "metric error [service=web]: no samples",
		},
		{
			name: "with service and metric and cause",
			err:  NewMetricError("no samples", ErrMetricUnavailable).WithService("web").WithMetric("cpu"),
			want: "metric error [service=web, metric=cpu]: no samples: metric unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetricError_Is(t *testing.T) {
	err := NewMetricError("no samples", ErrMetricsUnreachable).WithService("web")

	if !Is(err, &MetricError{}) {
		t.Error("Is(MetricError{}) = false, want true")
	}
	if !Is(err, ErrMetricsUnreachable) {
		t.Error("Is(ErrMetricsUnreachable) = false, want true")
	}
	if Is(err, ErrManifestInvalid) {
		t.Error("Is(ErrManifestInvalid) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// ReconcileError Tests
// -----------------------------------------------------------------------------

func TestNewReconcileError(t *testing.T) {
	err := NewReconcileError("scale request failed", ErrOrchestratorUnavailable)

	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false before WithTransient")
	}
	if err.Target != -1 {
		t.Errorf("Target = %d, want -1 (unset)", err.Target)
	}
}

func TestReconcileError_WithMethods(t *testing.T) {
	err := NewReconcileError("scale request failed", nil).
		WithService("web").
		WithTarget(4).
		WithAttempts(3).
		WithTransient(true).
		WithSeverity(SeverityCritical)

	if err.Service != "web" {
		t.Errorf("Service = %q, want %q", err.Service, "web")
	}
	if err.Target != 4 {
		t.Errorf("Target = %d, want 4", err.Target)
	}
	if err.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", err.Attempts)
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false after WithTransient(true), want true")
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
}

func TestReconcileError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ReconcileError
		want string
	}{
		{
			name: "basic",
			err:  NewReconcileError("scale failed", nil),
			want: "reconcile error: scale failed",
		},
		{
			name: "with context",
			err:  NewReconcileError("scale failed", ErrScaleRejected).WithService("web").WithTarget(4),
			want: "reconcile error [service=web, target=4]: scale failed: scale request rejected",
		},
		{
			name: "with attempts",
			err:  NewReconcileError("scale failed", nil).WithService("web").WithTarget(4).WithAttempts(3),
			want: "reconcile error [service=web, target=4, attempts=3]: scale failed",
		},
		{
			name: "with output",
			err:  NewReconcileError("scale failed", nil).WithService("api").WithOutput("no such service: api"),
			want: "reconcile error [service=api]: scale failed\norchestrator output: no such service: api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReconcileError_Is(t *testing.T) {
	err := NewReconcileError("scale failed", ErrScaleRejected).WithService("web")

	if !Is(err, &ReconcileError{}) {
		t.Error("Is(ReconcileError{}) = false, want true")
	}
	if !Is(err, ErrScaleRejected) {
		t.Error("Is(ErrScaleRejected) = false, want true")
	}
	if Is(err, ErrProjectionFailed) {
		t.Error("Is(ErrProjectionFailed) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// ProjectionError Tests
// -----------------------------------------------------------------------------

func TestProjectionError_Error(t *testing.T) {
	err := NewProjectionError("rename failed", fmt.Errorf("permission denied")).
		WithPath("/etc/traefik/dynamic/services.yml")

	want := "projection error [path=/etc/traefik/dynamic/services.yml]: rename failed: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestProjectionError_Is(t *testing.T) {
	err := NewProjectionError("rename failed", nil)

	if !Is(err, &ProjectionError{}) {
		t.Error("Is(ProjectionError{}) = false, want true")
	}
	if !Is(err, ErrProjectionFailed) {
		t.Error("Is(ErrProjectionFailed) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("service", "web")

	want := "service 'web' not found"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}

	withCause := NewNotFoundError("service", "web").WithCause(ErrServiceNotFound)
	if !Is(withCause, ErrServiceNotFound) {
		t.Error("Is(ErrServiceNotFound) = false, want true")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("config file", "tsm.yaml")

	want := "config file 'tsm.yaml' already exists"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "basic",
			err:  NewValidationError("step must be at least 1"),
			want: "validation error: step must be at least 1",
		},
		{
			name: "with field and value",
			err:  NewValidationError("step must be at least 1").WithField("scaling.step").WithValue(0),
			want: "validation error [field=scaling.step, value=0]: step must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_IsInvalidInput(t *testing.T) {
	err := NewValidationError("bad value")
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("waiting for scale acknowledgement", 30*time.Second)

	want := "timeout error: waiting for scale acknowledgement (timeout: 30s)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true (timeouts retry by default)")
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}

	nonRetryable := NewTimeoutError("op", time.Second).WithRetryable(false)
	if nonRetryable.IsRetryable() {
		t.Error("IsRetryable() = true after WithRetryable(false), want false")
	}
}

// -----------------------------------------------------------------------------
// Classification Helper Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"timeout error", NewTimeoutError("op", time.Second), true},
		{"wrapped ErrTimeout", fmt.Errorf("outer: %w", ErrTimeout), true},
		{"wrapped ErrOrchestratorUnavailable", fmt.Errorf("outer: %w", ErrOrchestratorUnavailable), true},
		{"wrapped ErrMetricsUnreachable", fmt.Errorf("outer: %w", ErrMetricsUnreachable), true},
		{"transient reconcile error", NewReconcileError("scale failed", nil).WithTransient(true), true},
		{"rejected reconcile error", NewReconcileError("scale failed", ErrScaleRejected), false},
		{"metric error", NewMetricError("no samples", nil), false},
		{"tick error", NewTickError("discovery failed", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"tick error", NewTickError("discovery failed", nil), true},
		{"not found", NewNotFoundError("service", "web"), true},
		{"wrapped validation", fmt.Errorf("outer: %w", NewValidationError("bad")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil", nil, SeverityDebug},
		{"plain error", errors.New("boom"), SeverityError},
		{"metric error", NewMetricError("no samples", nil), SeverityWarning},
		{"critical tick error", NewTickError("discovery failed", nil).WithSeverity(SeverityCritical), SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(NewReconcileError("x", nil)) {
		t.Error("IsDomainError(ReconcileError) = false, want true")
	}
	if !IsDomainError(fmt.Errorf("wrapped: %w", NewProjectionError("x", nil))) {
		t.Error("IsDomainError(wrapped ProjectionError) = false, want true")
	}
	if IsDomainError(NewNotFoundError("service", "web")) {
		t.Error("IsDomainError(NotFoundError) = true, want false")
	}
	if IsDomainError(nil) {
		t.Error("IsDomainError(nil) = true, want false")
	}
}

func TestIsSemanticError(t *testing.T) {
	if !IsSemanticError(NewValidationError("bad")) {
		t.Error("IsSemanticError(ValidationError) = false, want true")
	}
	if IsSemanticError(NewTickError("x", nil)) {
		t.Error("IsSemanticError(TickError) = true, want false")
	}
	if IsSemanticError(nil) {
		t.Error("IsSemanticError(nil) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Wrap Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	base := ErrScaleRejected
	wrapped := Wrap(base, "applying decision")

	want := "applying decision: scale request rejected"
	if got := wrapped.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(wrapped, ErrScaleRejected) {
		t.Error("Is(ErrScaleRejected) = false, want true")
	}

	if Wrap(nil, "anything") != nil {
		t.Error("Wrap(nil) != nil")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrOrchestratorUnavailable, "failed to reconcile service %s", "web")

	want := "failed to reconcile service web: orchestrator unavailable"
	if got := wrapped.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if Wrapf(nil, "anything %d", 1) != nil {
		t.Error("Wrapf(nil) != nil")
	}
}
