// Package errors provides centralized error definitions and error handling utilities
// for the tsm codebase. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - TickError: fatal errors that abort a control-loop tick
//   - MetricError: errors degrading a single service's metric sample
//   - ReconcileError: errors applying a replica change for one service
//   - ProjectionError: errors writing the routing document
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewTickError("manifest discovery failed", errors.ErrManifestInvalid)
//
//	// Semantic error
//	err := errors.NewNotFoundError("service", "web")
//
//	// With context wrapping
//	err := errors.NewReconcileError("scale request failed", baseErr).WithService("web")
//
// Checking errors:
//
//	// Check for specific sentinel errors
//	if errors.Is(err, errors.ErrScaleRejected) { ... }
//
//	// Check for error types
//	var recErr *errors.ReconcileError
//	if errors.As(err, &recErr) { ... }
//
//	// Use classification helpers
//	if errors.IsRetryable(err) { ... }
//	if errors.IsUserFacing(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Manifest/discovery-related sentinel errors
var (
	// ErrManifestNotFound indicates that the compose manifest could not be found.
	ErrManifestNotFound = New("manifest not found")
	// ErrManifestInvalid indicates that the compose manifest failed to parse.
	ErrManifestInvalid = New("manifest is invalid")
	// ErrServiceNotFound indicates that a service is not declared in the manifest.
	ErrServiceNotFound = New("service not found")
	// ErrNoServices indicates that the manifest declares no services at all.
	ErrNoServices = New("manifest declares no services")
)

// Metrics-related sentinel errors
var (
	// ErrMetricUnavailable indicates that a metric value could not be resolved.
	ErrMetricUnavailable = New("metric unavailable")
	// ErrMetricsUnreachable indicates that the metrics backend could not be reached.
	ErrMetricsUnreachable = New("metrics backend unreachable")
	// ErrSampleBudgetExceeded indicates that the per-tick sampling budget expired.
	ErrSampleBudgetExceeded = New("sample budget exceeded")
)

// Orchestrator-related sentinel errors
var (
	// ErrOrchestratorUnavailable indicates a communication failure with the orchestrator.
	ErrOrchestratorUnavailable = New("orchestrator unavailable")
	// ErrScaleRejected indicates that the orchestrator rejected a replica change.
	ErrScaleRejected = New("scale request rejected")
	// ErrEndpointsUnavailable indicates that live endpoints could not be listed.
	ErrEndpointsUnavailable = New("live endpoints unavailable")
)

// Projection-related sentinel errors
var (
	// ErrProjectionFailed indicates that the routing document could not be written.
	ErrProjectionFailed = New("routing document projection failed")
)

// Control-loop sentinel errors
var (
	// ErrTickAborted indicates that the current tick was aborted.
	ErrTickAborted = New("tick aborted")
	// ErrLoopStopped indicates that the control loop is not running.
	ErrLoopStopped = New("control loop stopped")
	// ErrConfigInvalid indicates that startup configuration validation failed.
	ErrConfigInvalid = New("configuration is invalid")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed indicates a general operation failure.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TsmError is the base interface for all tsm errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type TsmError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// TickError represents a fatal error that aborts a control-loop tick.
// The previous routing document and replica counts remain authoritative;
// the next tick retries from scratch.
//
// Example:
//
//	err := errors.NewTickError("manifest discovery failed", errors.ErrManifestInvalid)
//	err = err.WithTickID("a1b2").WithPhase("sampling")
//	fmt.Println(err) // "tick error [tick=a1b2, phase=sampling]: manifest discovery failed: manifest is invalid"
type TickError struct {
	baseError
	TickID string
	Phase  string
}

// NewTickError creates a new TickError.
func NewTickError(message string, cause error) *TickError {
	return &TickError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithTickID adds a tick correlation ID to the error context.
func (e *TickError) WithTickID(id string) *TickError {
	e.TickID = id
	return e
}

// WithPhase adds the loop phase in which the tick failed.
func (e *TickError) WithPhase(phase string) *TickError {
	e.Phase = phase
	return e
}

// WithSeverity sets the error severity.
func (e *TickError) WithSeverity(s Severity) *TickError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *TickError) Error() string {
	var parts []string
	if e.TickID != "" {
		parts = append(parts, fmt.Sprintf("tick=%s", e.TickID))
	}
	if e.Phase != "" {
		parts = append(parts, fmt.Sprintf("phase=%s", e.Phase))
	}

	prefix := "tick error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("tick error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *TickError) Is(target error) bool {
	if _, ok := target.(*TickError); ok {
		return true
	}
	if errors.Is(target, ErrTickAborted) {
		return true
	}
	return e.baseError.Is(target)
}

// MetricError represents a degraded metric sample for a single service.
// It is local to one service and resolves as a no-op scaling decision;
// it never blocks other services.
//
// Example:
//
//	err := errors.NewMetricError("query returned no samples", errors.ErrMetricUnavailable)
//	err = err.WithService("web").WithMetric("cpu")
type MetricError struct {
	baseError
	Service string
	Metric  string
}

// NewMetricError creates a new MetricError.
func NewMetricError(message string, cause error) *MetricError {
	return &MetricError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  false, // the next tick's sampling attempt is the retry
			userFacing: true,
		},
	}
}

// WithService adds the affected service name to the error context.
func (e *MetricError) WithService(service string) *MetricError {
	e.Service = service
	return e
}

// WithMetric adds the metric name to the error context.
func (e *MetricError) WithMetric(metric string) *MetricError {
	e.Metric = metric
	return e
}

// WithSeverity sets the error severity.
func (e *MetricError) WithSeverity(s Severity) *MetricError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *MetricError) Error() string {
	var parts []string
	if e.Service != "" {
		parts = append(parts, fmt.Sprintf("service=%s", e.Service))
	}
	if e.Metric != "" {
		parts = append(parts, fmt.Sprintf("metric=%s", e.Metric))
	}

	prefix := "metric error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("metric error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *MetricError) Is(target error) bool {
	if _, ok := target.(*MetricError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ReconcileError represents a failure applying a replica change for one
// service. Transient communication failures are retryable within the tick;
// orchestrator rejections are not. Other services' reconciliation proceeds
// regardless.
//
// Example:
//
//	err := errors.NewReconcileError("scale request failed", cause)
//	err = err.WithService("web").WithTarget(4).WithTransient(true)
type ReconcileError struct {
	baseError
	Service  string
	Target   int
	Attempts int
	Output   string // Captured orchestrator command output
}

// NewReconcileError creates a new ReconcileError.
func NewReconcileError(message string, cause error) *ReconcileError {
	return &ReconcileError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Target: -1, // -1 indicates not set
	}
}

// WithService adds the affected service name to the error context.
func (e *ReconcileError) WithService(service string) *ReconcileError {
	e.Service = service
	return e
}

// WithTarget adds the requested replica count to the error context.
func (e *ReconcileError) WithTarget(target int) *ReconcileError {
	e.Target = target
	return e
}

// WithAttempts records how many attempts were made before giving up.
func (e *ReconcileError) WithAttempts(n int) *ReconcileError {
	e.Attempts = n
	return e
}

// WithOutput adds captured orchestrator command output to the error context.
func (e *ReconcileError) WithOutput(output string) *ReconcileError {
	e.Output = output
	return e
}

// WithTransient marks the error as a transient communication failure,
// making it retryable.
func (e *ReconcileError) WithTransient(t bool) *ReconcileError {
	e.retryable = t
	return e
}

// WithSeverity sets the error severity.
func (e *ReconcileError) WithSeverity(s Severity) *ReconcileError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ReconcileError) Error() string {
	var parts []string
	if e.Service != "" {
		parts = append(parts, fmt.Sprintf("service=%s", e.Service))
	}
	if e.Target >= 0 {
		parts = append(parts, fmt.Sprintf("target=%d", e.Target))
	}
	if e.Attempts > 0 {
		parts = append(parts, fmt.Sprintf("attempts=%d", e.Attempts))
	}

	prefix := "reconcile error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("reconcile error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\norchestrator output: %s", msg, e.Output)
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *ReconcileError) Is(target error) bool {
	if _, ok := target.(*ReconcileError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ProjectionError represents a failure writing the routing document.
// The previous on-disk document remains intact; replica changes already
// applied this tick stand.
//
// Example:
//
//	err := errors.NewProjectionError("rename failed", cause).WithPath("/etc/traefik/dynamic/services.yml")
type ProjectionError struct {
	baseError
	Path string
}

// NewProjectionError creates a new ProjectionError.
func NewProjectionError(message string, cause error) *ProjectionError {
	return &ProjectionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithPath adds the routing document path to the error context.
func (e *ProjectionError) WithPath(path string) *ProjectionError {
	e.Path = path
	return e
}

// WithSeverity sets the error severity.
func (e *ProjectionError) WithSeverity(s Severity) *ProjectionError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ProjectionError) Error() string {
	prefix := "projection error"
	if e.Path != "" {
		prefix = fmt.Sprintf("projection error [path=%s]", e.Path)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ProjectionError) Is(target error) bool {
	if _, ok := target.(*ProjectionError); ok {
		return true
	}
	if errors.Is(target, ErrProjectionFailed) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("service", "web")
//	fmt.Println(err) // "service 'web' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("config file", "tsm.yaml")
//	fmt.Println(err) // "config file 'tsm.yaml' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("low watermark must be below high watermark")
//	err = err.WithField("scaling.scale_down_threshold").WithValue(90)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for scale acknowledgement", 30*time.Second)
//	fmt.Println(err) // "timeout error: waiting for scale acknowledgement (timeout: 30s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true, // Timeouts are generally retryable
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// WithRetryable sets whether the error is retryable (default true for timeouts).
func (e *TimeoutError) WithRetryable(r bool) *TimeoutError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. This checks for:
//   - Errors implementing TsmError with IsRetryable() returning true
//   - TimeoutError instances
//   - Errors wrapping ErrTimeout or ErrOrchestratorUnavailable
//
// Example:
//
//	if errors.IsRetryable(err) {
//	    time.Sleep(backoff)
//	    return retry(operation)
//	}
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements TsmError
	var tsmErr TsmError
	if As(err, &tsmErr) {
		return tsmErr.IsRetryable()
	}

	// Check for known retryable sentinel errors
	if Is(err, ErrTimeout) || Is(err, ErrOrchestratorUnavailable) || Is(err, ErrMetricsUnreachable) {
		return true
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to end users.
// This checks for:
//   - Errors implementing TsmError with IsUserFacing() returning true
//   - Semantic errors (NotFoundError, AlreadyExistsError, ValidationError, TimeoutError)
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    displayToUser(err.Error())
//	} else {
//	    displayToUser("An internal error occurred")
//	    log.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	// Check if error implements TsmError
	var tsmErr TsmError
	if As(err, &tsmErr) {
		return tsmErr.IsUserFacing()
	}

	// Semantic errors are always user-facing
	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var validation *ValidationError
	var timeout *TimeoutError

	if As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &validation) || As(err, &timeout) {
		return true
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TsmError.
//
// Example:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical:
//	    alertOnCall(err)
//	case errors.SeverityError:
//	    log.Error("error occurred", "err", err)
//	case errors.SeverityWarning:
//	    log.Warn("warning", "err", err)
//	}
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	// Check if error implements TsmError
	var tsmErr TsmError
	if As(err, &tsmErr) {
		return tsmErr.Severity()
	}

	// Default to Error severity for unknown errors
	return SeverityError
}

// IsDomainError returns true if the error is a domain-specific error
// (TickError, MetricError, ReconcileError, or ProjectionError).
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}

	var tickErr *TickError
	var metricErr *MetricError
	var reconcileErr *ReconcileError
	var projectionErr *ProjectionError

	return As(err, &tickErr) || As(err, &metricErr) ||
		As(err, &reconcileErr) || As(err, &projectionErr)
}

// IsSemanticError returns true if the error is a semantic error
// (NotFoundError, AlreadyExistsError, ValidationError, or TimeoutError).
func IsSemanticError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var validation *ValidationError
	var timeout *TimeoutError

	return As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &validation) || As(err, &timeout)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this preserves the TsmError interface.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to apply decision")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to reconcile service %s", name)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
