package pera

import (
	"errors"
	"fmt"
)

// Kind categorizes a pera.Error by the taxonomy in spec.md §7. Callers use
// errors.Is/errors.As or Error.Is to branch on Kind rather than string
// matching messages.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindResourceNotFound Kind = "resource_not_found"
	KindTimeout          Kind = "timeout"
	KindRateLimited      Kind = "rate_limited"
	KindConnectionFailed Kind = "connection_failed"
	KindAuthFailed       Kind = "auth_failed"
	KindToolFailure      Kind = "tool_failure"
	KindPlanningError    Kind = "planning_error"
	KindStoreError       Kind = "store_error"
	KindCapacityError    Kind = "capacity_error"
	KindCancellation     Kind = "cancellation"
	KindInternal         Kind = "internal"
)

// Sentinel errors usable with errors.Is against an unwrapped cause.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrCancelled   = errors.New("operation cancelled")
	ErrAtCapacity  = errors.New("at capacity")
	ErrInvalidPlan = errors.New("invalid plan")
)

// Error is the structured error type returned by every exported PERA
// operation. It carries enough context — which module raised it, which
// goal/session it belongs to, and a stable Kind — for a caller to decide
// whether to retry, escalate, or surface the failure to a human.
type Error struct {
	// Module names the component that raised the error (e.g. "exec",
	// "planning", "memory").
	Module string

	// Op is the specific operation that failed (e.g. "exec.Dispatch").
	Op string

	// Kind is the stable category from the taxonomy above.
	Kind Kind

	// CorrelationID ties the error back to a goal session or task, when
	// one was in scope.
	CorrelationID string

	// Err is the wrapped cause, if any.
	Err error

	// Context carries additional structured detail (tool name, attempt
	// count, resource key, ...).
	Context map[string]any
}

func (e *Error) Error() string {
	base := fmt.Sprintf("pera: %s (%s)", e.Op, e.Kind)
	if e.CorrelationID != "" {
		base = fmt.Sprintf("%s [correlation=%s]", base, e.CorrelationID)
	}
	if e.Err != nil {
		base = fmt.Sprintf("%s: %v", base, e.Err)
	}
	if len(e.Context) > 0 {
		base = fmt.Sprintf("%s %+v", base, e.Context)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind so errors.Is(err, &pera.Error{Kind: pera.KindTimeout})
// works without requiring exact Op/Module/Context equality.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return errors.Is(e.Err, target)
	}
	if t.Kind != "" && e.Kind != t.Kind {
		return false
	}
	if t.Module != "" && e.Module != t.Module {
		return false
	}
	return true
}

// WithContext returns a copy of e with the given keys merged into Context.
func (e *Error) WithContext(ctx map[string]any) *Error {
	cp := *e
	cp.Context = make(map[string]any, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	for k, v := range ctx {
		cp.Context[k] = v
	}
	return &cp
}

// WithCorrelationID returns a copy of e stamped with a correlation/session ID.
func (e *Error) WithCorrelationID(id string) *Error {
	cp := *e
	cp.CorrelationID = id
	return &cp
}

func newErr(module, op string, kind Kind, err error) *Error {
	return &Error{Module: module, Op: op, Kind: kind, Err: err}
}

func NewValidationError(module, op string, err error) *Error {
	return newErr(module, op, KindValidation, err)
}

func NewResourceNotFoundError(module, op string, err error) *Error {
	return newErr(module, op, KindResourceNotFound, err)
}

func NewTimeoutError(module, op string, err error) *Error {
	return newErr(module, op, KindTimeout, err)
}

func NewRateLimitedError(module, op string, err error) *Error {
	return newErr(module, op, KindRateLimited, err)
}

func NewConnectionFailedError(module, op string, err error) *Error {
	return newErr(module, op, KindConnectionFailed, err)
}

func NewAuthFailedError(module, op string, err error) *Error {
	return newErr(module, op, KindAuthFailed, err)
}

func NewToolFailureError(module, op string, err error) *Error {
	return newErr(module, op, KindToolFailure, err)
}

func NewPlanningError(module, op string, err error) *Error {
	return newErr(module, op, KindPlanningError, err)
}

func NewStoreError(module, op string, err error) *Error {
	return newErr(module, op, KindStoreError, err)
}

func NewCapacityError(module, op string, err error) *Error {
	return newErr(module, op, KindCapacityError, err)
}

func NewCancellationError(module, op string, err error) *Error {
	return newErr(module, op, KindCancellation, err)
}

func NewInternalError(module, op string, err error) *Error {
	return newErr(module, op, KindInternal, err)
}
