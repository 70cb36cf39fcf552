package kadedb

import (
	"errors"
	"fmt"
)

// EntityRef names the entity an EngineError occurred against, when
// the failing operation has one (a table/collection/graph/series
// name, optionally narrowed to a single row/document/node/edge key).
type EntityRef struct {
	Store string // "relational", "document", "graph", "timeseries"
	Name  string // table/collection/graph/series name
	Key   string // row id / document key / node id / edge id, if any
}

// EngineError is the rich error type every engine returns instead of
// a bare error, layered over the six-kind StatusCode taxonomy. It
// mirrors the source's practice of wrapping an error code with
// operation/entity/field context and an optional wrapped cause.
type EngineError struct {
	Code      StatusCode
	Message   string
	Operation string
	Entity    *EntityRef
	Field     string
	Details   map[string]any
	Cause     error
}

// NewEngineError builds an EngineError with a formatted message.
func NewEngineError(code StatusCode, format string, args ...any) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *EngineError) Error() string {
	switch {
	case e.Entity != nil && e.Entity.Key != "":
		return fmt.Sprintf("[%s] %s %s/%s: %s", e.Code, e.Entity.Store, e.Entity.Name, e.Entity.Key, e.Message)
	case e.Entity != nil:
		return fmt.Sprintf("[%s] %s %s: %s", e.Code, e.Entity.Store, e.Entity.Name, e.Message)
	case e.Operation != "":
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Operation, e.Message)
	case e.Field != "":
		return fmt.Sprintf("[%s] field '%s': %s", e.Code, e.Field, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

func (e *EngineError) Unwrap() error { return e.Cause }

// WithCause attaches an underlying error for errors.Is/As chains.
func (e *EngineError) WithCause(cause error) *EngineError {
	e.Cause = cause
	return e
}

// WithEntity attaches the store/name/key an error occurred against.
func (e *EngineError) WithEntity(ref EntityRef) *EngineError {
	e.Entity = &ref
	return e
}

// WithOperation names the operation (e.g. "insertRow", "rangeQuery")
// that produced the error.
func (e *EngineError) WithOperation(op string) *EngineError {
	e.Operation = op
	return e
}

// WithField attaches the offending column/field name.
func (e *EngineError) WithField(field string) *EngineError {
	e.Field = field
	return e
}

// WithDetail adds a single key/value of diagnostic context.
func (e *EngineError) WithDetail(key string, value any) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// IsNotFound reports whether err is (or wraps) an EngineError/Status
// whose code is NotFound.
func IsNotFound(err error) bool { return codeOf(err) == NotFound }

// IsAlreadyExists reports whether err is (or wraps) an
// EngineError/Status whose code is AlreadyExists.
func IsAlreadyExists(err error) bool { return codeOf(err) == AlreadyExists }

// IsInvalidArgument reports whether err is (or wraps) an
// EngineError/Status whose code is InvalidArgument.
func IsInvalidArgument(err error) bool { return codeOf(err) == InvalidArgument }

// IsFailedPrecondition reports whether err is (or wraps) an
// EngineError/Status whose code is FailedPrecondition.
func IsFailedPrecondition(err error) bool { return codeOf(err) == FailedPrecondition }

func codeOf(err error) StatusCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	var st Status
	if errors.As(err, &st) {
		return st.Code
	}
	return Ok
}
