package kadedb

import "fmt"

// StatusCode enumerates the outcome kinds every engine operation can
// return. Go idiom returns these through a plain error (EngineError
// below carries one); there is no separate exception channel.
type StatusCode int

const (
	Ok StatusCode = iota
	NotFound
	AlreadyExists
	InvalidArgument
	FailedPrecondition
	Internal
)

func (c StatusCode) String() string {
	switch c {
	case Ok:
		return "ok"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case InvalidArgument:
		return "invalid_argument"
	case FailedPrecondition:
		return "failed_precondition"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Status pairs a StatusCode with a human-readable message. It is the
// lightweight counterpart to EngineError (errors.go) for call sites
// that want the code/message pair without the entity/field/cause
// context EngineError carries.
type Status struct {
	Code    StatusCode
	Message string
}

// OkStatus is the zero-value success status.
func OkStatus() Status { return Status{Code: Ok} }

func (s Status) IsOK() bool { return s.Code == Ok }

func (s Status) Error() string {
	if s.Message == "" {
		return s.Code.String()
	}
	return s.Code.String() + ": " + s.Message
}

func newStatus(code StatusCode, format string, args ...any) Status {
	return Status{Code: code, Message: fmt.Sprintf(format, args...)}
}
