package services

import "fmt"

// Error kinds surfaced to callers. These are business rejections or caller
// logic errors, never retried automatically.
const (
	KindPreconditionFailed = "precondition_failed"
	KindConflict           = "conflict"
	KindNotFound           = "not_found"
	KindPolicyViolation    = "policy_violation"
)

// ServiceError carries the rejection kind alongside the message so
// controllers can map it to an HTTP status.
type ServiceError struct {
	Kind    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// StatusCode maps the error kind to an HTTP status.
func (e *ServiceError) StatusCode() int {
	switch e.Kind {
	case KindPreconditionFailed:
		return 422
	case KindConflict:
		return 409
	case KindNotFound:
		return 404
	case KindPolicyViolation:
		return 400
	default:
		return 400
	}
}

func PreconditionFailed(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindPreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func PolicyViolation(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindPolicyViolation, Message: fmt.Sprintf(format, args...)}
}
