package fault

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateRequest    = errors.New("a new entity cannot already have an id")
	ErrInvalidEntity       = errors.New("invalid entity")
	ErrMissingGatingSource = errors.New("missing gating source")
	ErrUnknownOperator     = errors.New("unknown operator")
	ErrMalformedPayload    = errors.New("malformed payload")
)

type ErrorType int

const (
	ErrClient ErrorType = iota
	ErrConfig
	ErrInternal
)

// Fault carries a classification used by the HTTP layer to pick a status code.
type Fault struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.typeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.typeString(), e.Message)
}

// Unwrap allows errors.Is and errors.As to work.
func (e *Fault) Unwrap() error {
	return e.Err
}

func (e *Fault) typeString() string {
	switch e.Type {
	case ErrClient:
		return "ClientError"
	case ErrConfig:
		return "ConfigError"
	case ErrInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// NewClientError creates a new client error.
func NewClientError(msg string, err error) error {
	return &Fault{Type: ErrClient, Message: msg, Err: err}
}

// NewConfigError marks a stored record (condition, logic operator) that cannot
// be evaluated as configured.
func NewConfigError(msg string, err error) error {
	return &Fault{Type: ErrConfig, Message: msg, Err: err}
}

// NewInternalError creates a new internal server error.
func NewInternalError(msg string, err error) error {
	return &Fault{Type: ErrInternal, Message: msg, Err: err}
}

// Invalid wraps ErrInvalidEntity with a field-level reason.
func Invalid(format string, args ...any) error {
	return NewClientError(fmt.Sprintf(format, args...), ErrInvalidEntity)
}

func IsClientError(err error) bool {
	return isType(err, ErrClient)
}

func IsConfigError(err error) bool {
	return isType(err, ErrConfig)
}

func IsInternalError(err error) bool {
	return isType(err, ErrInternal)
}

func isType(err error, t ErrorType) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Type == t
	}
	return false
}
