package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors that are not tied to a single resource.
var (
	// ErrFreed indicates a frame or buffer that was already torn down.
	ErrFreed = errors.New("dynamo: frame already freed")

	// ErrLengthMismatch indicates parallel buffers of different lengths.
	ErrLengthMismatch = errors.New("dynamo: bodies and velocities differ in length")

	// ErrAlreadyOwned indicates particles that were already promoted into a frame.
	ErrAlreadyOwned = errors.New("dynamo: particles already owned by a frame")
)

// Kind classifies a FatalError.
type Kind int

const (
	KindResource Kind = iota + 1
	KindIO
	KindFormat
	KindAccelerator
)

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindAccelerator:
		return "accelerator"
	default:
		return "unknown"
	}
}

// FatalError is returned by every operation that would end the run. Resource
// names the buffer label or file path involved.
type FatalError struct {
	Kind     Kind
	Resource string
	Message  string
	Err      error
}

func (e *FatalError) Error() string {
	msg := fmt.Sprintf("%s error: %s: %s", e.Kind, e.Resource, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatalf builds a FatalError with a formatted message.
func Fatalf(kind Kind, resource string, format string, args ...any) *FatalError {
	return &FatalError{Kind: kind, Resource: resource, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a FatalError around an underlying cause.
func Wrap(kind Kind, resource, message string, err error) *FatalError {
	return &FatalError{Kind: kind, Resource: resource, Message: message, Err: err}
}

// IsKind reports whether err carries a FatalError of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *FatalError
	return errors.As(err, &fe) && fe.Kind == kind
}

// ExitCode maps an error to a process status. Every failure is fatal, so
// only a nil error yields 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return int(fe.Kind)
	}
	return 1
}
