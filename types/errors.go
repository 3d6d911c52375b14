package types

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionFinished is returned when a finished session is used again.
	ErrSessionFinished = errors.New("session already finished")
	// ErrModuleNotFound is returned when the resolver has no code for a module.
	ErrModuleNotFound = errors.New("module not found")
)

// InitializationError is returned when the VM or a session could not be set
// up. It is fatal for the unit of work; nothing is retried.
type InitializationError struct {
	Reason string
	Err    error
}

var _ error = (*InitializationError)(nil)

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("initialization failed: %s: %v", e.Reason, e.Err)
	}
	return "initialization failed: " + e.Reason
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// AbortError is raised when guest code or a native aborts execution.
type AbortError struct {
	// Location is "module.function" of the native, or "script" for guest aborts.
	Location string
	Code     uint64
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("execution aborted in %s with code %d (0x%x)", e.Location, e.Code, e.Code)
}

// OutOfGasError represents an out of gas error
type OutOfGasError struct {
	Descriptor string
}

func (e OutOfGasError) Error() string {
	return "out of gas: " + e.Descriptor
}

// InvariantViolationError reports a broken host-side invariant, e.g. guest
// memory that cannot be read at a pointer the guest passed in.
type InvariantViolationError struct {
	Msg string
}

func (e *InvariantViolationError) Error() string {
	return "invariant violation: " + e.Msg
}
