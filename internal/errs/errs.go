// Package errs defines the discriminated error taxonomy shared by the
// probe, planner, splitter, and stitcher stages. Every stage returns one
// of these types (never a bare fmt.Errorf) so a caller can classify a
// failure without string matching.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies an error's external wire category (spec.md §6).
type Code string

const (
	CodeInvalidInput    Code = "invalid-arg"
	CodeIoOpen          Code = "open"
	CodeIoWrite         Code = "write"
	CodeSeek            Code = "seek"
	CodeProviderError   Code = "provider-error"
	CodeNoVideoStream   Code = "no-stream"
	CodeOutOfMemory     Code = "out-of-memory"
	CodeStreamSetup     Code = "stream-setup"
	CodeLayoutMismatch  Code = "layout-mismatch"
	CodeMissingChunk    Code = "missing-chunk"
)

// Error is the concrete type returned by every stage. Op identifies the
// stage and operation (e.g. "probe.open", "splitter.seek"); Err is the
// wrapped cause, which may be nil for pure validation failures.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with the given code, operation, and cause.
func New(code Code, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Err: cause}
}

// InvalidInput reports a caller-contract violation (empty probe,
// non-positive duration, malformed config).
func InvalidInput(op string, cause error) *Error { return New(CodeInvalidInput, op, cause) }

// IoOpen reports a failure to open a container for reading or writing.
func IoOpen(op string, cause error) *Error { return New(CodeIoOpen, op, cause) }

// IoWrite reports a failure while writing packets, a header, or a trailer.
func IoWrite(op string, cause error) *Error { return New(CodeIoWrite, op, cause) }

// Seek reports a failure to seek the source to a target timestamp.
func Seek(op string, cause error) *Error { return New(CodeSeek, op, cause) }

// ProviderError is the catch-all for opaque Media I/O Provider failures
// that don't fit a more specific category.
func ProviderError(op string, cause error) *Error { return New(CodeProviderError, op, cause) }

// NoVideoStream reports that the container has no usable video stream.
func NoVideoStream(op string, cause error) *Error { return New(CodeNoVideoStream, op, cause) }

// OutOfMemory reports an allocation failure in the provider or the core.
func OutOfMemory(op string, cause error) *Error { return New(CodeOutOfMemory, op, cause) }

// StreamSetup reports a failure to create or copy parameters onto an
// output stream.
func StreamSetup(op string, cause error) *Error { return New(CodeStreamSetup, op, cause) }

// LayoutMismatch reports that two chunk files disagree on stream shape
// (count or time base) during stitching.
func LayoutMismatch(op string, cause error) *Error { return New(CodeLayoutMismatch, op, cause) }

// MissingChunk reports that an expected chunk file is absent.
func MissingChunk(op string, cause error) *Error { return New(CodeMissingChunk, op, cause) }

// Is reports whether err is an *Error with the given code. It does not
// require the caller to know the concrete type.
func Is(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
