package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes.
const (
	CodeMalformedInput       = "MALFORMED_INPUT"
	CodeRenderingFailure     = "RENDERING_FAILURE"
	CodeRenderingTimeout     = "RENDERING_TIMEOUT"
	CodeAllocatorUnavailable = "ALLOCATOR_UNAVAILABLE"
	CodeConfig               = "CONFIG_ERROR"
	CodeInvalidCorrection    = "INVALID_CORRECTION"
	CodeTextEngine           = "TEXT_ENGINE_FAILURE"
)

// Common application errors
var (
	ErrMalformedInput       = errors.New("malformed input document")
	ErrRenderingFailure     = errors.New("rendering failed")
	ErrRenderingTimeout     = fmt.Errorf("%w: timed out", ErrRenderingFailure)
	ErrAllocatorUnavailable = errors.New("invoice counter unavailable")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTextEngine           = errors.New("text engine unavailable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// MalformedInput reports a payload that is not a readable PDF.
func MalformedInput(message string, cause error) error {
	return NewAppError(CodeMalformedInput, message, joinCause(ErrMalformedInput, cause))
}

// RenderingFailure reports a failed template conversion; detail carries the
// collaborator's diagnostic output.
func RenderingFailure(detail string, cause error) error {
	return NewAppError(CodeRenderingFailure, detail, joinCause(ErrRenderingFailure, cause))
}

// RenderingTimeout reports a template conversion that exceeded its deadline.
func RenderingTimeout(detail string, cause error) error {
	return NewAppError(CodeRenderingTimeout, detail, joinCause(ErrRenderingTimeout, cause))
}

// AllocatorUnavailable reports a counter store that cannot be read or written.
func AllocatorUnavailable(message string, cause error) error {
	return NewAppError(CodeAllocatorUnavailable, message, joinCause(ErrAllocatorUnavailable, cause))
}

// TextEngineFailure reports a text extractor that could not run at all, as
// opposed to one that ran and rejected the document.
func TextEngineFailure(message string, cause error) error {
	return NewAppError(CodeTextEngine, message, joinCause(ErrTextEngine, cause))
}

// IsFatalForBatch reports whether err must abort the remaining batch.
func IsFatalForBatch(err error) bool {
	return errors.Is(err, ErrAllocatorUnavailable)
}

func joinCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}
