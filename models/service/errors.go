package service

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/anecdotario/photo-services/constants"
)

// ProcessingError describes one thing that went wrong while working
// through a bulk operation (retention cleanup, bulk delete). Bulk
// operations accumulate these instead of aborting, so callers can see
// exactly which objects or records remain.
type ProcessingError struct {
	// Operation is the step that failed: "object_delete",
	// "record_delete", "presign", etc.
	Operation string `json:"operation"`

	// Identifier is the photo id or object key the failure concerns.
	Identifier string `json:"identifier"`

	// Message is the error message.
	Message string `json:"message"`

	// IsFatal is true for errors that will recur on retry because the
	// inputs won't change (bad records, unknown renditions). Network
	// and store errors are transient and not fatal.
	IsFatal bool `json:"is_fatal"`

	// Source is the file:line where the error was created.
	Source string `json:"source"`
}

func NewProcessingError(operation, identifier, message string, isFatal bool) *ProcessingError {
	_, filename, line, ok := runtime.Caller(1)
	source := "unknown:0"
	if ok {
		source = fmt.Sprintf("%s:%d", filename, line)
	}
	return &ProcessingError{
		Operation:  operation,
		Identifier: identifier,
		Message:    message,
		IsFatal:    isFatal,
		Source:     source,
	}
}

func (e *ProcessingError) Error() string {
	severity := "non-fatal"
	if e.IsFatal {
		severity = "fatal"
	}
	return fmt.Sprintf("(operation: %s) (identifier: %s) (message: %s) (severity: %s) (source: %s)",
		e.Operation, e.Identifier, e.Message, severity, e.Source)
}

// DetailedError is implemented by all of our typed errors. Detail
// returns a longer message suitable for logs, while Error returns
// the short message suitable for API responses.
type DetailedError interface {
	Detail() string
	Code() string
}

// ValidationError describes bad input: malformed transport encoding,
// a disallowed image format, an out-of-bounds size, or an unknown
// entity/photo type. These are never retried.
type ValidationError struct {
	Message string
	Field   string
}

func NewValidationError(field, format string, a ...interface{}) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf(format, a...),
		Field:   field,
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Code() string {
	return constants.ErrValidation
}

func (e *ValidationError) Detail() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (field: %s)", e.Message, e.Field)
}

// ImageProcessingError describes a decode or codec failure. Since the
// input bytes won't change, we never retry these internally; retry is
// the caller's decision.
type ImageProcessingError struct {
	Err     error
	Message string
}

func NewImageProcessingError(message string, err error) *ImageProcessingError {
	return &ImageProcessingError{
		Err:     err,
		Message: message,
	}
}

func (e *ImageProcessingError) Error() string {
	return e.Message
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

func (e *ImageProcessingError) Code() string {
	return constants.ErrImageProcessing
}

func (e *ImageProcessingError) Detail() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (underlying error: %s)", e.Message, e.Err.Error())
}

// StorageError captures details of a failed object-store operation.
// These are potentially transient, so we record the operation and key
// so the caller can decide whether to retry.
type StorageError struct {
	Err       error
	Message   string
	Operation string
	Key       string
}

func NewStorageError(operation, key, message string, err error) *StorageError {
	return &StorageError{
		Err:       err,
		Message:   message,
		Operation: operation,
		Key:       key,
	}
}

func (e *StorageError) Error() string {
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Code() string {
	return constants.ErrStorage
}

func (e *StorageError) Detail() string {
	underlying := ""
	if e.Err != nil {
		underlying = fmt.Sprintf(" (underlying error: %s)", e.Err.Error())
	}
	return fmt.Sprintf("%s: %s failed for key %s%s", e.Message, e.Operation, e.Key, underlying)
}

// NotFoundError says the thing the caller asked about does not exist.
// Resource distinguishes a metadata miss from an object-store miss,
// which matters to callers deciding whether anything is orphaned.
type NotFoundError struct {
	Message  string
	Resource string // "record" or "object"
}

func NewNotFoundError(resource, format string, a ...interface{}) *NotFoundError {
	return &NotFoundError{
		Message:  fmt.Sprintf(format, a...),
		Resource: resource,
	}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Code() string {
	return constants.ErrNotFound
}

func (e *NotFoundError) Detail() string {
	return fmt.Sprintf("%s (missing: %s)", e.Message, e.Resource)
}

// ErrorCode maps any error to one of our envelope error codes.
// Unrecognized errors count as storage errors, since those are the
// only ones we treat as possibly transient.
func ErrorCode(err error) string {
	var de DetailedError
	if errors.As(err, &de) {
		return de.Code()
	}
	return constants.ErrStorage
}

// IsNotFound returns true if err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
