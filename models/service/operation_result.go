package service

import (
	"time"
)

// ResultMetadata travels with every operation envelope.
type ResultMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
}

// OperationError is the error half of an envelope: a stable code plus
// a human-readable message and optional detail for debugging.
type OperationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// OperationResult is the structured envelope every public photo
// operation returns: {success, data|error, metadata}. No error leaves
// an operation without being mapped into one of these.
type OperationResult struct {
	Success  bool            `json:"success"`
	Data     interface{}     `json:"data,omitempty"`
	Error    *OperationError `json:"error,omitempty"`
	Metadata ResultMetadata  `json:"metadata"`
}

// Succeeded wraps data in a success envelope for the named operation.
func Succeeded(operation string, data interface{}) *OperationResult {
	return &OperationResult{
		Success: true,
		Data:    data,
		Metadata: ResultMetadata{
			Timestamp: time.Now().UTC(),
			Operation: operation,
		},
	}
}

// Failed wraps err in a failure envelope, mapping it to its envelope
// error code. Errors carrying a Detail method contribute their longer
// message for debugging.
func Failed(operation string, err error) *OperationResult {
	opErr := &OperationError{
		Code:    ErrorCode(err),
		Message: err.Error(),
	}
	if de, ok := err.(DetailedError); ok {
		opErr.Detail = de.Detail()
	}
	return &OperationResult{
		Success: false,
		Error:   opErr,
		Metadata: ResultMetadata{
			Timestamp: time.Now().UTC(),
			Operation: operation,
		},
	}
}
