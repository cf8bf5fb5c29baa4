package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheExpired indicates the cached entry has expired
	ErrCacheExpired = errors.New("cache entry expired")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrUnauthorized indicates the storage backend rejected the credential
	ErrUnauthorized = errors.New("unauthorized")
)

// ConflictError indicates mutually inconsistent request parameters.
// Surfaced to the caller as a rejected request, never retried.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "request conflict: " + e.Message
}

// NewConflictError creates a new ConflictError
func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// SchemaError indicates the schema reference could not be resolved or
// parsed. Fatal to the request.
type SchemaError struct {
	SchemaURL string
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error for %s: %v", e.SchemaURL, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(schemaURL string, err error) *SchemaError {
	return &SchemaError{SchemaURL: schemaURL, Err: err}
}

// IsSchemaError checks if an error is a SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// FormatError indicates an uploaded payload could not be normalized to
// tabular form.
type FormatError struct {
	ContentType string
	Err         error
}

func (e *FormatError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("format error (%s): %v", e.ContentType, e.Err)
	}
	return fmt.Sprintf("format error: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError creates a new FormatError
func NewFormatError(contentType string, err error) *FormatError {
	return &FormatError{ContentType: contentType, Err: err}
}

// IsFormatError checks if an error is a FormatError
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// StorageError represents a failure reported by the storage backend.
// The cause is preserved and propagated unchanged; retries live inside
// the storage client, never above it.
type StorageError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *StorageError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("storage %s failed: status %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(operation string, statusCode int, err error) *StorageError {
	return &StorageError{Operation: operation, StatusCode: statusCode, Err: err}
}

// GeneratorError represents a failure reported by the manifest generator.
type GeneratorError struct {
	Component string
	Err       error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generator failed for %s: %v", e.Component, e.Err)
}

func (e *GeneratorError) Unwrap() error {
	return e.Err
}
