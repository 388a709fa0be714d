package fragments

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrFragmentNotFound indicates no fragment exists at the requested key
	ErrFragmentNotFound = errors.New("fragment not found")

	// ErrUnsupportedType indicates a media type outside the supported set
	ErrUnsupportedType = errors.New("unsupported media type")

	// ErrUnsupportedConversion indicates the requested target type is not
	// reachable from the fragment's source type
	ErrUnsupportedConversion = errors.New("unsupported conversion")

	// ErrNoOwnerIdentity indicates the auth result carried no usable owner
	// identifier
	ErrNoOwnerIdentity = errors.New("no resolvable owner identity")
)

// ValidationError represents invalid input supplied by the caller
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConversionError represents malformed source data encountered during a
// structural conversion (e.g. JSON/YAML/CSV re-serialization)
type ConversionError struct {
	Source string
	Target string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion %s -> %s failed: %v", e.Source, e.Target, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
