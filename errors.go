package mintforge

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors - secrets
var (
	ErrSecretsNotFound = errors.New("mintforge: secrets file not found")
	ErrSecretsEmpty    = errors.New("mintforge: secrets file is empty")
)

// Sentinel errors - assembly
var (
	ErrProjectIDEmpty = errors.New("mintforge: provider project id is empty")
	ErrUnknownNetwork = errors.New("mintforge: unknown network")
)

// LoadError reports a failure to read the secrets file. The load is
// fatal: callers receive no partial configuration alongside it.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load secrets %q: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is maps a missing secrets file to ErrSecretsNotFound so callers can
// check the sentinel without knowing the underlying I/O error.
func (e *LoadError) Is(target error) bool {
	if target == ErrSecretsNotFound {
		return errors.Is(e.Err, fs.ErrNotExist)
	}
	return false
}

// ShapeError reports malformed configuration input: an empty credential,
// an empty provider project id, or a descriptor that mixes the local and
// remote shapes. Like LoadError it is fatal and never downgraded.
type ShapeError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("config shape error: %s - %s", e.Field, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *ShapeError) Unwrap() error {
	return e.Err
}

// NewShapeError creates a new ShapeError with the given field and message.
func NewShapeError(field, message string) *ShapeError {
	return &ShapeError{
		Field:   field,
		Message: message,
	}
}
