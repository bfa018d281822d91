package annotation

import (
	"errors"
	"fmt"
)

// ErrInvalidAnnotation is returned when an annotation block cannot be
// parsed or carries values outside the recognized set.
var ErrInvalidAnnotation = errors.New("sqlbind: invalid annotation")

// ParseError describes a malformed or unrecognized annotation. Parsing
// stops at the first one; annotations drive code synthesis, so nothing
// downstream may run on a half-understood comment.
type ParseError struct {
	Context string // statement or column the comment belongs to
	Key     string // offending key, if the error concerns one
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := "sqlbind: annotation parse error"
	if e.Context != "" {
		msg += fmt.Sprintf(": %s", e.Context)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(": key %q", e.Key)
	}
	if e.Message != "" {
		msg += fmt.Sprintf(": %s", e.Message)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Cause }

// Is enables errors.Is matching against ErrInvalidAnnotation.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidAnnotation
}

// NewParseError creates a new ParseError.
func NewParseError(context, key, message string, cause error) *ParseError {
	return &ParseError{Context: context, Key: key, Message: message, Cause: cause}
}

// IsParseError reports whether the error is a ParseError.
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}
