package sqlbind

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for model lookups and row reconstruction.
var (
	// ErrNotFound is returned when a requested binding object does
	// not exist in the resolution.
	ErrNotFound = errors.New("sqlbind: not found")

	// ErrMissingColumn is returned when a flat row lacks a column the
	// binding requires, such as a collection group key.
	ErrMissingColumn = errors.New("sqlbind: missing column")
)

// NotFoundError reports a failed lookup in a resolution.
type NotFoundError struct {
	label string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("sqlbind: %s not found (%v)", e.label, e.id)
	}
	return fmt.Sprintf("sqlbind: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(err, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the kind of object that was looked up.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the identifier that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given object kind.
func NewNotFoundError(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// MissingColumnError reports a flat row that lacks a column the
// binding depends on.
type MissingColumnError struct {
	statement string
	column    string
}

// Error returns the error string.
func (e *MissingColumnError) Error() string {
	if e.statement != "" {
		return fmt.Sprintf("sqlbind: statement %q: row is missing column %q", e.statement, e.column)
	}
	return fmt.Sprintf("sqlbind: row is missing column %q", e.column)
}

// Is reports whether the target error matches MissingColumnError.
// This allows errors.Is(err, ErrMissingColumn) to return true.
func (e *MissingColumnError) Is(err error) bool {
	return err == ErrMissingColumn
}

// Statement returns the statement the row belongs to.
func (e *MissingColumnError) Statement() string {
	return e.statement
}

// Column returns the missing column name.
func (e *MissingColumnError) Column() string {
	return e.column
}

// NewMissingColumnError returns a new MissingColumnError.
func NewMissingColumnError(statement, column string) *MissingColumnError {
	return &MissingColumnError{statement: statement, column: column}
}

// IsMissingColumn returns true if the error is a MissingColumnError.
func IsMissingColumn(err error) bool {
	if err == nil {
		return false
	}
	var e *MissingColumnError
	return errors.As(err, &e) || errors.Is(err, ErrMissingColumn)
}
