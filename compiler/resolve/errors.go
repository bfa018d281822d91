package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrResolutionFailed indicates a field or parameter resolution failure.
	ErrResolutionFailed = errors.New("sqlbind: resolution failed")
	// ErrInconsistentDeclaration indicates conflicting shared declarations.
	ErrInconsistentDeclaration = errors.New("sqlbind: inconsistent declaration")
	// ErrUnknownObject indicates a reference to an unknown schema object.
	ErrUnknownObject = errors.New("sqlbind: unknown schema object")
	// ErrInvalidConfig indicates a resolver configuration error.
	ErrInvalidConfig = errors.New("sqlbind: invalid configuration")
	// ErrFinalized indicates use of a resolver after Finalize.
	ErrFinalized = errors.New("sqlbind: resolver already finalized")
)

// ResolutionError reports a field, parameter or mapping that could not
// be resolved against the loaded schema.
type ResolutionError struct {
	Statement    string // statement name
	Field        string // field or parameter name (if applicable)
	Message      string
	Alternatives []string // valid candidates, for diagnostics
	Cause        error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("sqlbind: resolution error")
	if e.Statement != "" {
		b.WriteString(" in statement ")
		b.WriteString(e.Statement)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Alternatives) > 0 {
		b.WriteString(" (known: ")
		b.WriteString(strings.Join(e.Alternatives, ", "))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ResolutionError.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}

// NewResolutionError creates a new ResolutionError.
func NewResolutionError(statement, field, message string, alternatives ...string) *ResolutionError {
	return &ResolutionError{
		Statement:    statement,
		Field:        field,
		Message:      message,
		Alternatives: alternatives,
	}
}

// ConsistencyError reports conflicting declarations of the same shared
// result. Declared and Conflicting hold the formatted field lists of the
// first and the offending declaration for a side-by-side dump.
type ConsistencyError struct {
	Namespace   string
	Name        string // shared result name
	Message     string
	Declared    []string
	Conflicting []string
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	var b strings.Builder
	b.WriteString("sqlbind: consistency error")
	if e.Name != "" {
		b.WriteString(" on shared result ")
		if e.Namespace != "" {
			b.WriteString(e.Namespace)
			b.WriteString(".")
		}
		b.WriteString(e.Name)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Declared) > 0 || len(e.Conflicting) > 0 {
		b.WriteString("\n")
		b.WriteString(sideBySide("declared", e.Declared, "conflicting", e.Conflicting))
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ConsistencyError.
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrInconsistentDeclaration
}

// NewConsistencyError creates a new ConsistencyError.
func NewConsistencyError(namespace, name, message string, declared, conflicting []string) *ConsistencyError {
	return &ConsistencyError{
		Namespace:   namespace,
		Name:        name,
		Message:     message,
		Declared:    declared,
		Conflicting: conflicting,
	}
}

// sideBySide renders two field lists as aligned columns under their headers.
func sideBySide(leftHeader string, left []string, rightHeader string, right []string) string {
	width := len(leftHeader)
	for _, s := range left {
		if len(s) > width {
			width = len(s)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\t%-*s | %s", width, leftHeader, rightHeader)
	for i := 0; i < len(left) || i < len(right); i++ {
		var l, r string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		fmt.Fprintf(&b, "\n\t%-*s | %s", width, l, r)
	}
	return b.String()
}

// SchemaError reports a statement referencing a table, view or column
// that does not exist in the loaded schema. Table may name a view.
type SchemaError struct {
	Statement    string // statement name (if applicable)
	Table        string
	Column       string
	Message      string
	Alternatives []string
	Cause        error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("sqlbind: schema error")
	if e.Statement != "" {
		b.WriteString(" in statement ")
		b.WriteString(e.Statement)
	}
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Alternatives) > 0 {
		b.WriteString(" (known: ")
		b.WriteString(strings.Join(e.Alternatives, ", "))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrUnknownObject
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(statement, table, column, message string, alternatives ...string) *SchemaError {
	return &SchemaError{
		Statement:    statement,
		Table:        table,
		Column:       column,
		Message:      message,
		Alternatives: alternatives,
	}
}

// ConfigError represents a resolver configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("sqlbind: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("sqlbind: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// IsResolutionError reports whether the error is a ResolutionError.
func IsResolutionError(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr)
}

// IsConsistencyError reports whether the error is a ConsistencyError.
func IsConsistencyError(err error) bool {
	var conErr *ConsistencyError
	return errors.As(err, &conErr)
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
