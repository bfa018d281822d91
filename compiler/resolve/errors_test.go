package resolve

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionError(t *testing.T) {
	t.Run("Message", func(t *testing.T) {
		err := NewResolutionError("findPerson", "p_nick", "no column matches", "id", "first_name")
		assert.Equal(t, "sqlbind: resolution error in statement findPerson field p_nick: no column matches (known: id, first_name)", err.Error())
	})
	t.Run("NoField", func(t *testing.T) {
		err := NewResolutionError("findPerson", "", "bad statement")
		assert.Equal(t, "sqlbind: resolution error in statement findPerson: bad statement", err.Error())
	})
	t.Run("Is", func(t *testing.T) {
		err := fmt.Errorf("finalize: %w", NewResolutionError("s", "f", "m"))
		assert.ErrorIs(t, err, ErrResolutionFailed)
		assert.True(t, IsResolutionError(err))
		assert.False(t, IsResolutionError(errors.New("other")))
	})
	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := &ResolutionError{Statement: "s", Message: "m", Cause: cause}
		assert.ErrorIs(t, err, cause)
	})
}

func TestConsistencyError(t *testing.T) {
	err := NewConsistencyError("app", "PersonRow", "statement findB declares a different shape",
		[]string{"id int64", "name string"},
		[]string{"id int64", "name string", "age int64"})
	t.Run("Message", func(t *testing.T) {
		msg := err.Error()
		assert.Contains(t, msg, "sqlbind: consistency error on shared result app.PersonRow")
		assert.Contains(t, msg, "declares a different shape")
		assert.Contains(t, msg, "declared")
		assert.Contains(t, msg, "conflicting")
		assert.Contains(t, msg, "age int64")
	})
	t.Run("Is", func(t *testing.T) {
		assert.ErrorIs(t, err, ErrInconsistentDeclaration)
		assert.True(t, IsConsistencyError(err))
	})
}

func TestSideBySide(t *testing.T) {
	out := sideBySide("declared", []string{"a", "long_line"}, "conflicting", []string{"b"})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	pipe := strings.IndexByte(lines[0], '|')
	for i, l := range lines {
		assert.True(t, strings.HasPrefix(l, "\t"), "line %d not indented", i)
		assert.Equal(t, pipe, strings.IndexByte(l, '|'), "line %d misaligned", i)
	}
	assert.Contains(t, lines[0], "declared")
	assert.Contains(t, lines[0], "conflicting")
	assert.Contains(t, lines[1], "a")
	assert.Contains(t, lines[1], "b")
	assert.Contains(t, lines[2], "long_line")
}

func TestSchemaError(t *testing.T) {
	t.Run("Message", func(t *testing.T) {
		err := NewSchemaError("findPerson", "persn", "", "alias p references an unknown object", "address", "person")
		assert.Equal(t, "sqlbind: schema error in statement findPerson on table persn: alias p references an unknown object (known: address, person)", err.Error())
	})
	t.Run("Column", func(t *testing.T) {
		err := NewSchemaError("", "person", "nick", "unknown column")
		assert.Equal(t, "sqlbind: schema error on table person column nick: unknown column", err.Error())
	})
	t.Run("Is", func(t *testing.T) {
		assert.ErrorIs(t, NewSchemaError("", "t", "", "m"), ErrUnknownObject)
		assert.True(t, IsSchemaError(NewSchemaError("", "t", "", "m")))
	})
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("Dialect", "oracle", "unsupported dialect; use mysql, sqlite, or postgres")
	assert.Equal(t, `sqlbind: config error for "Dialect" (value: oracle): unsupported dialect; use mysql, sqlite, or postgres`, err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = NewConfigError("TableScan", nil, "boom")
	assert.Equal(t, `sqlbind: config error for "TableScan": boom`, err.Error())
}

func TestErrorHelpers(t *testing.T) {
	require.False(t, IsResolutionError(nil))
	require.False(t, IsConsistencyError(nil))
	require.False(t, IsSchemaError(nil))
	require.False(t, IsConfigError(nil))
	assert.True(t, IsConfigError(NewConfigError("o", nil, "m")))
}
