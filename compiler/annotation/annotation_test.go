package annotation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatement(t *testing.T) {
	t.Run("StatementKeys", func(t *testing.T) {
		so, fields, err := ParseStatement("findPerson", `
			-- Loads a person with all addresses.
			-- @@{ queryResult=PersonRow, sharedResult=Person, implements=HasID,
			--     propertyNameGenerator=lowerCamelCase, collectionKey=p.id }
		`)
		require.NoError(t, err)
		assert.Empty(t, fields)
		assert.Equal(t, "PersonRow", so.ResultName)
		assert.Equal(t, "Person", so.SharedResult)
		assert.Equal(t, "HasID", so.Implements)
		assert.Equal(t, PolicyLowerCamel, so.Policy)
		assert.Equal(t, "p.id", so.CollectionKey)
		assert.Nil(t, so.ExcludeOverrideFields)
	})

	t.Run("FieldBlock", func(t *testing.T) {
		so, fields, err := ParseStatement("findPerson", `
			@@{ field=addresses, isDynamicField=true, mappingType=collection,
			    sourceTable=a, removeAliasPrefix=a_, uniqueKey=id }
		`)
		require.NoError(t, err)
		assert.Equal(t, &StatementOverrides{}, so)
		require.Contains(t, fields, "addresses")
		fo := fields["addresses"]
		assert.True(t, fo.Dynamic)
		assert.Equal(t, MappingCollection, fo.Mapping)
		assert.Equal(t, "a", fo.SourceAlias)
		assert.Equal(t, "a_", fo.RemoveAliasPrefix)
		assert.Equal(t, "id", fo.UniqueKey)
	})

	t.Run("FieldValueKeys", func(t *testing.T) {
		_, fields, err := ParseStatement("findPerson", `
			@@{ field=status, propertyName=state, propertyType=types.Status,
			    notNull=true, adapter=custom, defaultValue="unknown" }
		`)
		require.NoError(t, err)
		fo := fields["status"]
		require.NotNil(t, fo)
		assert.Equal(t, "state", fo.PropertyName)
		assert.Equal(t, "types.Status", fo.PropertyType)
		require.NotNil(t, fo.NotNull)
		assert.True(t, *fo.NotNull)
		assert.Equal(t, AdapterCustom, fo.Adapter)
		assert.Equal(t, "unknown", fo.DefaultValue)
	})

	t.Run("MultipleBlocksMerge", func(t *testing.T) {
		so, fields, err := ParseStatement("findPerson", `
			@@{ queryResult=PersonRow }
			@@{ field=status, propertyName=state }
			@@{ field=status, notNull=false, propertyName=condition }
		`)
		require.NoError(t, err)
		assert.Equal(t, "PersonRow", so.ResultName)
		fo := fields["status"]
		require.NotNil(t, fo)
		assert.Equal(t, "condition", fo.PropertyName, "later block wins key by key")
		require.NotNil(t, fo.NotNull)
		assert.False(t, *fo.NotNull)
	})

	t.Run("ExcludeOverrideFields", func(t *testing.T) {
		so, _, err := ParseStatement("findPerson", `@@{ excludeOverrideFields=[created_at, updated_at] }`)
		require.NoError(t, err)
		assert.Equal(t, []string{"created_at", "updated_at"}, so.ExcludeOverrideFields)
	})

	t.Run("ExcludeOverrideFieldsEmpty", func(t *testing.T) {
		so, _, err := ParseStatement("findPerson", `@@{ excludeOverrideFields=[] }`)
		require.NoError(t, err)
		require.NotNil(t, so.ExcludeOverrideFields, "explicit empty list is set, not unset")
		assert.Empty(t, so.ExcludeOverrideFields)
	})

	t.Run("QuotedValues", func(t *testing.T) {
		_, fields, err := ParseStatement("findPerson", `@@{ field=note, defaultValue="a, \"quoted\" }" }`)
		require.NoError(t, err)
		assert.Equal(t, `a, "quoted" }`, fields["note"].DefaultValue)
	})

	t.Run("NoBlocks", func(t *testing.T) {
		so, fields, err := ParseStatement("findPerson", "plain prose, nothing else")
		require.NoError(t, err)
		assert.Equal(t, &StatementOverrides{}, so)
		assert.Empty(t, fields)
	})
}

func TestParseStatementErrors(t *testing.T) {
	t.Run("CollectionWithoutField", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ mappingType=collection, sourceTable=a }`)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
		assert.Contains(t, err.Error(), "a field association (field=<name>) is required for collection mapping")
	})

	t.Run("FieldKeyWithoutField", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ propertyName=state }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a field association")
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ shinyNewKey=1 }`)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
		assert.Contains(t, err.Error(), `key "shinyNewKey"`)
		assert.Contains(t, err.Error(), "unknown annotation key")
	})

	t.Run("UnknownAdapterMode", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ field=x, adapter=magic }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown adapter mode "magic"`)
	})

	t.Run("UnknownMappingType", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ field=x, mappingType=tree }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown mapping type "tree"`)
	})

	t.Run("UnknownPolicy", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ propertyNameGenerator=SCREAMING }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown naming policy "SCREAMING"`)
	})

	t.Run("BlankFieldName", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ field="", propertyName=x }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blank field name")
	})

	t.Run("BlankValue", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ queryResult="" }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "blank value")
	})

	t.Run("NotBoolean", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ field=x, notNull=yes }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected true or false")
	})

	t.Run("DuplicateKey", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ field=x, propertyName=a, propertyName=b }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate key")
	})

	t.Run("StatementKeyInFieldBlock", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ field=x, queryResult=Row }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "statement key inside a field block")
	})

	t.Run("ExpectedList", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ excludeOverrideFields=created_at }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected a list")
	})

	t.Run("Unterminated", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ queryResult=Row`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unterminated annotation block")
	})

	t.Run("Malformed", func(t *testing.T) {
		_, _, err := ParseStatement("findPerson", `@@{ =broken }`)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
		assert.Contains(t, err.Error(), "malformed annotation block")
	})
}

func TestParseColumn(t *testing.T) {
	t.Run("ValueKeys", func(t *testing.T) {
		fo, err := ParseColumn("person", "status", `@@{ propertyType=types.Status, notNull=true, adapter=default, defaultValue="-" }`)
		require.NoError(t, err)
		require.NotNil(t, fo)
		assert.Equal(t, "types.Status", fo.PropertyType)
		require.NotNil(t, fo.NotNull)
		assert.True(t, *fo.NotNull)
		assert.Equal(t, AdapterDefault, fo.Adapter)
		assert.Equal(t, "-", fo.DefaultValue)
	})

	t.Run("NoBlocks", func(t *testing.T) {
		fo, err := ParseColumn("person", "status", "the current status")
		require.NoError(t, err)
		assert.Nil(t, fo)
	})

	t.Run("MappingKeysRejected", func(t *testing.T) {
		for _, comment := range []string{
			`@@{ field=x }`,
			`@@{ isDynamicField=true }`,
			`@@{ mappingType=entity }`,
			`@@{ sourceTable=a }`,
			`@@{ removeAliasPrefix=a_ }`,
			`@@{ uniqueKey=id }`,
			`@@{ sharedResult=Person }`,
		} {
			_, err := ParseColumn("person", "status", comment)
			require.Error(t, err, comment)
			assert.Contains(t, err.Error(), "not allowed in a column comment")
		}
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := ParseColumn("person", "status", `@@{ nope=1 }`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown annotation key")
	})
}

func TestMerge(t *testing.T) {
	t.Run("QueryWins", func(t *testing.T) {
		no := false
		base := &FieldOverrides{PropertyName: "colName", PropertyType: "types.A", NotNull: &no}
		yes := true
		over := &FieldOverrides{PropertyName: "queryName", NotNull: &yes, Adapter: AdapterCustom}
		got := Merge(base, over)
		assert.Equal(t, "queryName", got.PropertyName)
		assert.Equal(t, "types.A", got.PropertyType, "unset key keeps the column value")
		require.NotNil(t, got.NotNull)
		assert.True(t, *got.NotNull)
		assert.Equal(t, AdapterCustom, got.Adapter)
	})

	t.Run("NilSides", func(t *testing.T) {
		assert.Nil(t, Merge(nil, nil))
		fo := &FieldOverrides{PropertyName: "x"}
		got := Merge(fo, nil)
		assert.Equal(t, fo, got)
		assert.NotSame(t, fo, got, "merge copies its inputs")
		got = Merge(nil, fo)
		assert.Equal(t, fo, got)
		assert.NotSame(t, fo, got)
	})

	t.Run("TriStateNotNull", func(t *testing.T) {
		no := false
		base := &FieldOverrides{NotNull: &no}
		got := Merge(base, &FieldOverrides{})
		require.NotNil(t, got.NotNull)
		assert.False(t, *got.NotNull, "unset override leaves the base tri-state alone")
	})
}

func TestNeedsAdapter(t *testing.T) {
	tests := []struct {
		name    string
		mode    AdapterMode
		builtin bool
		want    bool
	}{
		{"UnsetBuiltin", AdapterUnset, true, false},
		{"UnsetCustomType", AdapterUnset, false, true},
		{"DefaultBuiltin", AdapterDefault, true, false},
		{"DefaultCustomType", AdapterDefault, false, true},
		{"CustomBuiltin", AdapterCustom, true, true},
		{"CustomCustomType", AdapterCustom, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsAdapter(tt.mode, tt.builtin))
		})
	}
}

func TestMappingKindString(t *testing.T) {
	assert.Equal(t, "entity", MappingEntity.String())
	assert.Equal(t, "perRow", MappingPerRow.String())
	assert.Equal(t, "collection", MappingCollection.String())
	assert.Empty(t, MappingNone.String())
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "plain", PolicyPlain.String())
	assert.Equal(t, "lowerCamelCase", PolicyLowerCamel.String())
}

func TestParseError(t *testing.T) {
	t.Run("Message", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewParseError(`statement "q"`, "adapter", "unknown adapter mode", cause)
		assert.Contains(t, err.Error(), "sqlbind: annotation parse error")
		assert.Contains(t, err.Error(), `statement "q"`)
		assert.Contains(t, err.Error(), `key "adapter"`)
		assert.Contains(t, err.Error(), "unknown adapter mode")
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewParseError("", "", "", cause)
		assert.Equal(t, cause, err.Unwrap())
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("IsSentinel", func(t *testing.T) {
		err := NewParseError("", "", "", nil)
		assert.True(t, errors.Is(err, ErrInvalidAnnotation))
	})

	t.Run("IsParseError", func(t *testing.T) {
		assert.True(t, IsParseError(NewParseError("", "", "", nil)))
		assert.False(t, IsParseError(errors.New("other")))
	})
}
