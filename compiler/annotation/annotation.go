// Package annotation parses the comment DSL that carries binding
// hints through SQL sources, and merges column-level hints under
// query-level ones.
//
// An annotation block is written inside any SQL comment as
//
//	@@{ key=value, key=value, ... }
//
// Blocks in a statement comment that carry a field key attach to that
// field of the projection. Blocks without one configure the statement.
// Blocks in a column comment of a CREATE TABLE attach to that column.
package annotation

// AdapterMode states how a field or parameter obtains its value
// adapter.
type AdapterMode uint8

// Adapter modes. Unset behaves like AdapterDefault.
const (
	AdapterUnset AdapterMode = iota
	// AdapterDefault synthesizes an adapter only when the resolved
	// property type is outside the built-in set.
	AdapterDefault
	// AdapterCustom always requires an adapter.
	AdapterCustom
)

// NeedsAdapter decides whether a field with the given mode and
// built-in status requires a value adapter.
func NeedsAdapter(mode AdapterMode, builtin bool) bool {
	if mode == AdapterCustom {
		return true
	}
	return !builtin
}

// MappingKind is the shape a dynamic field projects its member
// columns into.
type MappingKind uint8

// Mapping kinds.
const (
	MappingNone MappingKind = iota
	MappingEntity
	MappingPerRow
	MappingCollection
)

var mappingNames = [...]string{
	MappingNone:       "",
	MappingEntity:     "entity",
	MappingPerRow:     "perRow",
	MappingCollection: "collection",
}

// String returns the DSL spelling of the mapping kind.
func (k MappingKind) String() string {
	if int(k) < len(mappingNames) {
		return mappingNames[k]
	}
	return ""
}

// Policy selects how resolved property names are spelled.
type Policy uint8

// Naming policies.
const (
	// PolicyPlain keeps resolved names as they appear in the schema.
	PolicyPlain Policy = iota
	// PolicyLowerCamel converts resolved names to lowerCamelCase.
	PolicyLowerCamel
)

// String returns the DSL spelling of the policy.
func (p Policy) String() string {
	if p == PolicyLowerCamel {
		return "lowerCamelCase"
	}
	return "plain"
}

// FieldOverrides carries every per-field annotation key. The zero
// value means no overrides. NotNull is tri-state: nil leaves the
// schema nullability in charge.
type FieldOverrides struct {
	PropertyName      string
	PropertyType      string
	NotNull           *bool
	Adapter           AdapterMode
	Dynamic           bool
	Mapping           MappingKind
	SourceAlias       string
	RemoveAliasPrefix string
	DefaultValue      string
	UniqueKey         string
}

// StatementOverrides carries the statement-scope annotation keys.
// A nil ExcludeOverrideFields is unset and may be inherited when the
// statement joins a shared result; an empty non-nil slice is an
// explicit empty list.
type StatementOverrides struct {
	ResultName            string
	SharedResult          string
	Implements            string
	ExcludeOverrideFields []string
	Policy                Policy
	CollectionKey         string
}

// Merge overlays query-level field overrides on column-level ones.
// Every key set in over wins; unset keys keep the base value. Neither
// argument is modified.
func Merge(base, over *FieldOverrides) *FieldOverrides {
	switch {
	case base == nil && over == nil:
		return nil
	case base == nil:
		out := *over
		return &out
	case over == nil:
		out := *base
		return &out
	}
	out := *base
	if over.PropertyName != "" {
		out.PropertyName = over.PropertyName
	}
	if over.PropertyType != "" {
		out.PropertyType = over.PropertyType
	}
	if over.NotNull != nil {
		out.NotNull = over.NotNull
	}
	if over.Adapter != AdapterUnset {
		out.Adapter = over.Adapter
	}
	if over.Dynamic {
		out.Dynamic = true
	}
	if over.Mapping != MappingNone {
		out.Mapping = over.Mapping
	}
	if over.SourceAlias != "" {
		out.SourceAlias = over.SourceAlias
	}
	if over.RemoveAliasPrefix != "" {
		out.RemoveAliasPrefix = over.RemoveAliasPrefix
	}
	if over.DefaultValue != "" {
		out.DefaultValue = over.DefaultValue
	}
	if over.UniqueKey != "" {
		out.UniqueKey = over.UniqueKey
	}
	return &out
}
