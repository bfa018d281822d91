// Package sqlbind holds the resolved binding model: the typed view of
// annotated SQL statements that code emitters and the row runtime
// consume. The model is produced by compiler/resolve and is immutable
// once built.
package sqlbind

import (
	"github.com/syssam/sqlbind/schema/sqltype"
)

// Statement binding kinds.
const (
	KindSelect  = "select"
	KindExecute = "execute"
)

// Dynamic field mapping kinds.
const (
	MappedEntity     = "entity"
	MappedPerRow     = "perRow"
	MappedCollection = "collection"
)

// Resolution is the complete resolved model of one run: every
// namespace with its statements, the shared results registered across
// them, and the cross-namespace adapter ownership map. Slices are
// sorted by name, so that encoding a Resolution is byte-stable.
type Resolution struct {
	Dialect       string              `json:"dialect,omitempty"`
	Namespaces    []*NamespaceBinding `json:"namespaces,omitempty"`
	SharedResults []*SharedResult     `json:"shared_results,omitempty"`
	Adapters      []*AdapterOwnership `json:"adapters,omitempty"`
}

// NamespaceBinding groups the resolved statements of one namespace
// together with its deduplicated value adapters.
type NamespaceBinding struct {
	Name       string              `json:"name"`
	Statements []*StatementBinding `json:"statements,omitempty"`
	Adapters   []*ParamConfig      `json:"adapters,omitempty"`
}

// StatementBinding is the resolved model of a single statement.
//
// Fields holds the top-level flat fields of the result shape, in
// projection order, with columns absorbed by dynamic fields removed.
// Joined maps every selected column to its collision-free flat name;
// writers emit these names and the reader runtime consumes them.
type StatementBinding struct {
	Name         string           `json:"name"`
	Kind         string           `json:"kind"`
	ResultName   string           `json:"result_name,omitempty"`
	SharedResult string           `json:"shared_result,omitempty"`
	Implements   string           `json:"implements,omitempty"`
	Fields       []*ResolvedField `json:"fields,omitempty"`
	Joined       []*JoinedColumn  `json:"joined,omitempty"`
	Dynamic      []*MappedField   `json:"dynamic,omitempty"`
	Params       []*ParamConfig   `json:"params,omitempty"`
}

// ResolvedField is one resolved property of a result shape. Key is
// the field's column name in the flat row, Name its property name in
// the shape.
type ResolvedField struct {
	Name     string           `json:"name"`
	Key      string           `json:"key,omitempty"`
	Source   string           `json:"source,omitempty"`
	Table    string           `json:"table,omitempty"`
	Column   string           `json:"column,omitempty"`
	Alias    string           `json:"alias,omitempty"`
	Type     sqltype.TypeInfo `json:"type"`
	Strategy string           `json:"strategy,omitempty"`
	Default  string           `json:"default,omitempty"`
	Adapter  string           `json:"adapter,omitempty"`
}

// JoinedColumn records the flat name assigned to one selected column.
type JoinedColumn struct {
	Alias  string `json:"alias,omitempty"`
	Column string `json:"column,omitempty"`
	Field  string `json:"field,omitempty"`
	Name   string `json:"name"`
}

// MappedField is a synthetic field that projects member columns into
// a nested shape. For collections, GroupKey names the flat column
// whose value delimits groups, and UniqueKey, when set, the member
// column that deduplicates elements within a group.
type MappedField struct {
	Name        string           `json:"name"`
	Kind        string           `json:"kind"`
	Shape       string           `json:"shape,omitempty"`
	SourceAlias string           `json:"source_alias,omitempty"`
	Table       string           `json:"table,omitempty"`
	Members     []*ResolvedField `json:"members,omitempty"`
	GroupKey    string           `json:"group_key,omitempty"`
	UniqueKey   string           `json:"unique_key,omitempty"`
}

// ParamConfig describes one value adapter requirement: a conversion
// between a driver-side input type and a property-side output type.
// For statement parameters, Table and Column identify the bound
// schema column.
type ParamConfig struct {
	Name   string           `json:"name"`
	Func   string           `json:"func,omitempty"`
	Table  string           `json:"table,omitempty"`
	Column string           `json:"column,omitempty"`
	Input  sqltype.TypeInfo `json:"input"`
	Output sqltype.TypeInfo `json:"output"`
}

// SharedResult is a result shape registered under a (namespace, name)
// pair and required to stay structurally identical across all the
// statements that declare it.
type SharedResult struct {
	Namespace  string           `json:"namespace"`
	Name       string           `json:"name"`
	Implements string           `json:"implements,omitempty"`
	Policy     string           `json:"policy,omitempty"`
	Exclude    []string         `json:"exclude_override_fields,omitempty"`
	Fields     []*ResolvedField `json:"fields,omitempty"`
	Statements []string         `json:"statements,omitempty"`
}

// AdapterOwnership records which namespace owns the canonical
// implementation of an adapter required by several namespaces.
type AdapterOwnership struct {
	Func      string       `json:"func"`
	Owner     string       `json:"owner"`
	Referrers []string     `json:"referrers,omitempty"`
	Config    *ParamConfig `json:"config,omitempty"`
}

// Namespace returns the binding of the named namespace.
func (r *Resolution) Namespace(name string) (*NamespaceBinding, error) {
	for _, n := range r.Namespaces {
		if n.Name == name {
			return n, nil
		}
	}
	return nil, NewNotFoundError("namespace", name)
}

// SharedResult returns the shared result registered under the given
// namespace and name.
func (r *Resolution) SharedResult(namespace, name string) (*SharedResult, error) {
	for _, s := range r.SharedResults {
		if s.Namespace == namespace && s.Name == name {
			return s, nil
		}
	}
	return nil, NewNotFoundError("shared result", namespace+"."+name)
}

// Statement returns the binding of the named statement.
func (n *NamespaceBinding) Statement(name string) (*StatementBinding, error) {
	for _, s := range n.Statements {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, NewNotFoundError("statement", n.Name+"."+name)
}

// Field returns the top-level field with the given property name.
func (b *StatementBinding) Field(name string) (*ResolvedField, error) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, NewNotFoundError("field", b.Name+"."+name)
}

// FlatName returns the flat row name assigned to an (alias, column)
// pair of the statement.
func (b *StatementBinding) FlatName(alias, column string) (string, error) {
	for _, j := range b.Joined {
		if j.Alias == alias && j.Column == column {
			return j.Name, nil
		}
	}
	return "", NewNotFoundError("joined column", alias+"."+column)
}

// columnTypes indexes the logical type of every flat row column, both
// top-level fields and dynamic members.
func (b *StatementBinding) columnTypes() map[string]sqltype.TypeInfo {
	types := make(map[string]sqltype.TypeInfo, len(b.Fields))
	for _, f := range b.Fields {
		types[f.Key] = f.Type
	}
	for _, m := range b.Dynamic {
		for _, f := range m.Members {
			types[f.Key] = f.Type
		}
	}
	return types
}
