// Package load defines the statement model handed to the binding
// resolver. Statements are produced elsewhere, by a SQL front end or
// by tests building the model directly, and arrive here either as Go
// values or as JSON documents.
package load

import (
	"fmt"
	"sort"
	"unicode"
)

// Statement is the closed set of statement kinds the resolver accepts.
// Every consumption site switches over all four kinds and treats
// anything else as an error.
type Statement interface {
	isStatement()
}

func (*Select) isStatement()      {}
func (*Execute) isStatement()     {}
func (*CreateTable) isStatement() {}
func (*CreateView) isStatement()  {}

// Select is a read statement. Its projection carries the synthetic
// field names that resolution maps back to schema columns.
type Select struct {
	Name    string       `json:"name,omitempty"`
	Comment string       `json:"comment,omitempty"`
	Aliases []*AliasDecl `json:"aliases,omitempty"`
	Joins   []*JoinCond  `json:"joins,omitempty"`
	Fields  []*Field     `json:"fields,omitempty"`
}

// Execute is a write statement. Its named parameters become the input
// side of the binding.
type Execute struct {
	Name    string       `json:"name,omitempty"`
	Comment string       `json:"comment,omitempty"`
	Table   string       `json:"table,omitempty"`
	Aliases []*AliasDecl `json:"aliases,omitempty"`
	Params  []*Param     `json:"params,omitempty"`
}

// CreateTable declares a base table of the schema.
type CreateTable struct {
	Table *Table `json:"table,omitempty"`
}

// CreateView declares a view over previously declared tables or views.
type CreateView struct {
	View *View `json:"view,omitempty"`
}

// AliasDecl binds a table alias used by a statement to its table name.
type AliasDecl struct {
	Alias string `json:"alias,omitempty"`
	Table string `json:"table,omitempty"`
}

// JoinCond is a single equality condition of a JOIN clause, kept as
// (alias, column) pairs. Collection mapping derives its grouping key
// from these.
type JoinCond struct {
	LeftAlias   string `json:"left_alias,omitempty"`
	LeftColumn  string `json:"left_column,omitempty"`
	RightAlias  string `json:"right_alias,omitempty"`
	RightColumn string `json:"right_column,omitempty"`
}

// Field is one entry of a select projection. Alias and Column are set
// when they were syntactically available; otherwise resolution works
// from the synthetic name alone.
type Field struct {
	Name   string `json:"name,omitempty"`
	Alias  string `json:"alias,omitempty"`
	Column string `json:"column,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Param is a named parameter of an execute statement.
type Param struct {
	Name     string `json:"name,omitempty"`
	Alias    string `json:"alias,omitempty"`
	Column   string `json:"column,omitempty"`
	CastType string `json:"cast_type,omitempty"`
	In       bool   `json:"in,omitempty"`
}

// Table is a base table declaration.
type Table struct {
	Name    string    `json:"name,omitempty"`
	Columns []*Column `json:"columns,omitempty"`
}

// Column is a single column of a table declaration. Comment holds the
// raw column comment, including any annotation blocks.
type Column struct {
	Name       string `json:"name,omitempty"`
	Type       string `json:"type,omitempty"`
	NotNull    bool   `json:"not_null,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	Default    string `json:"default,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// View is a view declaration. Each view field names the source it
// projects, which may itself be a view.
type View struct {
	Name   string       `json:"name,omitempty"`
	Fields []*ViewField `json:"fields,omitempty"`
}

// ViewField is one projected field of a view.
type ViewField struct {
	Name    string `json:"name,omitempty"`
	Source  string `json:"source,omitempty"`
	Column  string `json:"column,omitempty"`
	Type    string `json:"type,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Statement kind names used by the JSON envelope.
const (
	KindSelect      = "select"
	KindExecute     = "execute"
	KindCreateTable = "create_table"
	KindCreateView  = "create_view"
)

// KindOf returns the kind name of a statement.
func KindOf(s Statement) string {
	switch s.(type) {
	case *Select:
		return KindSelect
	case *Execute:
		return KindExecute
	case *CreateTable:
		return KindCreateTable
	case *CreateView:
		return KindCreateView
	default:
		return ""
	}
}

// Name returns the declared name of a statement. Tables and views are
// named by their schema object.
func Name(s Statement) string {
	switch s := s.(type) {
	case *Select:
		return s.Name
	case *Execute:
		return s.Name
	case *CreateTable:
		if s.Table != nil {
			return s.Table.Name
		}
	case *CreateView:
		if s.View != nil {
			return s.View.Name
		}
	}
	return ""
}

// Validate checks a statement for structural problems that no later
// stage can repair. It returns an error describing the first one.
func Validate(s Statement) error {
	switch s := s.(type) {
	case *Select:
		return s.validate()
	case *Execute:
		return s.validate()
	case *CreateTable:
		if s.Table == nil {
			return fmt.Errorf("create table: missing table")
		}
		return s.Table.validate()
	case *CreateView:
		if s.View == nil {
			return fmt.Errorf("create view: missing view")
		}
		return s.View.validate()
	default:
		return fmt.Errorf("unknown statement type %T", s)
	}
}

func (s *Select) validate() error {
	if err := validName(s.Name); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("select %q: empty projection", s.Name)
	}
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("select %q: field without a name", s.Name)
		}
	}
	if err := validAliases(s.Aliases); err != nil {
		return fmt.Errorf("select %q: %w", s.Name, err)
	}
	return nil
}

func (s *Execute) validate() error {
	if err := validName(s.Name); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	for _, p := range s.Params {
		if p.Name == "" {
			return fmt.Errorf("execute %q: parameter without a name", s.Name)
		}
	}
	return validAliases(s.Aliases)
}

func (t *Table) validate() error {
	if err := validName(t.Name); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q: no columns", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("table %q: column without a name", t.Name)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("table %q: duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

func (v *View) validate() error {
	if err := validName(v.Name); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	if len(v.Fields) == 0 {
		return fmt.Errorf("view %q: no fields", v.Name)
	}
	seen := make(map[string]struct{}, len(v.Fields))
	for _, f := range v.Fields {
		if f.Name == "" {
			return fmt.Errorf("view %q: field without a name", v.Name)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("view %q: duplicate field %q", v.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func validAliases(aliases []*AliasDecl) error {
	seen := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		if a.Alias == "" || a.Table == "" {
			return fmt.Errorf("incomplete alias declaration %q -> %q", a.Alias, a.Table)
		}
		if _, ok := seen[a.Alias]; ok {
			return fmt.Errorf("duplicate alias %q", a.Alias)
		}
		seen[a.Alias] = struct{}{}
	}
	return nil
}

// validName ensures the name can back a generated identifier: it must
// start with a letter and contain letters, digits or underscores only.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("missing name")
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r), r == '_':
		case unicode.IsDigit(r) && i > 0:
		default:
			return fmt.Errorf("invalid name %q", name)
		}
	}
	return nil
}

// SortStatements orders statements by name, keeping the declaration
// order of equally named ones. Resolution depends on this order being
// stable across runs.
func SortStatements(stmts []Statement) {
	sort.SliceStable(stmts, func(i, j int) bool {
		return Name(stmts[i]) < Name(stmts[j])
	})
}
