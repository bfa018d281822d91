package resolve

import (
	"github.com/syssam/sqlbind/compiler/annotation"
)

// columnMatch is the outcome of one successful resolver strategy.
type columnMatch struct {
	table    *table
	col      *column
	over     *annotation.FieldOverrides // column and view level overlays
	typeDecl string                     // declared SQL type at the match site
	notNull  bool
	strategy string
}

// lookup carries one field or parameter through the strategy chain.
type lookup struct {
	alias   string
	aliases map[string]string // statement alias declarations
	cands   candidates
	scan    bool
}

// strategy resolves a lookup or reports that it does not apply.
type strategy struct {
	name string
	fn   func(*schemaIndex, *lookup) *columnMatch
}

// strategies is the ordered resolver chain. The first strategy that
// produces a match wins, and its name is recorded on the field.
var strategies = []strategy{
	{"aliasTable", (*schemaIndex).byAliasTable},
	{"aliasView", (*schemaIndex).byAliasView},
	{"anyTable", (*schemaIndex).byTableScan},
}

// resolveColumn runs the strategy chain. A nil result means the field
// stays unresolved, which is not an error by itself: unresolved fields
// default to nullable with their declared statement type.
func (s *schemaIndex) resolveColumn(l *lookup) *columnMatch {
	for _, st := range strategies {
		if m := st.fn(s, l); m != nil {
			m.strategy = st.name
			return m
		}
	}
	return nil
}

// sourceName maps an alias through the statement declarations, falling
// back to the alias itself as a literal object name.
func (l *lookup) sourceName() string {
	if name := l.aliases[l.alias]; name != "" {
		return name
	}
	return l.alias
}

// byAliasTable matches the field's alias against the statement's alias
// declarations, or directly against a table name.
func (s *schemaIndex) byAliasTable(l *lookup) *columnMatch {
	if l.alias == "" {
		return nil
	}
	t, ok := s.tables[l.sourceName()]
	if !ok {
		return nil
	}
	col, ok := t.cols.find(l.cands)
	if !ok {
		return nil
	}
	return &columnMatch{table: t, col: col, over: col.over, typeDecl: col.def.Type, notNull: col.notNull}
}

// byAliasView matches the alias against a declared view and maps the
// view field back to its underlying table column.
func (s *schemaIndex) byAliasView(l *lookup) *columnMatch {
	if l.alias == "" {
		return nil
	}
	v, ok := s.views[l.sourceName()]
	if !ok {
		return nil
	}
	f, ok := v.fields.find(l.cands)
	if !ok {
		return nil
	}
	decl := f.def.Type
	if decl == "" && f.col != nil {
		decl = f.col.def.Type
	}
	return &columnMatch{table: f.table, col: f.col, over: f.over, typeDecl: decl, notNull: f.notNull}
}

// byTableScan searches every table in declaration order. It only runs
// for fields that carry no alias information at all, and is best
// effort: the first declaring table wins.
func (s *schemaIndex) byTableScan(l *lookup) *columnMatch {
	if !l.scan || l.alias != "" {
		return nil
	}
	for _, t := range s.order {
		if col, ok := t.cols.find(l.cands); ok {
			return &columnMatch{table: t, col: col, over: col.over, typeDecl: col.def.Type, notNull: col.notNull}
		}
	}
	return nil
}
