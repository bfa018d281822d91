package resolve

import (
	"fmt"
	"maps"
	"slices"

	"github.com/syssam/sqlbind/compiler/annotation"
	"github.com/syssam/sqlbind/compiler/load"
	"github.com/syssam/sqlbind/schema/sqltype"
)

// column is a table column with its parsed annotation overlay and the
// schema-derived nullability.
type column struct {
	def     *load.Column
	over    *annotation.FieldOverrides
	notNull bool
}

// table is a registered CREATE TABLE.
type table struct {
	def  *load.Table
	cols *index[*column]
	list []*column
}

func (t *table) columnNames() []string {
	names := make([]string, len(t.list))
	for i, c := range t.list {
		names[i] = c.def.Name
	}
	return names
}

// viewField is one view projection entry. table and col point at the
// underlying table column once the index is finalized; over carries
// that column's overlay merged under the view-level one.
type viewField struct {
	def     *load.ViewField
	table   *table
	col     *column
	over    *annotation.FieldOverrides
	notNull bool
}

// view is a registered CREATE VIEW.
type view struct {
	def    *load.View
	fields *index[*viewField]
	list   []*viewField
}

func (v *view) fieldNames() []string {
	names := make([]string, len(v.list))
	for i, f := range v.list {
		names[i] = f.def.Name
	}
	return names
}

// schemaIndex registers the tables and views of a run and resolves
// name lookups against them. View fields resolve to their underlying
// table columns in dependency order at finalize time.
type schemaIndex struct {
	dialect string
	tables  map[string]*table
	order   []*table
	views   map[string]*view
	vorder  []*view
}

func newSchemaIndex(dialect string) *schemaIndex {
	return &schemaIndex{
		dialect: dialect,
		tables:  make(map[string]*table),
		views:   make(map[string]*view),
	}
}

// declared reports whether the name is a registered table or view.
func (s *schemaIndex) declared(name string) bool {
	_, t := s.tables[name]
	_, v := s.views[name]
	return t || v
}

// objectNames returns every registered table and view name, sorted.
func (s *schemaIndex) objectNames() []string {
	names := slices.AppendSeq(slices.Collect(maps.Keys(s.tables)), maps.Keys(s.views))
	slices.Sort(names)
	return names
}

func (s *schemaIndex) addTable(t *load.Table) error {
	if s.declared(t.Name) {
		return NewSchemaError("", t.Name, "", "object declared twice")
	}
	tb := &table{def: t, cols: newIndex[*column](len(t.Columns))}
	for _, c := range t.Columns {
		over, err := annotation.ParseColumn(t.Name, c.Name, c.Comment)
		if err != nil {
			return err
		}
		col := &column{
			def:     c,
			over:    over,
			notNull: c.NotNull || c.PrimaryKey || sqltype.ImpliedNotNull(s.dialect, c.Type),
		}
		tb.cols.put(c.Name, col)
		tb.list = append(tb.list, col)
	}
	s.tables[t.Name] = tb
	s.order = append(s.order, tb)
	return nil
}

func (s *schemaIndex) addView(v *load.View) error {
	if s.declared(v.Name) {
		return NewSchemaError("", v.Name, "", "object declared twice")
	}
	vw := &view{def: v, fields: newIndex[*viewField](len(v.Fields))}
	for _, f := range v.Fields {
		over, err := annotation.ParseColumn(v.Name, f.Name, f.Comment)
		if err != nil {
			return err
		}
		vf := &viewField{def: f, over: over}
		vw.fields.put(f.Name, vf)
		vw.list = append(vw.list, vf)
	}
	s.views[v.Name] = vw
	s.vorder = append(s.vorder, vw)
	return nil
}

// finalize resolves every view field down to its underlying table
// column. Views may project other views, so they resolve in dependency
// order; ties keep declaration order.
func (s *schemaIndex) finalize() error {
	done := make(map[*view]bool, len(s.vorder))
	for remaining := len(s.vorder); remaining > 0; {
		progressed := false
		for _, vw := range s.vorder {
			if done[vw] || !s.ready(vw, done) {
				continue
			}
			if err := s.resolveView(vw); err != nil {
				return err
			}
			done[vw] = true
			remaining--
			progressed = true
		}
		if !progressed {
			var cycle []string
			for _, vw := range s.vorder {
				if !done[vw] {
					cycle = append(cycle, vw.def.Name)
				}
			}
			return NewSchemaError("", cycle[0], "", "view dependency cycle", cycle...)
		}
	}
	return nil
}

// ready reports whether every view the given view projects has been
// resolved already.
func (s *schemaIndex) ready(vw *view, done map[*view]bool) bool {
	for _, f := range vw.list {
		if dep, ok := s.views[f.def.Source]; ok && !done[dep] {
			return false
		}
	}
	return true
}

func (s *schemaIndex) resolveView(vw *view) error {
	for _, f := range vw.list {
		name := f.def.Column
		if name == "" {
			name = f.def.Name
		}
		cands := newCandidates(name, "", "")
		switch {
		case s.tables[f.def.Source] != nil:
			t := s.tables[f.def.Source]
			col, ok := t.cols.find(cands)
			if !ok {
				return NewSchemaError("", f.def.Source, name,
					fmt.Sprintf("unknown column projected by view %s", vw.def.Name), t.columnNames()...)
			}
			f.table, f.col = t, col
			f.over = annotation.Merge(col.over, f.over)
			f.notNull = col.notNull
		case s.views[f.def.Source] != nil:
			uv := s.views[f.def.Source]
			uf, ok := uv.fields.find(cands)
			if !ok {
				return NewSchemaError("", f.def.Source, name,
					fmt.Sprintf("unknown field projected by view %s", vw.def.Name), uv.fieldNames()...)
			}
			f.table, f.col = uf.table, uf.col
			f.over = annotation.Merge(uf.over, f.over)
			f.notNull = uf.notNull
		default:
			return NewSchemaError("", f.def.Source, "",
				fmt.Sprintf("unknown source for view %s", vw.def.Name), s.objectNames()...)
		}
	}
	return nil
}
