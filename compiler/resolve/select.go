package resolve

import (
	"fmt"
	"maps"
	"slices"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/compiler/annotation"
	"github.com/syssam/sqlbind/compiler/load"
	"github.com/syssam/sqlbind/schema/sqltype"
)

// fieldState is a projection field mid-resolution. out is the field's
// final binding entry; match and over feed the later passes.
type fieldState struct {
	src   *load.Field
	match *columnMatch
	over  *annotation.FieldOverrides // column overlays merged under statement ones
	out   *sqlbind.ResolvedField
}

func (r *Resolver) resolveSelect(ns *nsState, s *load.Select) (*sqlbind.StatementBinding, error) {
	so, overs, err := annotation.ParseStatement(s.Name, s.Comment)
	if err != nil {
		return nil, err
	}
	aliases, err := r.aliasTables(s.Name, s.Aliases)
	if err != nil {
		return nil, err
	}
	dyn, err := splitDynamic(s, overs)
	if err != nil {
		return nil, err
	}

	fields := make([]*fieldState, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, r.resolveField(so, overs[f.Name], f, aliases))
	}

	// Flat names cover the full projection, absorbed columns included:
	// the row a writer emits is always flat.
	names := newNameTable()
	for _, st := range fields {
		col := st.out.Column
		if col == "" {
			col = st.src.Name
		}
		st.out.Key = names.assign(st.src.Alias, col, st.src.Name, st.out.Name)
	}

	mapped, absorbed, err := r.mapDynamics(s, so, dyn, fields, aliases)
	if err != nil {
		return nil, err
	}
	var top []*sqlbind.ResolvedField
	for _, st := range fields {
		if !absorbed[st] {
			top = append(top, st.out)
		}
	}

	for _, st := range fields {
		ns.adapters.collectField(r.cfg.Dialect, st)
	}

	b := &sqlbind.StatementBinding{
		Name:         s.Name,
		Kind:         sqlbind.KindSelect,
		ResultName:   resultName(so, s.Name),
		SharedResult: so.SharedResult,
		Implements:   so.Implements,
		Fields:       top,
		Joined:       names.joined(),
		Dynamic:      mapped,
	}
	if so.SharedResult != "" {
		if err := r.shared.register(ns.name, s.Name, so, top, mapped); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// resolveField matches one projection field to its column and builds
// its binding entry. An unresolved field is not an error: it keeps its
// synthetic name and defaults to nullable.
func (r *Resolver) resolveField(so *annotation.StatementOverrides, stmtOver *annotation.FieldOverrides, f *load.Field, aliases map[string]string) *fieldState {
	var prefixes []string
	var property string
	if stmtOver != nil {
		prefixes = append(prefixes, stmtOver.RemoveAliasPrefix)
		property = stmtOver.PropertyName
	}
	if f.Alias != "" {
		prefixes = append(prefixes, f.Alias+"_")
	}
	m := r.schema.resolveColumn(&lookup{
		alias:   f.Alias,
		aliases: aliases,
		cands:   newCandidates(f.Name, f.Column, property, prefixes...),
		scan:    r.cfg.TableScan,
	})
	var base *annotation.FieldOverrides
	if m != nil {
		base = m.over
	}
	over := annotation.Merge(base, stmtOver)

	name := f.Name
	out := &sqlbind.ResolvedField{
		Source: f.Name,
		Alias:  f.Alias,
		Type:   r.fieldType(f.Type, m, over),
	}
	if m != nil {
		out.Table = m.table.def.Name
		out.Column = m.col.def.Name
		out.Strategy = m.strategy
		name = out.Column
	}
	out.Name = propertyName(so.Policy, over, name)
	if over != nil {
		out.Default = over.DefaultValue
	}
	return &fieldState{src: f, match: m, over: over, out: out}
}

// fieldType computes the logical type of a field. An explicit notNull
// annotation wins over the schema constraint, a custom property type
// replaces the mapped column type, and unresolved fields fall back to
// the statement's declared type, nullable.
func (r *Resolver) fieldType(declType string, m *columnMatch, over *annotation.FieldOverrides) sqltype.TypeInfo {
	notNull := false
	switch {
	case over != nil && over.NotNull != nil:
		notNull = *over.NotNull
	case m != nil:
		notNull = m.notNull
	}
	if over != nil && over.PropertyType != "" {
		return sqltype.CustomInfo(over.PropertyType, !notNull)
	}
	decl := declType
	if m != nil {
		decl = m.typeDecl
	}
	if decl == "" {
		return sqltype.TypeInfo{Type: sqltype.TypeOther, Nullable: !notNull}
	}
	return sqltype.FromSQL(r.cfg.Dialect, decl).AsNullable(!notNull)
}

// aliasTables maps the statement's alias declarations to their object
// names, rejecting references to undeclared tables and views.
func (r *Resolver) aliasTables(stmt string, decls []*load.AliasDecl) (map[string]string, error) {
	aliases := make(map[string]string, len(decls))
	for _, a := range decls {
		if !r.schema.declared(a.Table) {
			return nil, NewSchemaError(stmt, a.Table, "",
				fmt.Sprintf("alias %s references an unknown object", a.Alias), r.schema.objectNames()...)
		}
		aliases[a.Alias] = a.Table
	}
	return aliases, nil
}

// dynamicDecl is a synthetic field declared only through annotations.
type dynamicDecl struct {
	name string
	over *annotation.FieldOverrides
}

// splitDynamic separates the synthetic dynamic fields out of the
// statement's field annotations. A synthetic field must not collide
// with a projection name, and every remaining annotation must target a
// projected field.
func splitDynamic(s *load.Select, overs map[string]*annotation.FieldOverrides) ([]dynamicDecl, error) {
	proj := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		proj[f.Name] = true
	}
	var dyn []dynamicDecl
	for _, name := range slices.Sorted(maps.Keys(overs)) {
		fo := overs[name]
		if !fo.Dynamic && fo.Mapping == annotation.MappingNone {
			if !proj[name] {
				return nil, NewResolutionError(s.Name, name,
					"annotation references a field missing from the projection", fieldNames(s)...)
			}
			continue
		}
		if proj[name] {
			return nil, NewResolutionError(s.Name, name, "dynamic field collides with a projected column")
		}
		dyn = append(dyn, dynamicDecl{name: name, over: fo})
	}
	return dyn, nil
}

// resultName names the statement's result shape. A shared result
// carries its own name, so only standalone statements get a default.
func resultName(so *annotation.StatementOverrides, stmt string) string {
	switch {
	case so.ResultName != "":
		return so.ResultName
	case so.SharedResult != "":
		return ""
	default:
		return pascal(stmt) + "Result"
	}
}

func fieldNames(s *load.Select) []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func aliasNames(aliases map[string]string) []string {
	names := slices.Sorted(maps.Keys(aliases))
	for i, a := range names {
		names[i] = a + " -> " + aliases[a]
	}
	return names
}

func flatNames(fields []*fieldState) []string {
	names := make([]string, len(fields))
	for i, st := range fields {
		names[i] = st.out.Key
	}
	return names
}
