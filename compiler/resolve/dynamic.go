package resolve

import (
	"fmt"
	"strings"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/compiler/annotation"
	"github.com/syssam/sqlbind/compiler/load"
)

// mapDynamics builds the mapping plan for every synthetic field of a
// statement. It returns the plans in field name order and the set of
// projection columns they absorbed.
func (r *Resolver) mapDynamics(s *load.Select, so *annotation.StatementOverrides, dyn []dynamicDecl, fields []*fieldState, aliases map[string]string) ([]*sqlbind.MappedField, map[*fieldState]bool, error) {
	if len(dyn) == 0 {
		return nil, nil, nil
	}
	if err := checkMappedColumns(r.schema, s, dyn, fields, aliases); err != nil {
		return nil, nil, err
	}
	absorbed := make(map[*fieldState]bool)
	out := make([]*sqlbind.MappedField, 0, len(dyn))
	for _, d := range dyn {
		m, members, err := r.mapDynamic(s, so, d, fields, aliases)
		if err != nil {
			return nil, nil, err
		}
		for _, st := range members {
			absorbed[st] = true
		}
		out = append(out, m)
	}
	return out, absorbed, nil
}

// checkMappedColumns guards against silently dropping columns: once a
// statement maps anything, every aliased column must either resolve
// through a declared alias or carry the prefix of a dynamic field.
func checkMappedColumns(schema *schemaIndex, s *load.Select, dyn []dynamicDecl, fields []*fieldState, aliases map[string]string) error {
	prefixes := make([]string, 0, len(dyn))
	for _, d := range dyn {
		prefixes = append(prefixes, dynamicPrefix(d))
	}
	for _, st := range fields {
		a := st.src.Alias
		if a == "" || aliases[a] != "" || schema.declared(a) {
			continue
		}
		if !hasAnyPrefix(st.src.Name, prefixes) {
			return NewResolutionError(s.Name, st.src.Name,
				fmt.Sprintf("column alias %s matches no declared alias or dynamic prefix", a),
				aliasNames(aliases)...)
		}
	}
	return nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// dynamicPrefix is the synthetic name prefix a dynamic field claims.
func dynamicPrefix(d dynamicDecl) string {
	if d.over.RemoveAliasPrefix != "" {
		return d.over.RemoveAliasPrefix
	}
	return d.over.SourceAlias + "_"
}

func (r *Resolver) mapDynamic(s *load.Select, so *annotation.StatementOverrides, d dynamicDecl, fields []*fieldState, aliases map[string]string) (*sqlbind.MappedField, []*fieldState, error) {
	srcAlias := d.over.SourceAlias
	if srcAlias == "" {
		return nil, nil, NewResolutionError(s.Name, d.name, "dynamic field requires sourceTable")
	}
	members, tableName := r.dynamicMembers(d, srcAlias, fields, aliases)
	if len(members) == 0 {
		return nil, nil, NewResolutionError(s.Name, d.name,
			fmt.Sprintf("no selected columns match source %s", srcAlias), aliasNames(aliases)...)
	}
	kind := d.over.Mapping
	if kind == annotation.MappingNone {
		kind = annotation.MappingEntity
	}
	m := &sqlbind.MappedField{
		Name:        propertyName(so.Policy, d.over, d.name),
		Kind:        kind.String(),
		Shape:       shapeName(s.Name, d.name, kind, tableName),
		SourceAlias: srcAlias,
		Table:       tableName,
	}
	for _, st := range members {
		m.Members = append(m.Members, st.out)
	}
	if kind == annotation.MappingCollection {
		key, err := collectionKey(s, so, d, fields)
		if err != nil {
			return nil, nil, err
		}
		m.GroupKey = key
	}
	if d.over.UniqueKey != "" {
		key, ok := flatNameAmong(members, d.over.UniqueKey)
		if !ok {
			return nil, nil, NewResolutionError(s.Name, d.name,
				fmt.Sprintf("uniqueKey %s does not correspond to any selected field", d.over.UniqueKey),
				memberNames(members)...)
		}
		m.UniqueKey = key
	}
	return m, members, nil
}

// dynamicMembers collects the member columns of a dynamic field. Three
// fallbacks run in order and the first one producing members wins: the
// declared source as a statement alias, the declared source as a
// literal table name, and the dynamic prefix matched against synthetic
// names.
func (r *Resolver) dynamicMembers(d dynamicDecl, srcAlias string, fields []*fieldState, aliases map[string]string) ([]*fieldState, string) {
	if t := aliases[srcAlias]; t != "" {
		var members []*fieldState
		for _, st := range fields {
			if st.src.Alias == srcAlias {
				members = append(members, st)
			}
		}
		if len(members) > 0 {
			return members, t
		}
	}
	if r.schema.declared(srcAlias) {
		var members []*fieldState
		for _, st := range fields {
			if st.src.Alias == srcAlias || matchedTable(st) == srcAlias {
				members = append(members, st)
			}
		}
		if len(members) > 0 {
			return members, srcAlias
		}
	}
	prefix := dynamicPrefix(d)
	var members []*fieldState
	for _, st := range fields {
		if strings.HasPrefix(st.src.Name, prefix) {
			members = append(members, st)
		}
	}
	var tableName string
	for _, st := range members {
		if t := matchedTable(st); t != "" {
			tableName = t
			break
		}
	}
	return members, tableName
}

func matchedTable(st *fieldState) string {
	if st.match == nil || st.match.table == nil {
		return ""
	}
	return st.match.table.def.Name
}

// collectionKey resolves the flat column whose value delimits groups
// of a collection. A statement-level collectionKey wins; otherwise the
// join conditions referencing the collection's alias supply it: the
// column on the other side of the join, resolved among the selected
// fields.
func collectionKey(s *load.Select, so *annotation.StatementOverrides, d dynamicDecl, fields []*fieldState) (string, error) {
	if so.CollectionKey != "" {
		key, ok := flatNameAmong(fields, so.CollectionKey)
		if !ok {
			return "", NewResolutionError(s.Name, d.name,
				fmt.Sprintf("collectionKey %s does not correspond to any selected field", so.CollectionKey),
				flatNames(fields)...)
		}
		return key, nil
	}
	srcAlias := d.over.SourceAlias
	for _, j := range s.Joins {
		var alias, col string
		switch {
		case j.LeftAlias == srcAlias:
			alias, col = j.RightAlias, j.RightColumn
		case j.RightAlias == srcAlias:
			alias, col = j.LeftAlias, j.LeftColumn
		default:
			continue
		}
		for _, st := range fields {
			if st.src.Alias != alias {
				continue
			}
			if st.out.Column == col || st.src.Name == col || st.src.Column == col {
				return st.out.Key, nil
			}
		}
	}
	return "", NewResolutionError(s.Name, d.name, "a collection key is required for collection mapping")
}

// flatNameAmong finds the flat name of a field referenced as
// alias.column, by property name, or by synthetic name.
func flatNameAmong(fields []*fieldState, ref string) (string, bool) {
	if alias, col, ok := strings.Cut(ref, "."); ok {
		for _, st := range fields {
			if st.src.Alias == alias && (st.out.Column == col || st.src.Name == col || st.src.Column == col) {
				return st.out.Key, true
			}
		}
		return "", false
	}
	for _, st := range fields {
		if st.out.Name == ref || st.src.Name == ref || st.out.Key == ref {
			return st.out.Key, true
		}
	}
	return "", false
}

// shapeName names the nested shape of a dynamic field. Entity and
// collection shapes reuse their source table shape; per-row shapes are
// statement-local.
func shapeName(stmt, field string, kind annotation.MappingKind, tableName string) string {
	if kind == annotation.MappingPerRow || tableName == "" {
		return pascal(stmt) + pascal(field)
	}
	return pascal(tableName)
}

func memberNames(members []*fieldState) []string {
	names := make([]string, len(members))
	for i, st := range members {
		names[i] = st.out.Name
	}
	return names
}
