package resolve

import (
	"maps"
	"slices"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/compiler/annotation"
	"github.com/syssam/sqlbind/compiler/load"
	"github.com/syssam/sqlbind/schema/sqltype"
)

func (r *Resolver) resolveExecute(ns *nsState, e *load.Execute) (*sqlbind.StatementBinding, error) {
	so, overs, err := annotation.ParseStatement(e.Name, e.Comment)
	if err != nil {
		return nil, err
	}
	if so.SharedResult != "" || so.CollectionKey != "" {
		return nil, NewResolutionError(e.Name, "", "result annotations do not apply to execute statements")
	}
	params := make(map[string]bool, len(e.Params))
	for _, p := range e.Params {
		params[p.Name] = true
	}
	for _, name := range slices.Sorted(maps.Keys(overs)) {
		fo := overs[name]
		if fo.Dynamic || fo.Mapping != annotation.MappingNone {
			return nil, NewResolutionError(e.Name, name, "dynamic mapping does not apply to execute statements")
		}
		if !params[name] {
			return nil, NewResolutionError(e.Name, name,
				"annotation references an unknown parameter", paramNames(e)...)
		}
	}
	aliases, err := r.aliasTables(e.Name, e.Aliases)
	if err != nil {
		return nil, err
	}
	b := &sqlbind.StatementBinding{
		Name: e.Name,
		Kind: sqlbind.KindExecute,
	}
	for _, p := range e.Params {
		pc := r.resolveParam(ns, e, so, overs[p.Name], p, aliases)
		b.Params = append(b.Params, pc)
	}
	return b, nil
}

// resolveParam binds one execute parameter to its schema column and
// decides its adapter requirement. A parameter without an alias binds
// against the statement's target table.
func (r *Resolver) resolveParam(ns *nsState, e *load.Execute, so *annotation.StatementOverrides, over *annotation.FieldOverrides, p *load.Param, aliases map[string]string) *sqlbind.ParamConfig {
	alias := p.Alias
	if alias == "" {
		alias = e.Table
	}
	var property string
	if over != nil {
		property = over.PropertyName
	}
	m := r.schema.resolveColumn(&lookup{
		alias:   alias,
		aliases: aliases,
		cands:   newCandidates(p.Name, p.Column, property),
		scan:    r.cfg.TableScan,
	})
	var base *annotation.FieldOverrides
	if m != nil {
		base = m.over
	}
	merged := annotation.Merge(base, over)

	// An explicit CAST fixes the driver-side type; otherwise the
	// matched column's declared type does.
	var in sqltype.TypeInfo
	notNull := false
	if m != nil {
		notNull = m.notNull
	}
	switch {
	case p.CastType != "":
		in = sqltype.FromSQL(r.cfg.Dialect, p.CastType).AsNullable(!notNull)
	case m != nil:
		in = sqltype.FromSQL(r.cfg.Dialect, m.typeDecl).AsNullable(!notNull)
	default:
		in = sqltype.TypeInfo{Type: sqltype.TypeOther, Nullable: true}
	}
	out := r.fieldType(p.CastType, m, merged)
	if p.In {
		in = in.AsSequence()
		out = out.AsSequence()
	}

	pc := &sqlbind.ParamConfig{
		Name:   propertyName(so.Policy, merged, p.Name),
		Input:  in,
		Output: out,
	}
	if m != nil {
		pc.Table = m.table.def.Name
		pc.Column = m.col.def.Name
	}

	mode := annotation.AdapterUnset
	if merged != nil {
		mode = merged.Adapter
	}
	if annotation.NeedsAdapter(mode, out.BuiltIn()) && (mode == annotation.AdapterCustom || out.Custom) {
		col := pc.Column
		if col == "" {
			col = p.Name
		}
		pc.Func = adapterFuncName(col, out)
		canonical := *pc
		ns.adapters.intern(&canonical, func(name string) { pc.Func = name })
	}
	return pc
}

func paramNames(e *load.Execute) []string {
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = p.Name
	}
	return names
}
