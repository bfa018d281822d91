package resolve

import (
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/compiler/annotation"
	"github.com/syssam/sqlbind/schema/sqltype"
)

// adapterSig identifies one adapter requirement: the initial function
// name plus the exact input and output types. Two fields or parameters
// with the same signature share one adapter.
type adapterSig struct {
	fn  string
	in  sqltype.TypeInfo
	out sqltype.TypeInfo
}

// adapterEntry is one interned requirement. users are the binding
// sites the final function name must be written back to, since names
// may change when signatures collide.
type adapterEntry struct {
	sig   adapterSig
	cfg   *sqlbind.ParamConfig
	users []func(name string)
}

// nsAdapters collects and deduplicates the value adapters of one
// namespace.
type nsAdapters struct {
	bySig map[adapterSig]*adapterEntry
	order []*adapterEntry
}

func newNSAdapters() *nsAdapters {
	return &nsAdapters{bySig: make(map[adapterSig]*adapterEntry)}
}

// intern registers a requirement. The first config with a given
// signature becomes canonical; later ones only attach their write-back.
func (a *nsAdapters) intern(cfg *sqlbind.ParamConfig, user func(name string)) {
	sig := adapterSig{fn: cfg.Func, in: cfg.Input, out: cfg.Output}
	e := a.bySig[sig]
	if e == nil {
		e = &adapterEntry{sig: sig, cfg: cfg}
		a.bySig[sig] = e
		a.order = append(a.order, e)
	}
	if user != nil {
		e.users = append(e.users, user)
	}
}

// collectField synthesizes the output adapter of a resolved field.
// Only custom property types and fields with an explicit adapter
// request get one; a plain unrecognized SQL type stays raw.
func (a *nsAdapters) collectField(dialect string, st *fieldState) {
	mode := annotation.AdapterUnset
	if st.over != nil {
		mode = st.over.Adapter
	}
	if !annotation.NeedsAdapter(mode, st.out.Type.BuiltIn()) {
		return
	}
	if mode != annotation.AdapterCustom && !st.out.Type.Custom {
		return
	}
	col := st.out.Column
	if col == "" {
		col = st.src.Name
	}
	cfg := &sqlbind.ParamConfig{
		Name:   st.out.Name,
		Func:   adapterFuncName(col, st.out.Type),
		Table:  st.out.Table,
		Column: st.out.Column,
		Input:  columnInput(dialect, st),
		Output: st.out.Type,
	}
	out := st.out
	a.intern(cfg, func(name string) { out.Adapter = name })
}

// columnInput is the driver-side type of a field: the declared schema
// type of its matched column, or the statement's declared type when
// unresolved. Input nullability follows the schema, not annotations.
func columnInput(dialect string, st *fieldState) sqltype.TypeInfo {
	decl := st.src.Type
	notNull := false
	if st.match != nil {
		decl = st.match.typeDecl
		notNull = st.match.notNull
	}
	if decl == "" {
		return sqltype.TypeInfo{Type: sqltype.TypeOther, Nullable: !notNull}
	}
	return sqltype.FromSQL(dialect, decl).AsNullable(!notNull)
}

// adapterFuncName is the initial adapter name. Custom output types
// name the adapter after the type, everything else after the column.
func adapterFuncName(column string, out sqltype.TypeInfo) string {
	if out.Custom {
		return "adapt" + typeLabel(out)
	}
	return "adapt" + pascal(column)
}

// finalize resolves name collisions, writes final names back to every
// binding site, and returns the namespace adapter list sorted by
// function name.
//
// Entries keeping a unique name stay as they are. When several
// signatures computed the same name, every one of them is renamed by
// the side that tells them apart: the output type when outputs differ,
// the input type otherwise, with a counter as the last resort.
func (a *nsAdapters) finalize() []*sqlbind.ParamConfig {
	groups := make(map[string][]*adapterEntry, len(a.order))
	for _, e := range a.order {
		groups[e.sig.fn] = append(groups[e.sig.fn], e)
	}
	used := make(map[string]bool, len(a.order))
	for name, g := range groups {
		if len(g) == 1 {
			used[name] = true
		}
	}
	for _, e := range a.order {
		g := groups[e.sig.fn]
		if len(g) < 2 || g[0] != e {
			continue
		}
		outsDiffer := false
		for _, m := range g[1:] {
			if m.cfg.Output != g[0].cfg.Output {
				outsDiffer = true
				break
			}
		}
		for _, m := range g {
			side := m.cfg.Input
			if outsDiffer {
				side = m.cfg.Output
			}
			name := m.sig.fn + renameLabel(side)
			for n := 2; used[name]; n++ {
				name = m.sig.fn + renameLabel(side) + strconv.Itoa(n)
			}
			used[name] = true
			m.cfg.Func = name
		}
	}
	out := make([]*sqlbind.ParamConfig, 0, len(a.order))
	for _, e := range a.order {
		for _, u := range e.users {
			u(e.cfg.Func)
		}
		out = append(out, e.cfg)
	}
	slices.SortStableFunc(out, func(a, b *sqlbind.ParamConfig) int {
		return strings.Compare(a.Func, b.Func)
	})
	return out
}

// adapterOwnership assigns every adapter function required by more
// than one namespace a canonical owner. The owner is the namespace
// whose requirement is the most demanding, so that its implementation
// covers every referrer.
func adapterOwnership(namespaces []*sqlbind.NamespaceBinding) []*sqlbind.AdapterOwnership {
	type cand struct {
		ns  string
		cfg *sqlbind.ParamConfig
	}
	byFunc := make(map[string][]cand)
	var fnOrder []string
	for _, ns := range namespaces {
		for _, cfg := range ns.Adapters {
			if len(byFunc[cfg.Func]) == 0 {
				fnOrder = append(fnOrder, cfg.Func)
			}
			byFunc[cfg.Func] = append(byFunc[cfg.Func], cand{ns: ns.Name, cfg: cfg})
		}
	}
	var out []*sqlbind.AdapterOwnership
	for _, fn := range fnOrder {
		cands := byFunc[fn]
		seen := make(map[string]bool, len(cands))
		for _, c := range cands {
			seen[c.ns] = true
		}
		if len(seen) < 2 {
			continue
		}
		best := cands[0]
		for _, c := range cands[1:] {
			if adapterScore(c.cfg) > adapterScore(best.cfg) {
				best = c
			}
		}
		var refs []string
		for ns := range seen {
			if ns != best.ns {
				refs = append(refs, ns)
			}
		}
		slices.Sort(refs)
		out = append(out, &sqlbind.AdapterOwnership{
			Func:      fn,
			Owner:     best.ns,
			Referrers: refs,
			Config:    best.cfg,
		})
	}
	slices.SortFunc(out, func(a, b *sqlbind.AdapterOwnership) int {
		return strings.Compare(a.Func, b.Func)
	})
	return out
}

// adapterScore ranks how demanding an adapter requirement is. Custom
// outputs weigh most, then a non-nullable input, then an actual type
// change.
func adapterScore(cfg *sqlbind.ParamConfig) int {
	s := 0
	if !cfg.Output.BuiltIn() {
		s += 2
	}
	if !cfg.Input.Nullable {
		s++
	}
	if cfg.Input != cfg.Output {
		s++
	}
	return s
}
