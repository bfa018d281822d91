package sqlbind

import (
	"database/sql"
	"fmt"

	"github.com/syssam/sqlbind/schema/sqltype"
)

// Record is one flat or reconstructed result row. Flat records key by
// the joined column names; reconstructed records key by property
// names, with dynamic fields holding nested records.
type Record map[string]any

// ScanRecords reads all rows into flat records. Columns the binding
// knows are scanned through their logical types; anything else passes
// through as the driver delivered it. This is the first pass of
// reconstruction; Reconstruct is the second.
func (b *StatementBinding) ScanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := b.columnTypes()
	infos := make([]sqltype.TypeInfo, len(cols))
	for i, c := range cols {
		infos[i] = types[c]
	}
	var recs []Record
	for rows.Next() {
		dests := make([]any, len(cols))
		for i := range dests {
			dests[i] = infos[i].NewValue()
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = infos[i].Value(dests[i])
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Reconstruct applies the statement's dynamic field mappings to flat
// records. Entity and per-row fields nest in place, one output record
// per input. Collection fields group input records by the collection
// key, in first-seen order, and emit one output record per group.
func (b *StatementBinding) Reconstruct(recs []Record) ([]Record, error) {
	if len(b.Dynamic) == 0 {
		return recs, nil
	}
	absorbed := make(map[string]struct{})
	var scalars, collections []*MappedField
	for _, m := range b.Dynamic {
		for _, f := range m.Members {
			absorbed[f.Key] = struct{}{}
		}
		if m.Kind == MappedCollection {
			collections = append(collections, m)
		} else {
			scalars = append(scalars, m)
		}
	}
	if len(collections) == 0 {
		out := make([]Record, 0, len(recs))
		for _, rec := range recs {
			out = append(out, reshape(rec, scalars, absorbed))
		}
		return out, nil
	}
	groupKey := collections[0].GroupKey
	for _, c := range collections[1:] {
		if c.GroupKey != groupKey {
			return nil, fmt.Errorf("sqlbind: statement %q: conflicting collection group keys %q and %q",
				b.Name, groupKey, c.GroupKey)
		}
	}
	type group struct {
		out     Record
		seen    map[string]map[string]struct{} // per collection, unique key values
		members map[string][]Record
	}
	var order []string
	groups := make(map[string]*group)
	for _, rec := range recs {
		kv, ok := rec[groupKey]
		if !ok {
			return nil, NewMissingColumnError(b.Name, groupKey)
		}
		gk := valueKey(kv)
		g := groups[gk]
		if g == nil {
			g = &group{
				out:     reshape(rec, scalars, absorbed),
				seen:    make(map[string]map[string]struct{}),
				members: make(map[string][]Record),
			}
			for _, c := range collections {
				g.members[c.Name] = make([]Record, 0)
				g.seen[c.Name] = make(map[string]struct{})
			}
			groups[gk] = g
			order = append(order, gk)
		}
		for _, c := range collections {
			elem := nest(rec, c)
			if elem == nil {
				continue
			}
			if c.UniqueKey != "" {
				uv, ok := rec[c.UniqueKey]
				if !ok {
					return nil, NewMissingColumnError(b.Name, c.UniqueKey)
				}
				uk := valueKey(uv)
				if _, dup := g.seen[c.Name][uk]; dup {
					continue
				}
				g.seen[c.Name][uk] = struct{}{}
			}
			g.members[c.Name] = append(g.members[c.Name], elem)
		}
	}
	out := make([]Record, 0, len(order))
	for _, gk := range order {
		g := groups[gk]
		for _, c := range collections {
			g.out[c.Name] = g.members[c.Name]
		}
		out = append(out, g.out)
	}
	return out, nil
}

// reshape copies a record without the absorbed member columns and
// nests the non-collection dynamic fields in place.
func reshape(rec Record, scalars []*MappedField, absorbed map[string]struct{}) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if _, ok := absorbed[k]; !ok {
			out[k] = v
		}
	}
	for _, m := range scalars {
		if elem := nest(rec, m); elem != nil {
			out[m.Name] = elem
		} else {
			out[m.Name] = nil
		}
	}
	return out
}

// nest builds the nested record of a mapped field from a flat record,
// keyed by member property names. A row whose member columns are all
// NULL yields nil.
func nest(rec Record, m *MappedField) Record {
	elem := make(Record, len(m.Members))
	allNull := true
	for _, f := range m.Members {
		v := rec[f.Key]
		if v != nil {
			allNull = false
		}
		elem[f.Name] = v
	}
	if allNull {
		return nil
	}
	return elem
}

// valueKey folds a scanned value into a map key. Grouping compares
// values by their printed form, so []byte keys group correctly too.
func valueKey(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}
