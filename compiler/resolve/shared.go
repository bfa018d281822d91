package resolve

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/compiler/annotation"
)

type sharedKey struct {
	ns   string
	name string
}

// sharedEntry tracks one shared result across the statements that
// declare it. sig is the shape signature of the first declaration;
// every later one must match it line for line.
type sharedEntry struct {
	out        *sqlbind.SharedResult
	sig        []string
	excludeSet bool
}

// sharedResults validates that statements declaring the same shared
// result agree on its shape and its configuration.
type sharedResults struct {
	byKey map[sharedKey]*sharedEntry
	order []*sharedEntry
}

func newSharedResults() *sharedResults {
	return &sharedResults{byKey: make(map[sharedKey]*sharedEntry)}
}

// register joins a statement to its shared result, creating the result
// on first sight. The first declaration fixes the shape; later ones
// must match it exactly. Implements and the naming policy must agree
// everywhere, and an unset exclude list inherits the declared one.
func (s *sharedResults) register(ns, stmt string, so *annotation.StatementOverrides, fields []*sqlbind.ResolvedField, dynamic []*sqlbind.MappedField) error {
	key := sharedKey{ns: ns, name: so.SharedResult}
	sig := shapeLines(fields, dynamic)
	e := s.byKey[key]
	if e == nil {
		e = &sharedEntry{
			out: &sqlbind.SharedResult{
				Namespace:  ns,
				Name:       so.SharedResult,
				Implements: so.Implements,
				Policy:     so.Policy.String(),
				Fields:     fields,
			},
			sig: sig,
		}
		if so.ExcludeOverrideFields != nil {
			e.out.Exclude = normalizeExclude(so.ExcludeOverrideFields)
			e.excludeSet = true
		}
		s.byKey[key] = e
		s.order = append(s.order, e)
		e.out.Statements = append(e.out.Statements, stmt)
		return nil
	}
	if !slices.Equal(e.sig, sig) {
		return NewConsistencyError(ns, so.SharedResult,
			fmt.Sprintf("statement %s declares a different shape", stmt), e.sig, sig)
	}
	if e.out.Implements != so.Implements {
		return NewConsistencyError(ns, so.SharedResult,
			fmt.Sprintf("statement %s declares a different interface", stmt),
			orNone(e.out.Implements), orNone(so.Implements))
	}
	if e.out.Policy != so.Policy.String() {
		return NewConsistencyError(ns, so.SharedResult,
			fmt.Sprintf("statement %s declares a different naming policy", stmt),
			orNone(e.out.Policy), orNone(so.Policy.String()))
	}
	if so.ExcludeOverrideFields != nil {
		exclude := normalizeExclude(so.ExcludeOverrideFields)
		switch {
		case !e.excludeSet:
			e.out.Exclude = exclude
			e.excludeSet = true
		case !slices.Equal(e.out.Exclude, exclude):
			return NewConsistencyError(ns, so.SharedResult,
				fmt.Sprintf("statement %s declares a different exclude list", stmt),
				orNoneList(e.out.Exclude), orNoneList(exclude))
		}
	}
	e.out.Statements = append(e.out.Statements, stmt)
	return nil
}

// finalize returns the shared results sorted by namespace and name,
// with their statement lists sorted.
func (s *sharedResults) finalize() []*sqlbind.SharedResult {
	out := make([]*sqlbind.SharedResult, 0, len(s.order))
	for _, e := range s.order {
		slices.Sort(e.out.Statements)
		out = append(out, e.out)
	}
	slices.SortFunc(out, func(a, b *sqlbind.SharedResult) int {
		if c := strings.Compare(a.Namespace, b.Namespace); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// shapeLines renders a result shape as sorted "name type" lines, the
// unit of comparison between shared declarations. Dynamic fields
// compare by their nested shape, collections as sequences of it.
func shapeLines(fields []*sqlbind.ResolvedField, dynamic []*sqlbind.MappedField) []string {
	lines := make([]string, 0, len(fields)+len(dynamic))
	for _, f := range fields {
		l := f.Name + " " + f.Type.String()
		if f.Type.Custom {
			l += " (custom)"
		}
		lines = append(lines, l)
	}
	for _, m := range dynamic {
		shape := m.Shape
		if m.Kind == sqlbind.MappedCollection {
			shape = "[]" + shape
		}
		lines = append(lines, m.Name+" "+shape)
	}
	slices.Sort(lines)
	return lines
}

// normalizeExclude returns a sorted copy with duplicates removed.
func normalizeExclude(exclude []string) []string {
	out := slices.Clone(exclude)
	slices.Sort(out)
	return slices.Compact(out)
}

func orNone(s string) []string {
	if s == "" {
		return []string{"(none)"}
	}
	return []string{s}
}

func orNoneList(s []string) []string {
	if len(s) == 0 {
		return []string{"(none)"}
	}
	return s
}
