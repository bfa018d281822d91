package resolve

import (
	"slices"
	"strings"
)

// candidates is the ordered list of column names tried when matching a
// query field against a table or view. The custom property name is
// kept apart so that it only ranks after every derived candidate.
type candidates struct {
	names    []string
	property string
}

// newCandidates derives the candidate column names for a field. The
// order is fixed: the original column name when the statement carries
// one, the synthetic field name itself, the name with each declared or
// derived alias prefix stripped, and every underscore-separated suffix
// of the synthetic name. A custom property name override ranks last.
func newCandidates(name, column, property string, prefixes ...string) candidates {
	c := candidates{names: make([]string, 0, 4)}
	c.add(column)
	c.add(name)
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(name, p); ok && rest != "" {
			c.add(rest)
		}
	}
	for rest := name; ; {
		i := strings.IndexByte(rest, '_')
		if i < 0 || i+1 == len(rest) {
			break
		}
		rest = rest[i+1:]
		c.add(rest)
	}
	c.property = property
	return c
}

func (c *candidates) add(name string) {
	if name == "" || slices.Contains(c.names, name) {
		return
	}
	c.names = append(c.names, name)
}

// lookup tries the candidates against a name index: every candidate
// exactly, every candidate case-insensitively, and then the property
// override the same way. find returns the first hit.
type index[T any] struct {
	exact map[string]T
	fold  map[string]T
}

func newIndex[T any](n int) *index[T] {
	return &index[T]{
		exact: make(map[string]T, n),
		fold:  make(map[string]T, n),
	}
}

// put registers a name. The first entry wins a case-insensitive
// collision, keeping lookups deterministic in declaration order.
func (ix *index[T]) put(name string, v T) {
	ix.exact[name] = v
	low := strings.ToLower(name)
	if _, ok := ix.fold[low]; !ok {
		ix.fold[low] = v
	}
}

func (ix *index[T]) find(c candidates) (T, bool) {
	for _, n := range c.names {
		if v, ok := ix.exact[n]; ok {
			return v, true
		}
	}
	for _, n := range c.names {
		if v, ok := ix.fold[strings.ToLower(n)]; ok {
			return v, true
		}
	}
	if c.property != "" {
		if v, ok := ix.exact[c.property]; ok {
			return v, true
		}
		if v, ok := ix.fold[strings.ToLower(c.property)]; ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
