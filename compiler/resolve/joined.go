package resolve

import (
	"strconv"

	"github.com/syssam/sqlbind"
)

// nameTable assigns every selected column a collision-free flat row
// name. Writers emit these names and the reader runtime consumes them,
// so both sides share this one assignment.
type nameTable struct {
	used  map[string]bool
	byKey map[joinKey]*sqlbind.JoinedColumn
	order []*sqlbind.JoinedColumn
}

type joinKey struct {
	alias  string
	column string
}

func newNameTable() *nameTable {
	return &nameTable{
		used:  make(map[string]bool),
		byKey: make(map[joinKey]*sqlbind.JoinedColumn),
	}
}

// assign returns the flat name of an (alias, column) pair, creating it
// on first use. The base property name is kept when free. A taken name
// gets the sanitized alias appended, and then an incrementing counter
// until it is unique.
func (nt *nameTable) assign(alias, column, field, base string) string {
	key := joinKey{alias: alias, column: column}
	if j, ok := nt.byKey[key]; ok {
		return j.Name
	}
	name := base
	if nt.used[name] {
		if suffix := sanitizeSuffix(alias); suffix != "" {
			name = base + "_" + suffix
		}
	}
	stem := name
	for n := 2; nt.used[name]; n++ {
		name = stem + "_" + strconv.Itoa(n)
	}
	nt.used[name] = true
	j := &sqlbind.JoinedColumn{Alias: alias, Column: column, Field: field, Name: name}
	nt.byKey[key] = j
	nt.order = append(nt.order, j)
	return name
}

// joined returns the assignments in projection order.
func (nt *nameTable) joined() []*sqlbind.JoinedColumn {
	return nt.order
}
