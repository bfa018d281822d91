package load

import (
	"fmt"
	"os"
	"sort"
)

// Provider supplies parsed statements grouped by namespace. The SQL
// front end implements it; tests implement it directly on slices.
type Provider interface {
	// Namespaces returns all namespace names, in any order.
	Namespaces() []string
	// Statements returns the statements of a namespace.
	Statements(namespace string) ([]Statement, error)
}

// Namespace is the collected form of one provider namespace, with its
// statements sorted by name.
type Namespace struct {
	Name       string
	Statements []Statement
}

// Collect drains a provider into sorted namespaces. Namespaces are
// ordered by name and statements within each namespace by statement
// name, so that downstream resolution is independent of provider
// iteration order.
func Collect(p Provider) ([]*Namespace, error) {
	names, err := safeNamespaces(p)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]*Namespace, 0, len(names))
	for _, name := range names {
		stmts, err := safeStatements(p, name)
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", name, err)
		}
		for _, s := range stmts {
			if err := Validate(s); err != nil {
				return nil, fmt.Errorf("namespace %q: %w", name, err)
			}
		}
		SortStatements(stmts)
		out = append(out, &Namespace{Name: name, Statements: stmts})
	}
	return out, nil
}

// safeNamespaces wraps Provider.Namespaces with recover to ensure no
// panics cross the loading boundary.
func safeNamespaces(p Provider) (names []string, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Namespaces panics: %v", p, v)
			names = nil
		}
	}()
	return p.Namespaces(), nil
}

// safeStatements wraps Provider.Statements with recover to ensure no
// panics cross the loading boundary.
func safeStatements(p Provider, namespace string) (stmts []Statement, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Statements panics: %v", p, v)
			stmts = nil
		}
	}()
	return p.Statements(namespace)
}

// Namespaces is the trivial in-memory provider. Tests and the command
// line front end use it after decoding documents.
type Namespaces map[string][]Statement

// Namespaces implements Provider.
func (n Namespaces) Namespaces() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	return names
}

// Statements implements Provider.
func (n Namespaces) Statements(namespace string) ([]Statement, error) {
	if _, ok := n[namespace]; !ok {
		return nil, fmt.Errorf("unknown namespace %q", namespace)
	}
	return n[namespace], nil
}

// Add appends statements to a namespace, creating it if needed.
func (n Namespaces) Add(namespace string, stmts ...Statement) {
	n[namespace] = append(n[namespace], stmts...)
}

// ReadFiles decodes statement documents from the given JSON files and
// merges them by namespace. Multiple files may contribute to the same
// namespace.
func ReadFiles(paths ...string) (Namespaces, error) {
	ns := make(Namespaces)
	for _, path := range paths {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		d, err := UnmarshalDocument(buf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		ns.Add(d.Namespace, d.Statements...)
	}
	return ns, nil
}
