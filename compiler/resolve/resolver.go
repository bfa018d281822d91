package resolve

import (
	"maps"
	"slices"

	"github.com/syssam/sqlbind"
	"github.com/syssam/sqlbind/compiler/load"
)

// Resolver accumulates schema declarations and statements across any
// number of Add calls and resolves them all in one Finalize. A
// finalized resolver cannot be reused.
type Resolver struct {
	cfg       *Config
	schema    *schemaIndex
	shared    *sharedResults
	queued    map[string][]load.Statement
	finalized bool
}

// nsState carries the per-namespace accumulators through statement
// resolution.
type nsState struct {
	name     string
	adapters *nsAdapters
}

// NewResolver returns a resolver configured by the given options.
func NewResolver(opts ...Option) (*Resolver, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		cfg:    cfg,
		schema: newSchemaIndex(cfg.Dialect),
		shared: newSharedResults(),
		queued: make(map[string][]load.Statement),
	}, nil
}

// Add registers the statements of a namespace. Schema declarations
// take effect immediately; selects and executes are queued until
// Finalize, so statement order within and across namespaces does not
// matter.
func (r *Resolver) Add(namespace string, stmts []load.Statement) error {
	if r.finalized {
		return ErrFinalized
	}
	for _, st := range stmts {
		if err := load.Validate(st); err != nil {
			return err
		}
		switch s := st.(type) {
		case *load.CreateTable:
			if err := r.schema.addTable(s.Table); err != nil {
				return err
			}
		case *load.CreateView:
			if err := r.schema.addView(s.View); err != nil {
				return err
			}
		default:
			r.queued[namespace] = append(r.queued[namespace], st)
		}
	}
	return nil
}

// Finalize resolves everything added so far into a Resolution.
// Namespaces resolve in name order and statements within a namespace
// in statement name order, so the result is independent of input
// order. The resolver is spent afterwards.
func (r *Resolver) Finalize() (*sqlbind.Resolution, error) {
	if r.finalized {
		return nil, ErrFinalized
	}
	r.finalized = true
	if err := r.schema.finalize(); err != nil {
		return nil, err
	}
	res := &sqlbind.Resolution{Dialect: r.cfg.Dialect}
	for _, name := range slices.Sorted(maps.Keys(r.queued)) {
		stmts := slices.Clone(r.queued[name])
		load.SortStatements(stmts)
		ns := &nsState{name: name, adapters: newNSAdapters()}
		nb := &sqlbind.NamespaceBinding{Name: name}
		seen := make(map[string]bool, len(stmts))
		for _, st := range stmts {
			stmtName := load.Name(st)
			if seen[stmtName] {
				return nil, NewResolutionError(stmtName, "", "statement declared twice in namespace "+name)
			}
			seen[stmtName] = true
			var b *sqlbind.StatementBinding
			var err error
			switch s := st.(type) {
			case *load.Select:
				b, err = r.resolveSelect(ns, s)
			case *load.Execute:
				b, err = r.resolveExecute(ns, s)
			}
			if err != nil {
				return nil, err
			}
			nb.Statements = append(nb.Statements, b)
		}
		nb.Adapters = ns.adapters.finalize()
		if len(nb.Statements) > 0 {
			res.Namespaces = append(res.Namespaces, nb)
		}
	}
	res.SharedResults = r.shared.finalize()
	res.Adapters = adapterOwnership(res.Namespaces)
	return res, nil
}

// Resolve drains a statement provider and resolves it in one call.
func Resolve(p load.Provider, opts ...Option) (*sqlbind.Resolution, error) {
	r, err := NewResolver(opts...)
	if err != nil {
		return nil, err
	}
	namespaces, err := load.Collect(p)
	if err != nil {
		return nil, err
	}
	for _, ns := range namespaces {
		if err := r.Add(ns.Name, ns.Statements); err != nil {
			return nil, err
		}
	}
	return r.Finalize()
}
