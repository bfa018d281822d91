// Package resolve turns loaded statement models into binding metadata.
//
// The resolver consumes the table, view and query statements produced by
// compiler/load, applies the annotation overlays parsed by
// compiler/annotation, and emits an immutable sqlbind.Resolution that code
// emitters and the runtime reader consume as-is.
//
// # Pipeline
//
// Resolution runs in two phases around an explicit finalize step:
//
//	load.Statement (tables, views, queries)
//	        ↓
//	   Resolver.Add (schema registration, query queueing)
//	        ↓
//	   Resolver.Finalize
//	        ├── view resolution (topological order)
//	        ├── per-statement field and parameter resolution
//	        ├── dynamic field mapping
//	        ├── adapter deduplication and ownership
//	        └── shared result validation
//	        ↓
//	   *sqlbind.Resolution (immutable, byte-stable encoding)
//
// # Column Resolution
//
// Each query field is matched to its originating column by an ordered list
// of strategies: the field's source alias against declared tables, against
// declared views, and finally a whole-schema scan for fields that carry no
// alias information. The strategy that produced a match is recorded on the
// resolved field so downstream tooling can tell a precise match from the
// legacy scan.
//
// # Determinism
//
// Given equal inputs the resolver produces byte-identical output. Namespaces
// and statements are processed in name-sorted order, dynamic fields in
// name-sorted order, and all registry slices are sorted before the
// Resolution is assembled. No iteration over an unordered map reaches the
// output.
//
// # Error Handling
//
// Failures are reported through structured error types:
//
//   - ResolutionError: a field, parameter or mapping could not be resolved
//   - ConsistencyError: conflicting shared result declarations
//   - SchemaError: a statement references an unknown table, view or column
//   - ConfigError: invalid resolver configuration
//
// All errors fail fast with the offending statement and the available
// alternatives where applicable:
//
//	res, err := resolve.Resolve(provider, resolve.WithDialect(dialect.Postgres))
//	if err != nil {
//	    if resolve.IsSchemaError(err) {
//	        // unknown table or column
//	    }
//	    return err
//	}
package resolve
