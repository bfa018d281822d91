// Package dialect names the database dialects understood by the
// binding resolver.
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The dialect selects how declared SQL column types map onto logical
// binding types. See package sqltype for the mapping itself.
package dialect
