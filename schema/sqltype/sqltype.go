// Package sqltype defines the logical types a resolved binding field
// can take, and the mapping from declared SQL column types to them.
//
// A TypeInfo is a small value object. It is comparable, so it can be
// used directly as a map key when deduplicating value adapters.
package sqltype

import (
	"database/sql"
	"strings"

	"ariga.io/atlas/sql/postgres"
	"github.com/google/uuid"

	"github.com/syssam/sqlbind/dialect"
)

// A Type represents a logical field type.
type Type uint8

// List of logical field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt64
	TypeFloat64
	TypeString
	TypeBytes
	TypeTime
	TypeUUID
	TypeJSON
	TypeOther
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeBytes:   "[]byte",
	TypeTime:    "time.Time",
	TypeUUID:    "uuid.UUID",
	TypeJSON:    "json.RawMessage",
	TypeOther:   "other",
}

// String returns the textual representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a known declared type.
func (t Type) Valid() bool { return t > TypeInvalid && t < endTypes }

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeInt64 || t == TypeFloat64
}

// Integer reports if the given type is an integral type.
func (t Type) Integer() bool { return t == TypeInt || t == TypeInt64 }

// TypeInfo holds the logical type of a binding field together with
// its nullability and shape. The zero value is invalid.
type TypeInfo struct {
	Type     Type   `json:"type"`
	Ident    string `json:"ident,omitempty"`
	PkgPath  string `json:"pkg_path,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`
	Slice    bool   `json:"slice,omitempty"`
	Custom   bool   `json:"custom,omitempty"`
}

// CustomInfo returns a TypeInfo for a user declared property type.
// The identifier replaces the column's mapped type, and the field is
// no longer considered built-in.
func CustomInfo(ident string, nullable bool) TypeInfo {
	ti := TypeInfo{Type: TypeOther, Ident: ident, Nullable: nullable, Custom: true}
	if i := strings.LastIndexByte(ident, '.'); i > 0 {
		ti.PkgPath = ident[:i]
	}
	return ti
}

// String returns the string representation of the type.
func (t TypeInfo) String() string {
	head := ""
	if t.Slice {
		head = "[]"
	}
	switch {
	case t.Ident != "":
		return head + t.Ident
	case t.Type < endTypes:
		return head + typeNames[t.Type]
	default:
		return head + typeNames[TypeInvalid]
	}
}

// Valid reports if the given type is valid.
func (t TypeInfo) Valid() bool { return t.Type.Valid() }

// Numeric reports if the given type is a numeric type.
func (t TypeInfo) Numeric() bool { return !t.Custom && t.Type.Numeric() }

// BuiltIn reports if the type belongs to the standard set a driver can
// bind and scan without help. Custom property types and unrecognized
// column types are not built-in and require a value adapter.
func (t TypeInfo) BuiltIn() bool {
	return !t.Custom && t.Type.Valid() && t.Type != TypeOther
}

// Comparable reports if values of this type are comparable.
func (t TypeInfo) Comparable() bool {
	if t.Slice {
		return false
	}
	switch t.Type {
	case TypeBool, TypeInt, TypeInt64, TypeFloat64, TypeString, TypeTime, TypeUUID:
		return true
	default:
		return false
	}
}

// AsNullable returns a copy of the type with the given nullability.
func (t TypeInfo) AsNullable(nullable bool) TypeInfo {
	t.Nullable = nullable
	return t
}

// AsSequence returns the sequence shape of the type. Parameters bound
// inside an IN predicate take this shape.
func (t TypeInfo) AsSequence() TypeInfo {
	t.Slice = true
	return t
}

// Elem returns the scalar element of a sequence type.
func (t TypeInfo) Elem() TypeInfo {
	t.Slice = false
	return t
}

// NewValue returns a fresh destination for scanning a single column of
// this type with database/sql. Nullable built-in types scan through
// their sql.Null counterparts.
func (t TypeInfo) NewValue() any {
	switch t.Type {
	case TypeBool:
		return new(sql.NullBool)
	case TypeInt, TypeInt64:
		return new(sql.NullInt64)
	case TypeFloat64:
		return new(sql.NullFloat64)
	case TypeString:
		return new(sql.NullString)
	case TypeTime:
		return new(sql.NullTime)
	case TypeUUID:
		return &sql.Null[uuid.UUID]{}
	case TypeBytes, TypeJSON:
		return new([]byte)
	default:
		return new(any)
	}
}

// Value unwraps a destination created by NewValue into a plain Go
// value, or nil if the column was NULL.
func (t TypeInfo) Value(dest any) any {
	switch d := dest.(type) {
	case *sql.NullBool:
		if !d.Valid {
			return nil
		}
		return d.Bool
	case *sql.NullInt64:
		if !d.Valid {
			return nil
		}
		return d.Int64
	case *sql.NullFloat64:
		if !d.Valid {
			return nil
		}
		return d.Float64
	case *sql.NullString:
		if !d.Valid {
			return nil
		}
		return d.String
	case *sql.NullTime:
		if !d.Valid {
			return nil
		}
		return d.Time
	case *sql.Null[uuid.UUID]:
		if !d.Valid {
			return nil
		}
		return d.V
	case *[]byte:
		if *d == nil {
			return nil
		}
		return *d
	case *any:
		return *d
	default:
		return dest
	}
}

// FromSQL maps a declared SQL column type to its logical type under
// the given dialect. Unrecognized declarations map to TypeOther with
// the normalized declaration kept as identifier, so that resolution
// can proceed and adapter analysis marks the field as non built-in.
func FromSQL(d, decl string) TypeInfo {
	norm, size := normalize(decl)
	var t Type
	switch d {
	case dialect.Postgres:
		t = postgresType(norm)
	case dialect.MySQL:
		t = mysqlType(norm, size)
	case dialect.SQLite:
		t = sqliteType(norm)
	}
	if t == TypeInvalid || t == TypeOther {
		return TypeInfo{Type: TypeOther, Ident: norm}
	}
	return TypeInfo{Type: t}
}

// ImpliedNotNull reports if the declared column type implies a
// non-nullable column even without an explicit NOT NULL clause.
// This is the case for the PostgreSQL serial family.
func ImpliedNotNull(d, decl string) bool {
	if d != dialect.Postgres {
		return false
	}
	norm, _ := normalize(decl)
	switch norm {
	case postgres.TypeSerial, postgres.TypeBigSerial, postgres.TypeSmallSerial:
		return true
	}
	return false
}

// normalize lowercases a declared type, drops the size argument and
// collapses inner whitespace. "VARCHAR(255)" becomes ("varchar", "255").
func normalize(decl string) (norm, size string) {
	s := strings.ToLower(strings.TrimSpace(decl))
	if i := strings.IndexByte(s, '('); i >= 0 {
		if j := strings.IndexByte(s[i:], ')'); j > 0 {
			size = strings.TrimSpace(s[i+1 : i+j])
			s = strings.TrimSpace(s[:i]) + s[i+j+1:]
		} else {
			s = strings.TrimSpace(s[:i])
		}
	}
	return strings.Join(strings.Fields(s), " "), size
}

func postgresType(norm string) Type {
	switch norm {
	case "smallint", "int2", "integer", "int", "int4", postgres.TypeSmallSerial, "serial2":
		return TypeInt
	case "bigint", "int8", postgres.TypeBigSerial, "serial8", postgres.TypeSerial, "serial4":
		return TypeInt64
	case "real", "float4", "double precision", "float8", "numeric", "decimal", "float":
		return TypeFloat64
	case "boolean", "bool":
		return TypeBool
	case "text", "varchar", "character varying", "character", "char", "bpchar", "citext", "name":
		return TypeString
	case "bytea":
		return TypeBytes
	case "date", "time", "timetz", "timestamp", "timestamptz",
		"time with time zone", "time without time zone",
		"timestamp with time zone", "timestamp without time zone":
		return TypeTime
	case "uuid":
		return TypeUUID
	case "json", "jsonb":
		return TypeJSON
	}
	return TypeOther
}

func mysqlType(norm, size string) Type {
	switch norm {
	case "tinyint":
		if size == "1" {
			return TypeBool
		}
		return TypeInt
	case "bool", "boolean":
		return TypeBool
	case "smallint", "mediumint", "int", "integer", "year",
		"tinyint unsigned", "smallint unsigned", "mediumint unsigned":
		return TypeInt
	case "bigint", "int unsigned", "integer unsigned", "bigint unsigned":
		return TypeInt64
	case "float", "double", "double precision", "real", "decimal", "numeric":
		return TypeFloat64
	case "char", "varchar", "tinytext", "text", "mediumtext", "longtext", "enum", "set":
		return TypeString
	case "binary", "varbinary", "tinyblob", "blob", "mediumblob", "longblob", "bit":
		return TypeBytes
	case "date", "time", "datetime", "timestamp":
		return TypeTime
	case "json":
		return TypeJSON
	}
	return TypeOther
}

// sqliteType follows the SQLite column affinity rules, with a few
// exact names recognized first so that declared dates, booleans and
// UUIDs keep their logical meaning.
func sqliteType(norm string) Type {
	switch norm {
	case "bool", "boolean":
		return TypeBool
	case "date", "datetime", "timestamp":
		return TypeTime
	case "uuid":
		return TypeUUID
	case "json":
		return TypeJSON
	}
	switch {
	case strings.Contains(norm, "int"):
		return TypeInt64
	case strings.Contains(norm, "char"), strings.Contains(norm, "clob"), strings.Contains(norm, "text"):
		return TypeString
	case strings.Contains(norm, "blob"), norm == "":
		return TypeBytes
	case strings.Contains(norm, "real"), strings.Contains(norm, "floa"), strings.Contains(norm, "doub"),
		strings.Contains(norm, "dec"), strings.Contains(norm, "num"):
		return TypeFloat64
	}
	return TypeOther
}
