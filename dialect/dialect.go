package dialect

// Dialect names supported by the binding resolver.
const (
	// MySQL is the dialect name for MySQL and MariaDB databases.
	MySQL = "mysql"
	// SQLite is the dialect name for SQLite databases.
	SQLite = "sqlite"
	// Postgres is the dialect name for PostgreSQL databases.
	Postgres = "postgres"
)

// All holds every supported dialect name.
var All = []string{MySQL, SQLite, Postgres}

// Valid reports if the given name is a supported dialect.
func Valid(name string) bool {
	for _, d := range All {
		if d == name {
			return true
		}
	}
	return false
}
