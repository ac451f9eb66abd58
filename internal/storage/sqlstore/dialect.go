package sqlstore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4/database"
)

// Dialect isolates the differences between the supported SQL backends.
type Dialect interface {
	// Name returns the dialect name; it doubles as the migrations subdirectory.
	Name() string

	// DriverName returns the driver name for sql.Open.
	DriverName() string

	// DSN returns the data source name for the connection.
	DSN(cfg Config) string

	// Rebind converts ? placeholders if needed (e.g., ? to $1 for postgres).
	Rebind(query string) string

	// ForUpdate returns the row-lock suffix for SELECTs inside write
	// transactions, or "" when the backend locks at BEGIN instead.
	ForUpdate() string

	// ReadTxOptions returns the options for snapshot reads.
	ReadTxOptions() *sql.TxOptions

	// ConfigureConnection applies pool settings.
	ConfigureConnection(db *sql.DB)

	// IsUniqueViolation reports whether err came from a unique constraint.
	IsUniqueViolation(err error) bool

	// MigrationDriver wraps db for golang-migrate.
	MigrationDriver(db *sql.DB) (database.Driver, error)
}

// Config selects and locates the database.
type Config struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string

	// Path is the SQLite database file.
	Path string

	// URL is the PostgreSQL connection string.
	URL string
}

func dialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3", "":
		return sqliteDialect{}, nil
	case "postgres", "postgresql":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// rebindNumbered converts ? placeholders to $1, $2, etc.
// Queries in this package never contain a literal '?'.
func rebindNumbered(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
