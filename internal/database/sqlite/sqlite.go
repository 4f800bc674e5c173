// Package sqlite registers the SQLite dialect, backed by mattn/go-sqlite3.
//
// The database name is a file path (or ":memory:"); host, port and
// credentials are ignored. go-sqlite3 needs cgo.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/koustreak/simpledb/internal/database"
	"github.com/koustreak/simpledb/internal/errs"

	_ "github.com/mattn/go-sqlite3" // register "sqlite3" driver
)

// Dialect implements database.Dialect for SQLite.
type Dialect struct{}

func init() {
	database.Register(Dialect{}, database.DriverSQLite, "sqlite3")
}

func (Dialect) DriverName() string { return "sqlite3" }

// DSN appends foreign-key enforcement and a busy timeout derived from the
// connect timeout to the database path.
func (Dialect) DSN(cfg *database.Config) (string, error) {
	path := strings.TrimSpace(cfg.Database)
	if path == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "sqlite: database path (dbname) is required")
	}

	busy := 5000
	if cfg.ConnectTimeout > 0 {
		busy = int(cfg.ConnectTimeout.Milliseconds())
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_foreign_keys=on&_busy_timeout=%d", path, sep, busy), nil
}

func (Dialect) MapError(err error, msg string) *errs.Error { return mapError(err, msg) }

func (Dialect) LastInsertIDQuery() string { return "SELECT last_insert_rowid()" }
