// Package postgres registers the PostgreSQL dialect, backed by pgx through
// its database/sql adapter.
//
// Placeholders follow the server: $1, $2, … rather than ?.
package postgres

import (
	"github.com/koustreak/simpledb/internal/database"
	"github.com/koustreak/simpledb/internal/errs"

	_ "github.com/jackc/pgx/v5/stdlib" // register "pgx" driver
)

// Dialect implements database.Dialect for pgx.
type Dialect struct{}

func init() {
	database.Register(Dialect{}, database.DriverPostgres, "postgres", "postgresql")
}

func (Dialect) DriverName() string { return "pgx" }

func (Dialect) DSN(cfg *database.Config) (string, error) { return buildDSN(cfg) }

func (Dialect) MapError(err error, msg string) *errs.Error { return mapError(err, msg) }

// LastInsertIDQuery reads the value most recently produced by nextval in
// this session, which is what a SERIAL / IDENTITY insert uses.
func (Dialect) LastInsertIDQuery() string { return "SELECT lastval()" }
