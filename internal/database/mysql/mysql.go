// Package mysql registers the MySQL / MariaDB dialect.
//
// Import it for its side effect:
//
//	import _ "github.com/koustreak/simpledb/internal/database/mysql"
package mysql

import (
	"github.com/koustreak/simpledb/internal/database"
	"github.com/koustreak/simpledb/internal/errs"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
)

// Dialect implements database.Dialect for go-sql-driver/mysql.
type Dialect struct{}

func init() {
	database.Register(Dialect{}, database.DriverMySQL, "mariadb")
}

func (Dialect) DriverName() string { return "mysql" }

func (Dialect) DSN(cfg *database.Config) (string, error) { return buildDSN(cfg) }

func (Dialect) MapError(err error, msg string) *errs.Error { return mapError(err, msg) }

func (Dialect) LastInsertIDQuery() string { return "SELECT LAST_INSERT_ID()" }
