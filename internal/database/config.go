package database

import (
	"strings"
	"time"

	"github.com/koustreak/simpledb/internal/errs"
)

// Driver names a dialect as it appears in the `dbtype` config key.
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "pgsql"
	DriverSQLite   Driver = "sqlite"
)

const defaultConnectTimeout = 10 * time.Second

// Config holds everything needed to open one connection.
// It is built once by the config loader and never mutated afterwards.
type Config struct {
	// Driver is the dialect (e.g. DriverMySQL). Aliases such as "postgres"
	// or "sqlite3" are accepted by Lookup.
	Driver Driver

	Host     string
	Port     int // 0 means the dialect default
	User     string
	Password string

	// Database is the schema name, or the file path for sqlite.
	Database string

	// Charset is passed to the server as the client character set.
	// Empty leaves the driver default.
	Charset string

	// EmulatePrepares interpolates arguments client-side instead of
	// preparing statements on the server.
	EmulatePrepares bool

	// ConnectTimeout bounds the initial ping. 0 means 10s.
	ConnectTimeout time.Duration
}

// ConnString renders the connection in the classic
// `driver:host=...;dbname=...;charset=...` form. It carries no credentials
// and is meant for logs and error messages.
func (c *Config) ConnString() string {
	var sb strings.Builder
	sb.WriteString(string(c.Driver))
	sb.WriteString(":host=")
	sb.WriteString(c.Host)
	sb.WriteString(";dbname=")
	sb.WriteString(c.Database)
	sb.WriteString(";charset=")
	sb.WriteString(c.Charset)
	return sb.String()
}

// Validate checks the fields every dialect needs. Dialect-specific checks
// (a host for network databases) happen in the dialect's DSN builder.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return errs.New(errs.ErrKindInvalidInput, "database driver type (dbtype) is required")
	}
	if c.Database == "" {
		return errs.New(errs.ErrKindInvalidInput, "database name (dbname) is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errs.Newf(errs.ErrKindInvalidInput, "port %d out of range", c.Port)
	}
	return nil
}

func (c *Config) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return c.ConnectTimeout
}
