package database

import (
	"sort"
	"strings"
	"sync"

	"github.com/koustreak/simpledb/internal/errs"
)

// Dialect is what a database engine contributes to Conn.
// Each engine lives in its own sub-package and registers itself in init;
// Conn never imports an engine package directly.
type Dialect interface {
	// DriverName is the database/sql driver name (e.g. "mysql", "pgx").
	DriverName() string

	// DSN builds the driver-native data source name from cfg.
	DSN(cfg *Config) (string, error)

	// MapError translates a native driver error into *errs.Error.
	MapError(err error, msg string) *errs.Error

	// LastInsertIDQuery returns the SQL that reads the session's last
	// generated identity (e.g. "SELECT LAST_INSERT_ID()").
	LastInsertIDQuery() string
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[Driver]Dialect)
)

// Register makes d available under every given name. Names are matched
// case-insensitively. Registering a name twice panics, like database/sql.
func Register(d Dialect, names ...Driver) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()

	if d == nil {
		panic("database: Register dialect is nil")
	}
	for _, name := range names {
		key := normalizeDriver(name)
		if _, dup := dialects[key]; dup {
			panic("database: Register called twice for dialect " + string(key))
		}
		dialects[key] = d
	}
}

// Lookup returns the dialect registered under name.
func Lookup(name Driver) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()

	d, ok := dialects[normalizeDriver(name)]
	if !ok {
		return nil, errs.Newf(errs.ErrKindInvalidInput,
			"unsupported database driver %q (registered: %s)", name, strings.Join(registeredLocked(), ", "))
	}
	return d, nil
}

// Drivers returns the sorted list of registered dialect names.
func Drivers() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return registeredLocked()
}

func registeredLocked() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

func normalizeDriver(name Driver) Driver {
	return Driver(strings.ToLower(strings.TrimSpace(string(name))))
}
