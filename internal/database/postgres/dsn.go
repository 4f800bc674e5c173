package postgres

import (
	"fmt"
	"math"
	"strings"

	"github.com/koustreak/simpledb/internal/database"
	"github.com/koustreak/simpledb/internal/errs"
)

const defaultPort = 5432

// buildDSN constructs a keyword/value connection string for pgx.
// Charset becomes client_encoding; emulated prepares switch pgx to the
// simple protocol, which interpolates arguments client-side.
func buildDSN(cfg *database.Config) (string, error) {
	if cfg.Host == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "postgres: host is required")
	}
	if cfg.User == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "postgres: username (uname) is required")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	parts := []string{
		kv("host", cfg.Host),
		kv("port", fmt.Sprint(port)),
		kv("user", cfg.User),
		kv("password", cfg.Password),
		kv("dbname", cfg.Database),
		kv("sslmode", "disable"),
	}
	if cfg.Charset != "" {
		parts = append(parts, kv("client_encoding", cfg.Charset))
	}
	if cfg.EmulatePrepares {
		parts = append(parts, kv("default_query_exec_mode", "simple_protocol"))
	}
	if cfg.ConnectTimeout > 0 {
		secs := int(math.Ceil(cfg.ConnectTimeout.Seconds()))
		parts = append(parts, kv("connect_timeout", fmt.Sprint(secs)))
	}

	return strings.Join(parts, " "), nil
}

// kv renders key='value' with libpq quoting rules.
func kv(key, value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return key + "='" + escaped + "'"
}
