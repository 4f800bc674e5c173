package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/koustreak/simpledb/internal/audit"
	"github.com/koustreak/simpledb/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[database]
dbtype = sqlite
dbname = %s

[database_log]
dir = logs
name_prefix = db-
ext = json
enable = true

[logger]
level = disabled
`

// setupWorkspace creates a sqlite database with four users and a config
// file pointing at it. It returns the config path.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	ctx := context.Background()
	conn, err := database.New(ctx, &database.Config{Driver: database.DriverSQLite, Database: filepath.Join(dir, "app.db")})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Query(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, active INTEGER NOT NULL)")
	require.Error(t, err)
	for _, stmt := range []string{
		"INSERT INTO users VALUES (1, 'alice', 1)",
		"INSERT INTO users VALUES (2, 'bob', 1)",
		"INSERT INTO users VALUES (3, 'carol', 0)",
		"INSERT INTO users VALUES (4, 'dave', 1)",
	} {
		_, err := conn.Query(ctx, stmt)
		require.NoError(t, err)
	}

	path := filepath.Join(dir, "database.config.ini")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testConfig, "app.db")), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestCount(t *testing.T) {
	cfg := setupWorkspace(t)

	code, out, stderr := runCLI(t, "--config", cfg, "count", "SELECT COUNT(*) FROM users WHERE active = ?", "1")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "3\n", out)
}

func TestQuery(t *testing.T) {
	cfg := setupWorkspace(t)

	code, out, stderr := runCLI(t, "-c", cfg, "query", "--fetch", "num", "SELECT id, name FROM users WHERE id <= ? ORDER BY id", "2")
	require.Equal(t, 0, code, stderr)

	var got rowsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, database.VerbSelect, got.Verb)
	assert.Equal(t, []any{[]any{float64(1), "alice"}, []any{float64(2), "bob"}}, got.Rows)

	code, out, stderr = runCLI(t, "-c", cfg, "query", "UPDATE users SET active = 0 WHERE id = ?", "2")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, `{"verb":"update","rows_affected":1}`, out)

	code, out, _ = runCLI(t, "-c", cfg, "query", "SELECT * FROM users WHERE id = ?", "99")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"verb":"select","rows":[]}`, out)
}

func TestRowAndColumn(t *testing.T) {
	cfg := setupWorkspace(t)

	code, out, stderr := runCLI(t, "-c", cfg, "row", "SELECT name FROM users WHERE id = ?", "3")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, `{"name":"carol"}`, out)

	code, out, _ = runCLI(t, "-c", cfg, "row", "SELECT name FROM users WHERE id = ?", "999")
	require.Equal(t, 0, code)
	assert.Equal(t, "null\n", out)

	code, out, _ = runCLI(t, "-c", cfg, "column", "SELECT id FROM users WHERE active = 1 ORDER BY id")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `[1,2,4]`, out)
}

func TestErrors(t *testing.T) {
	cfg := setupWorkspace(t)

	code, _, stderr := runCLI(t, "-c", cfg, "query", "--fetch", "object", "SELECT 1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid fetch style")

	code, _, stderr = runCLI(t, "-c", cfg, "query", "SELECT * FROM nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no such table")

	code, _, stderr = runCLI(t, "-c", filepath.Join(t.TempDir(), "missing.ini"), "count", "SELECT 1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "config file not found")
}

func TestConnectionFailed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "database.config.ini")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testConfig, "no/such/dir/app.db")), 0o600))

	code, _, stderr := runCLI(t, "-c", path, "count", "SELECT 1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Connection failed: ")
}

func TestAuditShow(t *testing.T) {
	cfg := setupWorkspace(t)

	code, _, stderr := runCLI(t, "-c", cfg, "count", "SELECT COUNT(*) FROM users")
	require.Equal(t, 0, code, stderr)
	code, _, _ = runCLI(t, "-c", cfg, "query", "SELECT * FROM nope")
	require.Equal(t, 1, code)

	code, out, stderr := runCLI(t, "-c", cfg, "audit", "show")
	require.Equal(t, 0, code, stderr)

	var records []audit.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.True(t, records[0].Result)
	assert.Equal(t, "SELECT COUNT(*) FROM users", records[0].Statement)
	assert.False(t, records[1].Result)
	assert.Contains(t, records[1].Message, "no such table")

	code, _, stderr = runCLI(t, "-c", cfg, "audit", "show", "--date", "yesterday")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "date must look like")
}

func TestAuditArchive_Disabled(t *testing.T) {
	cfg := setupWorkspace(t)

	code, _, stderr := runCLI(t, "-c", cfg, "audit", "archive", "--date", "2024-01-01")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "archiving is off")
}

func TestAuditShow_DisabledWarns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "database.config.ini")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
dbtype = sqlite
dbname = app.db

[database_log]
enable = false

[logger]
level = warn
format = json
`), 0o600))

	code, out, stderr := runCLI(t, "-c", path, "audit", "show")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "[]\n", out)
	assert.Contains(t, stderr, "audit log is disabled")
}

func TestHelpListsDrivers(t *testing.T) {
	code, out, _ := runCLI(t, "--help")
	require.Equal(t, 0, code)
	for _, name := range []string{"mariadb", "mysql", "pgsql", "postgres", "sqlite", "sqlite3"} {
		assert.Contains(t, out, name)
	}
}

func TestBindArgs(t *testing.T) {
	assert.Equal(t, []any{int64(42), "042", "abc", int64(-7), "1.5"}, bindArgs([]string{"42", "042", "abc", "-7", "1.5"}, false))
	assert.Equal(t, []any{"42"}, bindArgs([]string{"42"}, true))
	assert.Empty(t, bindArgs(nil, false))
}
