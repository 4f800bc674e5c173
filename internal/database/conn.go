// Package database is a small facade over database/sql.
//
// A Conn owns exactly one driver session. It connects when created,
// reconnects by itself after Close, runs parameterized statements and
// reshapes their results:
//
//	conn, err := database.New(ctx, cfg, database.WithAuditor(auditLog))
//	if err != nil { ... }
//	defer conn.Close()
//
//	n, err := conn.Count(ctx, "SELECT COUNT(*) FROM users WHERE active = ?", 1)
//	res, err := conn.Query(ctx, "UPDATE users SET active = 0 WHERE id = ?", 7)
//	row, err := conn.Row(ctx, "SELECT * FROM users WHERE id = ?", 999) // nil, nil when absent
//	ids, err := conn.Column(ctx, "SELECT id FROM users ORDER BY id")
//
// A Conn is not safe for concurrent use. Serialize calls or use one Conn
// per goroutine.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/koustreak/simpledb/internal/errs"
	"github.com/koustreak/simpledb/internal/logger"
)

// State is the lifecycle state of a Conn.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Auditor receives one record per executed statement, success or failure.
// message is the driver's error text, empty on success.
type Auditor interface {
	Record(ctx context.Context, ok bool, statement, message string) error
}

// Option configures a Conn.
type Option func(*Conn)

// WithAuditor attaches an audit sink. Audit failures are logged and never
// fail the statement.
func WithAuditor(a Auditor) Option {
	return func(c *Conn) { c.auditor = a }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(c *Conn) {
		if l != nil {
			c.log = l
		}
	}
}

// Result is what Query returns for a statement that succeeded.
type Result struct {
	// Verb is the statement's first word, lower-cased.
	Verb Verb

	// Rows holds the shaped rows of a select/show; never nil for those verbs.
	Rows []any

	// RowsAffected is the driver-reported count for insert/update/delete.
	RowsAffected int64
}

// Conn holds one lazily reopened database session.
type Conn struct {
	cfg     Config
	dialect Dialect
	auditor Auditor
	log     *logger.Logger

	state   State
	db      *sqlx.DB
	session *sqlx.Conn
	last    *statement
}

type execMode int

const (
	modeQuery execMode = iota
	modeExec
)

// statement is the single in-flight statement. Rows and the prepared
// statement are released before the call that produced them returns;
// the exec result survives for LastInsertID until the next statement.
type statement struct {
	query    string
	prepared *sqlx.Stmt
	rows     *sqlx.Rows
	result   sql.Result
}

func (s *statement) release() {
	if s == nil {
		return
	}
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
	if s.prepared != nil {
		_ = s.prepared.Close()
		s.prepared = nil
	}
}

// New validates cfg, resolves its dialect and opens the connection.
// A connection failure is returned as ErrKindConnectionFailed; it is up to
// the caller whether that aborts the process.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Conn, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "database config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialect, err := Lookup(cfg.Driver)
	if err != nil {
		return nil, err
	}

	c := &Conn{cfg: *cfg, dialect: dialect, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().
		Str("conn", cfg.ConnString()).
		Bool("emulate", cfg.EmulatePrepares).
		Logger()

	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// State reports whether the session is open.
func (c *Conn) State() State {
	return c.state
}

// ConnString returns the credential-free description of the connection.
func (c *Conn) ConnString() string {
	return c.cfg.ConnString()
}

// Connect opens the handle and pins its single session. It is a no-op when
// the Conn is already open.
func (c *Conn) Connect(ctx context.Context) error {
	if c.state == StateOpen {
		return nil
	}

	dsn, err := c.dialect.DSN(&c.cfg)
	if err != nil {
		return err
	}

	db, err := sqlx.Open(c.dialect.DriverName(), dsn)
	if err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN for "+c.cfg.ConnString(), err)
	}

	// One handle, one session: no pool behind the facade.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.connectTimeout())
	defer cancel()

	session, err := db.Connx(pingCtx)
	if err == nil {
		if err = session.PingContext(pingCtx); err != nil {
			_ = session.Close()
		}
	}
	if err != nil {
		_ = db.Close()
		c.log.ErrorWith("database connection failed", err, map[string]any{"timeout": c.cfg.connectTimeout().String()})
		return errs.Wrap(errs.ErrKindConnectionFailed, "failed to connect to "+c.cfg.ConnString(), err)
	}

	c.db = db
	c.session = session
	c.state = StateOpen

	c.log.Info("database connection opened")
	return nil
}

// Close releases the last statement, the session and the handle.
// Calling Close on a closed Conn does nothing.
func (c *Conn) Close() error {
	if c.state == StateClosed {
		return nil
	}

	c.last.release()
	c.last = nil

	var firstErr error
	if err := c.session.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		firstErr = err
	}
	if err := c.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	c.session = nil
	c.db = nil
	c.state = StateClosed
	c.log.Info("database connection closed")

	if firstErr != nil {
		return c.dialect.MapError(firstErr, "failed to close connection")
	}
	return nil
}

// Count returns the first column of the first row as an integer, typically
// from a COUNT(*) query. A query with no row (or a NULL value) yields
// ErrKindNotFound. A value that is not an integer, such as the result of
// MAX(price) over a decimal column, yields ErrKindQueryFailed rather than
// the raw value; use Row or Column to read those.
func (c *Conn) Count(ctx context.Context, query string, args ...any) (int64, error) {
	st, err := c.execute(ctx, modeQuery, query, args)
	if err != nil {
		return 0, err
	}
	defer st.release()

	row, found, err := scanOne(st.rows, FetchNum)
	if err := c.finish(ctx, st, err); err != nil {
		return 0, c.mapError(err, "failed to read count")
	}
	values, _ := row.([]any)
	if !found || len(values) == 0 || values[0] == nil {
		return 0, errs.New(errs.ErrKindNotFound, "count query returned no value")
	}

	n, err := toInt64(values[0])
	if err != nil {
		return 0, errs.Wrap(errs.ErrKindQueryFailed, "count column is not an integer", err)
	}
	return n, nil
}

// Query is QueryWith using FetchAssoc.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	return c.QueryWith(ctx, FetchAssoc, query, args...)
}

// QueryWith runs query and shapes the result by its verb: rows for
// select/show, the affected-row count for insert/update/delete. Any other
// verb is still executed (and audited) but returns ErrKindUnsupported.
func (c *Conn) QueryWith(ctx context.Context, f Fetch, query string, args ...any) (*Result, error) {
	verb := VerbOf(query)

	mode := modeExec
	if verb.ReturnsRows() {
		mode = modeQuery
	}

	st, err := c.execute(ctx, mode, query, args)
	if err != nil {
		return nil, err
	}
	defer st.release()

	switch {
	case verb.ReturnsRows():
		rows, err := scanAll(st.rows, f)
		if err := c.finish(ctx, st, err); err != nil {
			return nil, c.mapError(err, "failed to read result set")
		}
		return &Result{Verb: verb, Rows: rows}, nil

	case verb.AffectsRows():
		n, err := st.result.RowsAffected()
		if err := c.finish(ctx, st, err); err != nil {
			return nil, c.mapError(err, "failed to read affected rows")
		}
		return &Result{Verb: verb, RowsAffected: n}, nil

	default:
		// The statement itself ran; only the result shape is missing.
		_ = c.finish(ctx, st, nil)
		return nil, errs.Newf(errs.ErrKindUnsupported,
			"statement verb %q has no result shape (Query shapes select, show, insert, update, delete)", verb)
	}
}

// Row is RowWith using FetchAssoc.
func (c *Conn) Row(ctx context.Context, query string, args ...any) (any, error) {
	return c.RowWith(ctx, FetchAssoc, query, args...)
}

// RowWith fetches the first row of query in the requested style. It does
// not look at the verb. An empty result returns (nil, nil).
func (c *Conn) RowWith(ctx context.Context, f Fetch, query string, args ...any) (any, error) {
	st, err := c.execute(ctx, modeQuery, query, args)
	if err != nil {
		return nil, err
	}
	defer st.release()

	row, found, err := scanOne(st.rows, f)
	if err := c.finish(ctx, st, err); err != nil {
		return nil, c.mapError(err, "failed to read row")
	}
	if !found {
		return nil, nil
	}
	return row, nil
}

// Column returns the first column of every row, in result order.
// An empty result returns an empty, non-nil slice.
func (c *Conn) Column(ctx context.Context, query string, args ...any) ([]any, error) {
	st, err := c.execute(ctx, modeQuery, query, args)
	if err != nil {
		return nil, err
	}
	defer st.release()

	values, err := scanAll(st.rows, FetchColumn(0))
	if err := c.finish(ctx, st, err); err != nil {
		return nil, c.mapError(err, "failed to read column")
	}
	return values, nil
}

// LastInsertID returns the identity generated by the last insert on this
// session. It needs an open Conn; it does not reconnect.
func (c *Conn) LastInsertID(ctx context.Context) (int64, error) {
	if c.state != StateOpen {
		return 0, errs.New(errs.ErrKindConnectionFailed, "connection is closed")
	}

	if c.last != nil && c.last.result != nil {
		if id, err := c.last.result.LastInsertId(); err == nil {
			return id, nil
		}
	}

	var id sql.NullInt64
	if err := c.session.QueryRowxContext(ctx, c.dialect.LastInsertIDQuery()).Scan(&id); err != nil {
		return 0, c.mapError(err, "failed to read last insert id")
	}
	return id.Int64, nil
}

// --- execution ---

// execute trims query, reconnects if needed and replaces the in-flight
// statement. Connect, prepare and exec failures are audited here; a
// statement that starts is audited by finish once its result is read.
func (c *Conn) execute(ctx context.Context, mode execMode, query string, args []any) (*statement, error) {
	query = strings.TrimSpace(query)

	if err := c.Connect(ctx); err != nil {
		c.record(ctx, false, query, err)
		return nil, err
	}

	c.last.release()
	c.last = nil

	st, err := c.run(ctx, mode, query, args)
	if err != nil {
		return nil, c.mapError(c.finish(ctx, &statement{query: query}, err), "statement failed")
	}

	c.last = st
	return st, nil
}

// finish writes the single audit record for st. err is whatever reading
// the result produced; some drivers only report a failed statement there.
func (c *Conn) finish(ctx context.Context, st *statement, err error) error {
	c.record(ctx, err == nil, st.query, err)

	fields := map[string]any{"verb": string(VerbOf(st.query)), "ok": err == nil}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.log.DebugWith("statement executed", fields)
	return err
}

func (c *Conn) run(ctx context.Context, mode execMode, query string, args []any) (*statement, error) {
	st := &statement{query: query}

	if c.cfg.EmulatePrepares {
		// The driver interpolates arguments; no server-side prepare.
		if mode == modeExec {
			res, err := c.session.ExecContext(ctx, query, args...)
			if err != nil {
				return nil, err
			}
			st.result = res
			return st, nil
		}
		rows, err := c.session.QueryxContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		st.rows = rows
		return st, nil
	}

	prepared, err := c.session.PreparexContext(ctx, query)
	if err != nil {
		return nil, err
	}
	st.prepared = prepared

	if mode == modeExec {
		res, err := prepared.ExecContext(ctx, args...)
		if err != nil {
			st.release()
			return nil, err
		}
		st.result = res
		return st, nil
	}

	rows, err := prepared.QueryxContext(ctx, args...)
	if err != nil {
		st.release()
		return nil, err
	}
	st.rows = rows
	return st, nil
}

func (c *Conn) record(ctx context.Context, ok bool, query string, err error) {
	if c.auditor == nil {
		return
	}
	if aerr := c.auditor.Record(ctx, ok, query, errs.Cause(err)); aerr != nil {
		c.log.WarnWith("audit record not written", aerr, map[string]any{"statement": query})
	}
}

// mapError passes *errs.Error through, drops a dead session so the next
// call reconnects, and lets the dialect classify everything else.
func (c *Conn) mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		_ = c.Close()
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return c.dialect.MapError(err, msg)
}
