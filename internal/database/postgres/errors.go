package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/simpledb/internal/errs"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	// Context cancellation / deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	// Server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(
			classifySQLState(pgErr.Code),
			fmt.Sprintf("%s: %s", msg, pgErr.Message),
			err,
		)
	}

	// Dial, TLS and authentication failures before any SQLSTATE exists
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// classifySQLState maps a SQLSTATE to an ErrKind by class, with a few
// specific codes first.
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
func classifySQLState(code string) errs.ErrKind {
	switch code {
	case "42501": // insufficient_privilege
		return errs.ErrKindPermissionDenied
	case "57014", "40P01", "55P03": // query_canceled, deadlock_detected, lock_not_available
		return errs.ErrKindTimeout
	case "3D000": // invalid_catalog_name
		return errs.ErrKindConnectionFailed
	}

	switch {
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "57P"):
		return errs.ErrKindConnectionFailed
	case strings.HasPrefix(code, "28"):
		return errs.ErrKindPermissionDenied
	default:
		return errs.ErrKindQueryFailed
	}
}
