package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koustreak/simpledb/internal/errs"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// mapError translates go-sqlite3 errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return errs.Wrap(classifyCode(liteErr.Code), fmt.Sprintf("%s: %s", msg, liteErr.Error()), err)
	}

	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}

// Result codes: https://www.sqlite.org/rescode.html
func classifyCode(code sqlite3.ErrNo) errs.ErrKind {
	switch code {
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
		return errs.ErrKindConnectionFailed
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrInterrupt:
		return errs.ErrKindTimeout
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return errs.ErrKindPermissionDenied
	default:
		return errs.ErrKindQueryFailed
	}
}
