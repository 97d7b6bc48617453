package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/garnizeh/questionnaire/internal/db"
	"github.com/garnizeh/questionnaire/pkg/fault"
	"github.com/garnizeh/questionnaire/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
// A repo returned by InTx is bound to the transaction and has no root.
type SQLiteRepo struct {
	conn   db.Conn
	root   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.Store = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return &SQLiteRepo{conn: conn, root: conn, logger: logger}
}

// InTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (r *SQLiteRepo) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if r.root == nil {
		return fn(r)
	}
	return r.root.WithTx(ctx, func(tx *db.Tx) error {
		return fn(&SQLiteRepo{conn: tx, logger: r.logger})
	})
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}

// stamp defaults an unset audit timestamp to the current time.
func stamp(ts int64) int64 {
	if ts == 0 {
		return now()
	}
	return ts
}

// page converts limit/offset to SQLite LIMIT/OFFSET arguments; a
// non-positive limit means no limit.
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// mustAffect turns an update that touched no row into fault.ErrNotFound.
func mustAffect(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fault.NewClientError(entity+" not found", fault.ErrNotFound)
	}
	return nil
}

var errNilEntity = errors.New("entity is nil")
