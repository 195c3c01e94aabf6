package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// timeLayout is fixed-width so stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

type baseRepo struct {
	db  *sql.DB
	log logging.Logger
}

func newBase(db *sql.DB, log logging.Logger, name string) baseRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return baseRepo{db: db, log: log.Named(name)}
}

// conn returns the transaction carried by ctx, or the database.
func (r *baseRepo) conn(ctx context.Context) DBTX {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return r.db
}

func (r *baseRepo) dbErr(op string, err error) error {
	r.log.Error(op, logging.Err(err))
	return errors.Wrap(err, errors.ErrCodeDatabaseError, op+" failed")
}

// ─────────────────────────────────────────────────────────────────────────────
// Driver error classification
// ─────────────────────────────────────────────────────────────────────────────

func sqliteCode(err error) int {
	var se *sqlitedrv.Error
	if stderrors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	switch code := sqliteCode(err); {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case code == sqlite3.SQLITE_CONSTRAINT:
		// Primary code only: tell uniqueness apart from foreign keys.
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}

// isBusy reports lock contention that outlived busy_timeout.
func isBusy(err error) bool {
	switch sqliteCode(err) & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Documents
// ─────────────────────────────────────────────────────────────────────────────

func encodeDoc(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document")
	}
	return string(b), nil
}

func decodeDoc(doc string, v any) error {
	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode document")
	}
	return nil
}

// queryDocs runs query and decodes the single doc column of every row with
// decode.
func queryDocs(ctx context.Context, q DBTX, query string, args []any, decode func(doc string) error) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return err
		}
		if err := decode(doc); err != nil {
			return err
		}
	}
	return rows.Err()
}

//Personal.AI order the ending
