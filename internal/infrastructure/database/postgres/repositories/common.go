// Package repositories provides PostgreSQL-backed implementations of the
// docket repository ports.
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type baseRepo struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

func newBase(pool *pgxpool.Pool, log logging.Logger, name string) baseRepo {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return baseRepo{pool: pool, log: log.Named(name)}
}

// db returns the transaction carried by ctx, or the pool.
func (r *baseRepo) db(ctx context.Context) querier {
	if tx, ok := postgres.TxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

func (r *baseRepo) dbErr(op string, err error) error {
	r.log.Error(op, logging.Err(err))
	return errors.Wrap(err, errors.ErrCodeDatabaseError, op+" failed")
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return sqlState(err) == sqlStateUniqueViolation }

// isRetryable reports serialization failures and deadlocks.
func isRetryable(err error) bool {
	switch sqlState(err) {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return true
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// JSONB helpers
// ─────────────────────────────────────────────────────────────────────────────

// jsonArray encodes v, writing "[]" for nil slices.
func jsonArray(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return []byte("[]")
	}
	return b
}

// jsonObject encodes v, writing "{}" for nil maps.
func jsonObject(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return []byte("{}")
	}
	return b
}

// jsonNullable encodes v, returning nil (SQL NULL) for nil pointers.
func jsonNullable(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return b
}

// decodeJSON unmarshals data into v; empty input leaves v unchanged.
func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode column")
	}
	return nil
}

// decodeAll runs decodeJSON for each column/target pair and returns the first
// error.
func decodeAll(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		data, _ := pairs[i].([]byte)
		if err := decodeJSON(data, pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

//Personal.AI order the ending
