package repositories

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

func TestBuildAccrualQuery_NoFilter(t *testing.T) {
	q, args := buildAccrualQuery(accrual.Filter{})
	assert.NotContains(t, q, "WHERE")
	assert.NotContains(t, q, "LIMIT")
	assert.Contains(t, q, "ORDER BY created_at, id")
	assert.Empty(t, args)
}

func TestBuildAccrualQuery_AllFields(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	q, args := buildAccrualQuery(accrual.Filter{
		TaskID: "t-1", Status: accrual.StatusPaid, From: from, To: to, Limit: 10,
	})
	assert.Contains(t, q, "WHERE task_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4")
	assert.Contains(t, q, "LIMIT $5")
	assert.Equal(t, []any{"t-1", "paid", from, to, 10}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLike(`100%_a\b`))
	assert.Equal(t, "acme", escapeLike("acme"))
}

func TestSQLStateClassification(t *testing.T) {
	unique := &pgconn.PgError{Code: sqlStateUniqueViolation}
	serial := &pgconn.PgError{Code: sqlStateSerializationFailure}
	deadlock := &pgconn.PgError{Code: sqlStateDeadlockDetected}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isRetryable(unique))
	assert.True(t, isRetryable(serial))
	assert.True(t, isRetryable(deadlock))
	assert.True(t, isRetryable(errors.Wrap(serial, errors.ErrCodeDatabaseError, "wrapped")))
	assert.False(t, isRetryable(errors.New(errors.ErrCodeInternal, "plain")))
}

func TestJSONHelpers(t *testing.T) {
	var nilSlice []string
	var nilMap map[string]any
	type party struct{ Name string }
	var nilPtr *party

	assert.Equal(t, "[]", string(jsonArray(nilSlice)))
	assert.Equal(t, "{}", string(jsonObject(nilMap)))
	assert.Nil(t, jsonNullable(nilPtr))
	assert.JSONEq(t, `{"Name":"x"}`, string(jsonNullable(&party{Name: "x"})))

	var out []string
	assert.NoError(t, decodeJSON(nil, &out))
	assert.Nil(t, out)
	err := decodeJSON([]byte("{"), &out)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

//Personal.AI order the ending
