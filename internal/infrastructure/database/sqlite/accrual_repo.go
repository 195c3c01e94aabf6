package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// AccrualRepository stores accruals.
type AccrualRepository struct {
	baseRepo
}

// NewAccrualRepository constructs an AccrualRepository.
func NewAccrualRepository(db *sql.DB, log logging.Logger) *AccrualRepository {
	return &AccrualRepository{baseRepo: newBase(db, log, "sqlite_accrual_repo")}
}

var _ accrual.Repository = (*AccrualRepository)(nil)

func (r *AccrualRepository) Create(ctx context.Context, a *accrual.Accrual) error {
	doc, err := encodeDoc(a)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO accruals (id, task_id, status, created_at, doc) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.TaskID, string(a.Status), formatTime(a.CreatedAt), doc)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "accrual %s already exists", a.ID)
		}
		return r.dbErr("AccrualRepository.Create", err)
	}
	return nil
}

func (r *AccrualRepository) GetByID(ctx context.Context, id string) (*accrual.Accrual, error) {
	var doc string
	err := r.conn(ctx).QueryRowContext(ctx, `SELECT doc FROM accruals WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrCodeAccrualNotFound, "accrual %s not found", id)
	}
	if err != nil {
		return nil, r.dbErr("AccrualRepository.GetByID", err)
	}
	var a accrual.Accrual
	if err := decodeDoc(doc, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccrualRepository) Update(ctx context.Context, id string, patch accrual.Patch) error {
	return WithinTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		a, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.Apply(a, time.Now().UTC()); err != nil {
			return err
		}
		doc, err := encodeDoc(a)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE accruals SET status = ?, doc = ? WHERE id = ?`,
			string(a.Status), doc, id); err != nil {
			return r.dbErr("AccrualRepository.Update", err)
		}
		return nil
	})
}

func (r *AccrualRepository) ListByTaskID(ctx context.Context, taskID string) ([]*accrual.Accrual, error) {
	return r.List(ctx, accrual.Filter{TaskID: taskID})
}

func (r *AccrualRepository) List(ctx context.Context, filter accrual.Filter) ([]*accrual.Accrual, error) {
	var (
		where []string
		args  []any
	)
	if filter.TaskID != "" {
		where, args = append(where, "task_id = ?"), append(args, filter.TaskID)
	}
	if filter.Status != "" {
		where, args = append(where, "status = ?"), append(args, string(filter.Status))
	}
	if !filter.From.IsZero() {
		where, args = append(where, "created_at >= ?"), append(args, formatTime(filter.From))
	}
	if !filter.To.IsZero() {
		where, args = append(where, "created_at < ?"), append(args, formatTime(filter.To))
	}
	query := `SELECT doc FROM accruals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	out := make([]*accrual.Accrual, 0)
	err := queryDocs(ctx, r.conn(ctx), query, args, func(doc string) error {
		var a accrual.Accrual
		if err := decodeDoc(doc, &a); err != nil {
			return err
		}
		out = append(out, &a)
		return nil
	})
	if err != nil {
		return nil, r.dbErr("AccrualRepository.List", err)
	}
	return out, nil
}

//Personal.AI order the ending
