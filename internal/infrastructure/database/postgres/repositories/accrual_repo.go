package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

const accrualColumns = `id, task_id, task_title, official_fee, service_fee, vat_rate,
	apply_vat_to_official, total_amount, remaining_amount, status,
	official_fee_party, service_fee_party, files, created_by, created_at, updated_at`

// AccrualRepository is the PostgreSQL accrual store.
type AccrualRepository struct {
	baseRepo
}

// NewAccrualRepository constructs an AccrualRepository.
func NewAccrualRepository(pool *pgxpool.Pool, log logging.Logger) *AccrualRepository {
	return &AccrualRepository{baseRepo: newBase(pool, log, "accrual_repo")}
}

var _ accrual.Repository = (*AccrualRepository)(nil)

func (r *AccrualRepository) Create(ctx context.Context, a *accrual.Accrual) error {
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO accruals (`+accrualColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		a.ID, a.TaskID, a.TaskTitle, jsonObject(a.OfficialFee), jsonObject(a.ServiceFee), a.VATRate,
		a.ApplyVATToOfficial, jsonArray(a.TotalAmount), jsonArray(a.RemainingAmount), string(a.Status),
		jsonNullable(a.OfficialFeeParty), jsonNullable(a.ServiceFeeParty), jsonArray(a.Files),
		a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "accrual %s already exists", a.ID)
		}
		return r.dbErr("AccrualRepository.Create", err)
	}
	return nil
}

func (r *AccrualRepository) GetByID(ctx context.Context, id string) (*accrual.Accrual, error) {
	a, err := scanAccrual(r.db(ctx).QueryRow(ctx, `SELECT `+accrualColumns+` FROM accruals WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.Newf(errors.ErrCodeAccrualNotFound, "accrual %s not found", id)
		}
		return nil, r.dbErr("AccrualRepository.GetByID", err)
	}
	return a, nil
}

// Update applies patch under a row lock. An invalid status in the patch is
// returned unchanged and nothing is written.
func (r *AccrualRepository) Update(ctx context.Context, id string, patch accrual.Patch) error {
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, txCtx context.Context) error {
		a, err := scanAccrual(tx.QueryRow(txCtx, `SELECT `+accrualColumns+` FROM accruals WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if err == pgx.ErrNoRows {
				return errors.Newf(errors.ErrCodeAccrualNotFound, "accrual %s not found", id)
			}
			return r.dbErr("AccrualRepository.Update", err)
		}
		if err := patch.Apply(a, time.Now().UTC()); err != nil {
			return err
		}
		_, err = tx.Exec(txCtx, `
			UPDATE accruals SET status = $2, remaining_amount = $3, files = $4, updated_at = $5
			WHERE id = $1`,
			a.ID, string(a.Status), jsonArray(a.RemainingAmount), jsonArray(a.Files), a.UpdatedAt)
		if err != nil {
			return r.dbErr("AccrualRepository.Update", err)
		}
		return nil
	})
}

func (r *AccrualRepository) ListByTaskID(ctx context.Context, taskID string) ([]*accrual.Accrual, error) {
	return r.List(ctx, accrual.Filter{TaskID: taskID})
}

// List returns the accruals matching filter, oldest first.
func (r *AccrualRepository) List(ctx context.Context, filter accrual.Filter) ([]*accrual.Accrual, error) {
	query, args := buildAccrualQuery(filter)
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, r.dbErr("AccrualRepository.List", err)
	}
	defer rows.Close()

	out := make([]*accrual.Accrual, 0)
	for rows.Next() {
		a, err := scanAccrual(rows)
		if err != nil {
			return nil, r.dbErr("AccrualRepository.List", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbErr("AccrualRepository.List", err)
	}
	return out, nil
}

func buildAccrualQuery(f accrual.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.TaskID != "" {
		add("task_id = $%d", f.TaskID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + accrualColumns + ` FROM accruals`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at, id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func scanAccrual(row pgx.Row) (*accrual.Accrual, error) {
	var (
		a                       accrual.Accrual
		status                  string
		official, service       []byte
		total, remaining, files []byte
		officialParty, svcParty []byte
	)
	err := row.Scan(
		&a.ID, &a.TaskID, &a.TaskTitle, &official, &service, &a.VATRate,
		&a.ApplyVATToOfficial, &total, &remaining, &status,
		&officialParty, &svcParty, &files, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = accrual.Status(status)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()

	if err := decodeAll(official, &a.OfficialFee, service, &a.ServiceFee,
		total, &a.TotalAmount, remaining, &a.RemainingAmount, files, &a.Files); err != nil {
		return nil, err
	}
	if len(officialParty) > 0 {
		a.OfficialFeeParty = &common.Party{}
		if err := decodeJSON(officialParty, a.OfficialFeeParty); err != nil {
			return nil, err
		}
	}
	if len(svcParty) > 0 {
		a.ServiceFeeParty = &common.Party{}
		if err := decodeJSON(svcParty, a.ServiceFeeParty); err != nil {
			return nil, err
		}
	}
	if len(a.Files) == 0 {
		a.Files = nil
	}
	return &a, nil
}

//Personal.AI order the ending
