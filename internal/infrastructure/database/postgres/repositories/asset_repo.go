package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

const assetColumns = `id, title, asset_type, application_number, registration_number,
	application_date, registration_date, renewal_date,
	applicant_name, applicants, client, holder, country, ownership, source,
	brand_text, nice_classes, bulletin, created_at, updated_at`

// AssetRepository is the PostgreSQL asset store.
type AssetRepository struct {
	baseRepo
}

// NewAssetRepository constructs an AssetRepository.
func NewAssetRepository(pool *pgxpool.Pool, log logging.Logger) *AssetRepository {
	return &AssetRepository{baseRepo: newBase(pool, log, "asset_repo")}
}

var _ asset.Repository = (*AssetRepository)(nil)

func (r *AssetRepository) Create(ctx context.Context, a *asset.Asset) error {
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO assets (`+assetColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		a.ID, a.Title, string(a.Type), a.ApplicationNumber, a.RegistrationNumber,
		a.ApplicationDate, a.RegistrationDate, a.RenewalDate,
		a.ApplicantName, jsonArray(a.Applicants), jsonNullable(a.Client), jsonNullable(a.Holder),
		a.Country, string(a.Ownership), string(a.Source),
		a.BrandText, jsonArray(a.NiceClasses), jsonNullable(a.Bulletin), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeAssetAlreadyExists,
				"asset with application number %s already exists", a.ApplicationNumber)
		}
		return r.dbErr("AssetRepository.Create", err)
	}
	return nil
}

func (r *AssetRepository) Update(ctx context.Context, id string, patch asset.Patch) error {
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, txCtx context.Context) error {
		a, err := scanAsset(tx.QueryRow(txCtx, `SELECT `+assetColumns+` FROM assets WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if err == pgx.ErrNoRows {
				return errors.Newf(errors.ErrCodeAssetNotFound, "asset %s not found", id)
			}
			return r.dbErr("AssetRepository.Update", err)
		}
		patch.Apply(a, time.Now().UTC())
		_, err = tx.Exec(txCtx, `
			UPDATE assets SET
				title = $2, registration_number = $3, registration_date = $4, renewal_date = $5,
				applicants = $6, nice_classes = $7, updated_at = $8
			WHERE id = $1`,
			a.ID, a.Title, a.RegistrationNumber, a.RegistrationDate, a.RenewalDate,
			jsonArray(a.Applicants), jsonArray(a.NiceClasses), a.UpdatedAt,
		)
		if err != nil {
			return r.dbErr("AssetRepository.Update", err)
		}
		return nil
	})
}

func (r *AssetRepository) GetByID(ctx context.Context, id string) (*asset.Asset, error) {
	a, err := scanAsset(r.db(ctx).QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.Newf(errors.ErrCodeAssetNotFound, "asset %s not found", id)
		}
		return nil, r.dbErr("AssetRepository.GetByID", err)
	}
	return a, nil
}

func (r *AssetRepository) List(ctx context.Context, page common.Pagination) ([]*asset.Asset, error) {
	return r.list(ctx, "AssetRepository.List",
		`SELECT `+assetColumns+` FROM assets ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		page.Limit(), page.Offset())
}

func (r *AssetRepository) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*asset.Asset, error) {
	n := strings.TrimSpace(applicationNumber)
	if n == "" {
		return nil, nil
	}
	a, err := scanAsset(r.db(ctx).QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE application_number = $1`, n))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, r.dbErr("AssetRepository.FindByApplicationNumber", err)
	}
	return a, nil
}

func (r *AssetRepository) Search(ctx context.Context, query string, limit int) ([]*asset.Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return r.list(ctx, "AssetRepository.Search",
		`SELECT `+assetColumns+` FROM assets
		 WHERE title ILIKE $1 OR application_number ILIKE $1 OR brand_text ILIKE $1
		 ORDER BY title, id LIMIT $2`, pattern, limit)
}

func (r *AssetRepository) list(ctx context.Context, op, query string, args ...any) ([]*asset.Asset, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, r.dbErr(op, err)
	}
	defer rows.Close()

	out := make([]*asset.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, r.dbErr(op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbErr(op, err)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Transaction history
// ─────────────────────────────────────────────────────────────────────────────

// AddTransaction writes a history entry. A second entry for the same task is
// ignored.
func (r *AssetRepository) AddTransaction(ctx context.Context, tx *asset.Transaction) error {
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO asset_transactions (id, asset_id, task_id, task_type, description, documents, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (asset_id, task_id) DO NOTHING`,
		tx.ID, tx.AssetID, tx.TaskID, tx.TaskType, tx.Description, jsonArray(tx.Documents), tx.CreatedAt,
	)
	if err != nil {
		return r.dbErr("AssetRepository.AddTransaction", err)
	}
	return nil
}

func (r *AssetRepository) ListTransactions(ctx context.Context, assetID string) ([]*asset.Transaction, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT id, asset_id, task_id, task_type, description, documents, created_at
		FROM asset_transactions WHERE asset_id = $1 ORDER BY created_at, id`, assetID)
	if err != nil {
		return nil, r.dbErr("AssetRepository.ListTransactions", err)
	}
	defer rows.Close()

	out := make([]*asset.Transaction, 0)
	for rows.Next() {
		var (
			tx   asset.Transaction
			docs []byte
		)
		if err := rows.Scan(&tx.ID, &tx.AssetID, &tx.TaskID, &tx.TaskType, &tx.Description, &docs, &tx.CreatedAt); err != nil {
			return nil, r.dbErr("AssetRepository.ListTransactions", err)
		}
		if err := decodeJSON(docs, &tx.Documents); err != nil {
			return nil, err
		}
		tx.CreatedAt = tx.CreatedAt.UTC()
		out = append(out, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbErr("AssetRepository.ListTransactions", err)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal scanners
// ─────────────────────────────────────────────────────────────────────────────

func scanAsset(row pgx.Row) (*asset.Asset, error) {
	var (
		a                                      asset.Asset
		typ, ownership, source                 string
		applicants, client, holder, nice, bull []byte
	)
	err := row.Scan(
		&a.ID, &a.Title, &typ, &a.ApplicationNumber, &a.RegistrationNumber,
		&a.ApplicationDate, &a.RegistrationDate, &a.RenewalDate,
		&a.ApplicantName, &applicants, &client, &holder, &a.Country, &ownership, &source,
		&a.BrandText, &nice, &bull, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Type = asset.Type(typ)
	a.Ownership = asset.Ownership(ownership)
	a.Source = asset.Source(source)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()

	if err := decodeAll(applicants, &a.Applicants, nice, &a.NiceClasses); err != nil {
		return nil, err
	}
	if len(client) > 0 {
		a.Client = &common.Party{}
		if err := decodeJSON(client, a.Client); err != nil {
			return nil, err
		}
	}
	if len(holder) > 0 {
		a.Holder = &common.Party{}
		if err := decodeJSON(holder, a.Holder); err != nil {
			return nil, err
		}
	}
	if len(bull) > 0 {
		a.Bulletin = &asset.BulletinRef{}
		if err := decodeJSON(bull, a.Bulletin); err != nil {
			return nil, err
		}
	}
	if len(a.Applicants) == 0 {
		a.Applicants = nil
	}
	if len(a.NiceClasses) == 0 {
		a.NiceClasses = nil
	}
	return &a, nil
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

//Personal.AI order the ending
