package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// AssetRepository stores assets and their transaction history.
type AssetRepository struct {
	baseRepo
}

// NewAssetRepository constructs an AssetRepository.
func NewAssetRepository(db *sql.DB, log logging.Logger) *AssetRepository {
	return &AssetRepository{baseRepo: newBase(db, log, "sqlite_asset_repo")}
}

var _ asset.Repository = (*AssetRepository)(nil)

func (r *AssetRepository) Create(ctx context.Context, a *asset.Asset) error {
	doc, err := encodeDoc(a)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO assets (id, title, application_number, brand_text, created_at, doc)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, strings.TrimSpace(a.ApplicationNumber), a.BrandText, formatTime(a.CreatedAt), doc)
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
	return WithinTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		a, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(a, time.Now().UTC())
		doc, err := encodeDoc(a)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE assets SET title = ?, doc = ? WHERE id = ?`, a.Title, doc, id); err != nil {
			return r.dbErr("AssetRepository.Update", err)
		}
		return nil
	})
}

func (r *AssetRepository) GetByID(ctx context.Context, id string) (*asset.Asset, error) {
	a, err := r.one(ctx, `SELECT doc FROM assets WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrCodeAssetNotFound, "asset %s not found", id)
	}
	if err != nil {
		return nil, r.dbErr("AssetRepository.GetByID", err)
	}
	return a, nil
}

func (r *AssetRepository) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*asset.Asset, error) {
	n := strings.TrimSpace(applicationNumber)
	if n == "" {
		return nil, nil
	}
	a, err := r.one(ctx, `SELECT doc FROM assets WHERE application_number = ?`, n)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, r.dbErr("AssetRepository.FindByApplicationNumber", err)
	}
	return a, nil
}

func (r *AssetRepository) List(ctx context.Context, page common.Pagination) ([]*asset.Asset, error) {
	return r.list(ctx, "AssetRepository.List",
		`SELECT doc FROM assets ORDER BY created_at, id LIMIT ? OFFSET ?`, page.Limit(), page.Offset())
}

// Search matches query against title, application number and brand text.
// LIKE is case-insensitive for ASCII only.
func (r *AssetRepository) Search(ctx context.Context, query string, limit int) ([]*asset.Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return r.list(ctx, "AssetRepository.Search", `
		SELECT doc FROM assets
		WHERE title LIKE ? ESCAPE '\' OR application_number LIKE ? ESCAPE '\' OR brand_text LIKE ? ESCAPE '\'
		ORDER BY title, id LIMIT ?`, pattern, pattern, pattern, limit)
}

func (r *AssetRepository) one(ctx context.Context, query string, args ...any) (*asset.Asset, error) {
	var doc string
	if err := r.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&doc); err != nil {
		return nil, err
	}
	var a asset.Asset
	if err := decodeDoc(doc, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepository) list(ctx context.Context, op, query string, args ...any) ([]*asset.Asset, error) {
	out := make([]*asset.Asset, 0)
	err := queryDocs(ctx, r.conn(ctx), query, args, func(doc string) error {
		var a asset.Asset
		if err := decodeDoc(doc, &a); err != nil {
			return err
		}
		out = append(out, &a)
		return nil
	})
	if err != nil {
		return nil, r.dbErr(op, err)
	}
	return out, nil
}

// AddTransaction writes a history entry; a repeat for the same task is a
// no-op.
func (r *AssetRepository) AddTransaction(ctx context.Context, tx *asset.Transaction) error {
	doc, err := encodeDoc(tx)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT OR IGNORE INTO asset_transactions (id, asset_id, task_id, created_at, doc)
		VALUES (?, ?, ?, ?, ?)`,
		tx.ID, tx.AssetID, tx.TaskID, formatTime(tx.CreatedAt), doc)
	if err != nil {
		return r.dbErr("AssetRepository.AddTransaction", err)
	}
	return nil
}

func (r *AssetRepository) ListTransactions(ctx context.Context, assetID string) ([]*asset.Transaction, error) {
	out := make([]*asset.Transaction, 0)
	err := queryDocs(ctx, r.conn(ctx),
		`SELECT doc FROM asset_transactions WHERE asset_id = ? ORDER BY created_at, id`, []any{assetID},
		func(doc string) error {
			var tx asset.Transaction
			if err := decodeDoc(doc, &tx); err != nil {
				return err
			}
			out = append(out, &tx)
			return nil
		})
	if err != nil {
		return nil, r.dbErr("AssetRepository.ListTransactions", err)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

//Personal.AI order the ending
