package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Docket/internal/domain/suit"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

const suitColumns = `id, task_id, title, suit_type, court, file_number,
	client, opponent, asset_id, status, created_at`

// SuitRepository is the PostgreSQL suit store.
type SuitRepository struct {
	baseRepo
}

// NewSuitRepository constructs a SuitRepository.
func NewSuitRepository(pool *pgxpool.Pool, log logging.Logger) *SuitRepository {
	return &SuitRepository{baseRepo: newBase(pool, log, "suit_repo")}
}

var _ suit.Repository = (*SuitRepository)(nil)

// Create stores s. A task opens at most one suit.
func (r *SuitRepository) Create(ctx context.Context, s *suit.Suit) error {
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO suits (`+suitColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.TaskID, s.Title, s.SuitType, s.Court, s.FileNumber,
		jsonNullable(s.Client), jsonNullable(s.Opponent), s.AssetID, string(s.Status), s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "suit for task %s already exists", s.TaskID)
		}
		return r.dbErr("SuitRepository.Create", err)
	}
	return nil
}

func (r *SuitRepository) GetByID(ctx context.Context, id string) (*suit.Suit, error) {
	s, err := scanSuit(r.db(ctx).QueryRow(ctx, `SELECT `+suitColumns+` FROM suits WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.Newf(errors.ErrCodeSuitNotFound, "suit %s not found", id)
		}
		return nil, r.dbErr("SuitRepository.GetByID", err)
	}
	return s, nil
}

func (r *SuitRepository) FindByTaskID(ctx context.Context, taskID string) (*suit.Suit, error) {
	s, err := scanSuit(r.db(ctx).QueryRow(ctx, `SELECT `+suitColumns+` FROM suits WHERE task_id = $1`, taskID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, r.dbErr("SuitRepository.FindByTaskID", err)
	}
	return s, nil
}

func (r *SuitRepository) AddTransaction(ctx context.Context, tx *suit.Transaction) error {
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO suit_transactions (id, suit_id, task_id, description, documents, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (suit_id, task_id) DO NOTHING`,
		tx.ID, tx.SuitID, tx.TaskID, tx.Description, jsonArray(tx.Documents), tx.CreatedAt)
	if err != nil {
		return r.dbErr("SuitRepository.AddTransaction", err)
	}
	return nil
}

func (r *SuitRepository) ListTransactions(ctx context.Context, suitID string) ([]*suit.Transaction, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT id, suit_id, task_id, description, documents, created_at
		FROM suit_transactions WHERE suit_id = $1 ORDER BY created_at, id`, suitID)
	if err != nil {
		return nil, r.dbErr("SuitRepository.ListTransactions", err)
	}
	defer rows.Close()

	out := make([]*suit.Transaction, 0)
	for rows.Next() {
		var (
			tx   suit.Transaction
			docs []byte
		)
		if err := rows.Scan(&tx.ID, &tx.SuitID, &tx.TaskID, &tx.Description, &docs, &tx.CreatedAt); err != nil {
			return nil, r.dbErr("SuitRepository.ListTransactions", err)
		}
		if err := decodeJSON(docs, &tx.Documents); err != nil {
			return nil, err
		}
		tx.CreatedAt = tx.CreatedAt.UTC()
		out = append(out, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbErr("SuitRepository.ListTransactions", err)
	}
	return out, nil
}

func scanSuit(row pgx.Row) (*suit.Suit, error) {
	var (
		s           suit.Suit
		status      string
		client, opp []byte
	)
	err := row.Scan(&s.ID, &s.TaskID, &s.Title, &s.SuitType, &s.Court, &s.FileNumber,
		&client, &opp, &s.AssetID, &status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = suit.Status(status)
	s.CreatedAt = s.CreatedAt.UTC()
	if len(client) > 0 {
		s.Client = &common.Party{}
		if err := decodeJSON(client, s.Client); err != nil {
			return nil, err
		}
	}
	if len(opp) > 0 {
		s.Opponent = &common.Party{}
		if err := decodeJSON(opp, s.Opponent); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

//Personal.AI order the ending
