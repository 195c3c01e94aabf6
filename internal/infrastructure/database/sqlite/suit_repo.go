package sqlite

import (
	"context"
	"database/sql"

	"github.com/turtacn/KeyIP-Docket/internal/domain/suit"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// SuitRepository stores suits and their history.
type SuitRepository struct {
	baseRepo
}

// NewSuitRepository constructs a SuitRepository.
func NewSuitRepository(db *sql.DB, log logging.Logger) *SuitRepository {
	return &SuitRepository{baseRepo: newBase(db, log, "sqlite_suit_repo")}
}

var _ suit.Repository = (*SuitRepository)(nil)

func (r *SuitRepository) Create(ctx context.Context, s *suit.Suit) error {
	doc, err := encodeDoc(s)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx,
		`INSERT INTO suits (id, task_id, created_at, doc) VALUES (?, ?, ?, ?)`,
		s.ID, s.TaskID, formatTime(s.CreatedAt), doc)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "suit for task %s already exists", s.TaskID)
		}
		return r.dbErr("SuitRepository.Create", err)
	}
	return nil
}

func (r *SuitRepository) GetByID(ctx context.Context, id string) (*suit.Suit, error) {
	s, err := r.one(ctx, `SELECT doc FROM suits WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrCodeSuitNotFound, "suit %s not found", id)
	}
	if err != nil {
		return nil, r.dbErr("SuitRepository.GetByID", err)
	}
	return s, nil
}

func (r *SuitRepository) FindByTaskID(ctx context.Context, taskID string) (*suit.Suit, error) {
	s, err := r.one(ctx, `SELECT doc FROM suits WHERE task_id = ?`, taskID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, r.dbErr("SuitRepository.FindByTaskID", err)
	}
	return s, nil
}

func (r *SuitRepository) one(ctx context.Context, query string, args ...any) (*suit.Suit, error) {
	var doc string
	if err := r.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&doc); err != nil {
		return nil, err
	}
	var s suit.Suit
	if err := decodeDoc(doc, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SuitRepository) AddTransaction(ctx context.Context, tx *suit.Transaction) error {
	doc, err := encodeDoc(tx)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT OR IGNORE INTO suit_transactions (id, suit_id, task_id, created_at, doc)
		VALUES (?, ?, ?, ?, ?)`,
		tx.ID, tx.SuitID, tx.TaskID, formatTime(tx.CreatedAt), doc)
	if err != nil {
		return r.dbErr("SuitRepository.AddTransaction", err)
	}
	return nil
}

func (r *SuitRepository) ListTransactions(ctx context.Context, suitID string) ([]*suit.Transaction, error) {
	out := make([]*suit.Transaction, 0)
	err := queryDocs(ctx, r.conn(ctx),
		`SELECT doc FROM suit_transactions WHERE suit_id = ? ORDER BY created_at, id`, []any{suitID},
		func(doc string) error {
			var tx suit.Transaction
			if err := decodeDoc(doc, &tx); err != nil {
				return err
			}
			out = append(out, &tx)
			return nil
		})
	if err != nil {
		return nil, r.dbErr("SuitRepository.ListTransactions", err)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignment rules
// ─────────────────────────────────────────────────────────────────────────────

// AssignmentRuleRepository stores assignment rules keyed by task type.
type AssignmentRuleRepository struct {
	baseRepo
}

// NewAssignmentRuleRepository constructs an AssignmentRuleRepository.
func NewAssignmentRuleRepository(db *sql.DB, log logging.Logger) *AssignmentRuleRepository {
	return &AssignmentRuleRepository{baseRepo: newBase(db, log, "sqlite_rule_repo")}
}

var _ task.AssignmentRuleRepository = (*AssignmentRuleRepository)(nil)

func (r *AssignmentRuleRepository) GetByTaskType(ctx context.Context, typ task.Type) (*task.AssignmentRule, error) {
	var doc string
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT doc FROM assignment_rules WHERE task_type = ?`, string(typ)).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, r.dbErr("AssignmentRuleRepository.GetByTaskType", err)
	}
	var rule task.AssignmentRule
	if err := decodeDoc(doc, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *AssignmentRuleRepository) Upsert(ctx context.Context, rule *task.AssignmentRule) error {
	if rule == nil || rule.TaskType == "" {
		return errors.InvalidParam("assignment rule requires a task type")
	}
	doc, err := encodeDoc(rule)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO assignment_rules (task_type, doc) VALUES (?, ?)
		ON CONFLICT (task_type) DO UPDATE SET doc = excluded.doc`,
		string(rule.TaskType), doc)
	if err != nil {
		return r.dbErr("AssignmentRuleRepository.Upsert", err)
	}
	return nil
}

//Personal.AI order the ending
