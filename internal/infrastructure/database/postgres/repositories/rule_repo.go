package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// AssignmentRuleRepository is the PostgreSQL assignment rule store.
type AssignmentRuleRepository struct {
	baseRepo
}

// NewAssignmentRuleRepository constructs an AssignmentRuleRepository.
func NewAssignmentRuleRepository(pool *pgxpool.Pool, log logging.Logger) *AssignmentRuleRepository {
	return &AssignmentRuleRepository{baseRepo: newBase(pool, log, "rule_repo")}
}

var _ task.AssignmentRuleRepository = (*AssignmentRuleRepository)(nil)

func (r *AssignmentRuleRepository) GetByTaskType(ctx context.Context, typ task.Type) (*task.AssignmentRule, error) {
	var (
		rule task.AssignmentRule
		ids  []byte
	)
	err := r.db(ctx).QueryRow(ctx, `
		SELECT task_type, assignee_ids, allow_manual_override
		FROM assignment_rules WHERE task_type = $1`, string(typ)).
		Scan((*string)(&rule.TaskType), &ids, &rule.AllowManualOverride)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, r.dbErr("AssignmentRuleRepository.GetByTaskType", err)
	}
	if err := decodeJSON(ids, &rule.AssigneeIDs); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *AssignmentRuleRepository) Upsert(ctx context.Context, rule *task.AssignmentRule) error {
	if rule == nil || rule.TaskType == "" {
		return errors.InvalidParam("assignment rule requires a task type")
	}
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO assignment_rules (task_type, assignee_ids, allow_manual_override)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_type) DO UPDATE
		SET assignee_ids = EXCLUDED.assignee_ids, allow_manual_override = EXCLUDED.allow_manual_override`,
		string(rule.TaskType), jsonArray(rule.AssigneeIDs), rule.AllowManualOverride)
	if err != nil {
		return r.dbErr("AssignmentRuleRepository.Upsert", err)
	}
	return nil
}

//Personal.AI order the ending
