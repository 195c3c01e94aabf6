package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

const taskColumns = `id, task_type, title, description, priority, status,
	assignee_id, assignee_name, assignee_email,
	operational_due_date, official_due_date,
	details, documents, asset_id, related_parties, owners, opponent, display,
	created_by, created_at, updated_at`

// RetryObserver is told about every sequencer retry.
type RetryObserver interface {
	SequencerRetried(backend string)
}

// SequencerOptions bounds the retries of CreateSequenced.
type SequencerOptions struct {
	MaxRetries int
	Backoff    time.Duration
	Observer   RetryObserver
}

// TaskRepository is the PostgreSQL task store. It also implements
// task.Sequencer: the counter increment and the task insert commit together.
type TaskRepository struct {
	baseRepo
	seq SequencerOptions
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool, log logging.Logger, seq SequencerOptions) *TaskRepository {
	if seq.MaxRetries < 1 {
		seq.MaxRetries = 5
	}
	if seq.Backoff <= 0 {
		seq.Backoff = 20 * time.Millisecond
	}
	return &TaskRepository{baseRepo: newBase(pool, log, "task_repo"), seq: seq}
}

var (
	_ task.Repository = (*TaskRepository)(nil)
	_ task.Sequencer  = (*TaskRepository)(nil)
)

// ─────────────────────────────────────────────────────────────────────────────
// Create
// ─────────────────────────────────────────────────────────────────────────────

func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	if err := r.insert(ctx, r.db(ctx), t); err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "task %s already exists", t.ID)
		}
		return r.dbErr("TaskRepository.Create", err)
	}
	return nil
}

func (r *TaskRepository) insert(ctx context.Context, q querier, t *task.Task) error {
	_, err := q.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		t.ID, string(t.Type), t.Title, t.Description, string(t.Priority), string(t.Status),
		t.Assignee.ID, t.Assignee.Name, t.Assignee.Email,
		t.OperationalDueDate, t.OfficialDueDate,
		jsonObject(t.Details), jsonArray(t.Documents), t.AssetID,
		jsonArray(t.RelatedParties), jsonArray(t.Owners), jsonNullable(t.Opponent), jsonObject(t.Display),
		t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateSequenced
// ─────────────────────────────────────────────────────────────────────────────

const nextSequenceSQL = `
	INSERT INTO sequences (name, value) VALUES ($1, 1)
	ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
	RETURNING value`

// CreateSequenced increments the deferred-billing counter and inserts the
// task built for the new id in one transaction. Serialization failures and
// deadlocks are retried; a rolled-back attempt leaves no gap.
func (r *TaskRepository) CreateSequenced(ctx context.Context, build func(id string) (*task.Task, error)) (*task.Task, error) {
	for attempt := 1; ; attempt++ {
		var created *task.Task
		err := postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, txCtx context.Context) error {
			var n int64
			if err := tx.QueryRow(txCtx, nextSequenceSQL, task.SequenceName).Scan(&n); err != nil {
				return err
			}
			t, err := build(task.FormatSequenceID(n))
			if err != nil {
				return err
			}
			if err := r.insert(txCtx, tx, t); err != nil {
				return err
			}
			created = t
			return nil
		})
		if err == nil {
			r.log.Debug("sequenced task created",
				logging.String("task_id", created.ID),
				logging.Int("attempt", attempt))
			return created, nil
		}

		switch {
		case isRetryable(err) && attempt < r.seq.MaxRetries:
			if r.seq.Observer != nil {
				r.seq.Observer.SequencerRetried("postgres")
			}
			r.log.Warn("sequence allocation contended, retrying",
				logging.Int("attempt", attempt),
				logging.Err(err))
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeSequenceContention, "sequence allocation cancelled")
			case <-time.After(r.seq.Backoff * time.Duration(attempt)):
			}
		case isRetryable(err):
			return nil, errors.Wrap(err, errors.ErrCodeSequenceContention, "sequence allocation retries exhausted")
		case isUniqueViolation(err):
			return nil, errors.Wrap(err, errors.ErrCodeSequenceDuplicateID, "sequenced id already in use")
		case errors.GetCode(err) != errors.CodeUnknown:
			return nil, err
		default:
			return nil, errors.Wrap(err, errors.ErrCodeSequenceAllocFailed, "sequence allocation failed")
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	row := r.db(ctx).QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.Newf(errors.ErrCodeTaskNotFound, "task %s not found", id)
		}
		return nil, r.dbErr("TaskRepository.GetByID", err)
	}
	return t, nil
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, userID string) ([]*task.Task, error) {
	return r.list(ctx, "TaskRepository.ListByAssignee",
		`SELECT `+taskColumns+` FROM tasks WHERE assignee_id = $1 ORDER BY created_at, id`, userID)
}

func (r *TaskRepository) ListByStatus(ctx context.Context, status task.Status, userID string) ([]*task.Task, error) {
	if userID == "" {
		return r.list(ctx, "TaskRepository.ListByStatus",
			`SELECT `+taskColumns+` FROM tasks WHERE status = $1 ORDER BY created_at, id`, string(status))
	}
	return r.list(ctx, "TaskRepository.ListByStatus",
		`SELECT `+taskColumns+` FROM tasks WHERE status = $1 AND assignee_id = $2 ORDER BY created_at, id`,
		string(status), userID)
}

func (r *TaskRepository) FindByRelatedTask(ctx context.Context, relatedTaskID string, typ task.Type) ([]*task.Task, error) {
	return r.list(ctx, "TaskRepository.FindByRelatedTask",
		`SELECT `+taskColumns+` FROM tasks
		 WHERE details->>'relatedTaskId' = $1 AND task_type = $2
		 ORDER BY created_at, id`, relatedTaskID, string(typ))
}

func (r *TaskRepository) list(ctx context.Context, op, query string, args ...any) ([]*task.Task, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, r.dbErr(op, err)
	}
	defer rows.Close()

	out := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, r.dbErr(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbErr(op, err)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// Update applies patch under a row lock.
func (r *TaskRepository) Update(ctx context.Context, id string, patch task.Patch) error {
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, txCtx context.Context) error {
		t, err := scanTask(tx.QueryRow(txCtx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if err == pgx.ErrNoRows {
				return errors.Newf(errors.ErrCodeTaskNotFound, "task %s not found", id)
			}
			return r.dbErr("TaskRepository.Update", err)
		}
		patch.Apply(t, time.Now().UTC())
		_, err = tx.Exec(txCtx, `
			UPDATE tasks SET
				title = $2, description = $3, priority = $4, status = $5,
				assignee_id = $6, assignee_name = $7, assignee_email = $8,
				operational_due_date = $9, official_due_date = $10,
				details = $11, documents = $12, updated_at = $13
			WHERE id = $1`,
			t.ID, t.Title, t.Description, string(t.Priority), string(t.Status),
			t.Assignee.ID, t.Assignee.Name, t.Assignee.Email,
			t.OperationalDueDate, t.OfficialDueDate,
			jsonObject(t.Details), jsonArray(t.Documents), t.UpdatedAt,
		)
		if err != nil {
			return r.dbErr("TaskRepository.Update", err)
		}
		return nil
	})
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return r.dbErr("TaskRepository.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeTaskNotFound, "task %s not found", id)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal scanners
// ─────────────────────────────────────────────────────────────────────────────

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t                                   task.Task
		typ, priority, status               string
		details, docs, related, owners, opp []byte
		display                             []byte
	)
	err := row.Scan(
		&t.ID, &typ, &t.Title, &t.Description, &priority, &status,
		&t.Assignee.ID, &t.Assignee.Name, &t.Assignee.Email,
		&t.OperationalDueDate, &t.OfficialDueDate,
		&details, &docs, &t.AssetID, &related, &owners, &opp, &display,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = task.Type(typ)
	t.Priority = task.Priority(priority)
	t.Status = task.Status(status)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()

	var opponent common.Party
	if err := decodeAll(details, &t.Details, docs, &t.Documents, related, &t.RelatedParties,
		owners, &t.Owners, display, &t.Display); err != nil {
		return nil, err
	}
	if len(opp) > 0 {
		if err := decodeJSON(opp, &opponent); err != nil {
			return nil, err
		}
		t.Opponent = &opponent
	}
	if len(t.Details) == 0 {
		t.Details = nil
	}
	if len(t.Documents) == 0 {
		t.Documents = nil
	}
	return &t, nil
}

//Personal.AI order the ending
