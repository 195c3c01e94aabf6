package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

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

// TaskRepository stores tasks and issues deferred-billing ids.
type TaskRepository struct {
	baseRepo
	seq SequencerOptions
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *sql.DB, log logging.Logger, seq SequencerOptions) *TaskRepository {
	if seq.MaxRetries < 1 {
		seq.MaxRetries = 5
	}
	if seq.Backoff <= 0 {
		seq.Backoff = 20 * time.Millisecond
	}
	return &TaskRepository{baseRepo: newBase(db, log, "sqlite_task_repo"), seq: seq}
}

var (
	_ task.Repository = (*TaskRepository)(nil)
	_ task.Sequencer  = (*TaskRepository)(nil)
)

func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	if err := r.insert(ctx, r.conn(ctx), t); err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodeConflict, "task %s already exists", t.ID)
		}
		if errors.GetCode(err) != errors.CodeUnknown {
			return err
		}
		return r.dbErr("TaskRepository.Create", err)
	}
	return nil
}

func (r *TaskRepository) insert(ctx context.Context, q DBTX, t *task.Task) error {
	doc, err := encodeDoc(t)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO tasks (id, task_type, status, assignee_id, related_task_id, created_at, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), string(t.Status), t.Assignee.ID, t.RelatedTaskID(), formatTime(t.CreatedAt), doc)
	return err
}

// CreateSequenced allocates the next deferred-billing number and inserts the
// task built for it in the same write transaction.
func (r *TaskRepository) CreateSequenced(ctx context.Context, build func(id string) (*task.Task, error)) (*task.Task, error) {
	for attempt := 1; ; attempt++ {
		var created *task.Task
		err := WithinTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO sequences (name, value) VALUES (?, 0)`, task.SequenceName); err != nil {
				return err
			}
			var n int64
			if err := tx.QueryRowContext(ctx,
				`UPDATE sequences SET value = value + 1 WHERE name = ? RETURNING value`,
				task.SequenceName).Scan(&n); err != nil {
				return err
			}
			t, err := build(task.FormatSequenceID(n))
			if err != nil {
				return err
			}
			if err := r.insert(ctx, tx, t); err != nil {
				return err
			}
			created = t
			return nil
		})
		if err == nil {
			return created, nil
		}

		switch {
		case isBusy(err) && attempt < r.seq.MaxRetries:
			if r.seq.Observer != nil {
				r.seq.Observer.SequencerRetried("sqlite")
			}
			r.log.Warn("sequence allocation busy, retrying",
				logging.Int("attempt", attempt),
				logging.Err(err))
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeSequenceContention, "sequence allocation cancelled")
			case <-time.After(r.seq.Backoff * time.Duration(attempt)):
			}
		case isBusy(err):
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

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	var doc string
	err := r.conn(ctx).QueryRowContext(ctx, `SELECT doc FROM tasks WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.ErrCodeTaskNotFound, "task %s not found", id)
	}
	if err != nil {
		return nil, r.dbErr("TaskRepository.GetByID", err)
	}
	var t task.Task
	if err := decodeDoc(doc, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, userID string) ([]*task.Task, error) {
	return r.list(ctx, "TaskRepository.ListByAssignee",
		`SELECT doc FROM tasks WHERE assignee_id = ? ORDER BY created_at, id`, userID)
}

func (r *TaskRepository) ListByStatus(ctx context.Context, status task.Status, userID string) ([]*task.Task, error) {
	if userID == "" {
		return r.list(ctx, "TaskRepository.ListByStatus",
			`SELECT doc FROM tasks WHERE status = ? ORDER BY created_at, id`, string(status))
	}
	return r.list(ctx, "TaskRepository.ListByStatus",
		`SELECT doc FROM tasks WHERE status = ? AND assignee_id = ? ORDER BY created_at, id`,
		string(status), userID)
}

func (r *TaskRepository) FindByRelatedTask(ctx context.Context, relatedTaskID string, typ task.Type) ([]*task.Task, error) {
	return r.list(ctx, "TaskRepository.FindByRelatedTask",
		`SELECT doc FROM tasks WHERE related_task_id = ? AND task_type = ? ORDER BY created_at, id`,
		relatedTaskID, string(typ))
}

func (r *TaskRepository) list(ctx context.Context, op, query string, args ...any) ([]*task.Task, error) {
	out := make([]*task.Task, 0)
	err := queryDocs(ctx, r.conn(ctx), query, args, func(doc string) error {
		var t task.Task
		if err := decodeDoc(doc, &t); err != nil {
			return err
		}
		out = append(out, &t)
		return nil
	})
	if err != nil {
		return nil, r.dbErr(op, err)
	}
	return out, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch task.Patch) error {
	return WithinTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		t, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(t, time.Now().UTC())
		doc, err := encodeDoc(t)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE tasks SET status = ?, assignee_id = ?, related_task_id = ?, doc = ?
			WHERE id = ?`,
			string(t.Status), t.Assignee.ID, t.RelatedTaskID(), doc, id)
		if err != nil {
			return r.dbErr("TaskRepository.Update", err)
		}
		return nil
	})
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return r.dbErr("TaskRepository.Delete", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Newf(errors.ErrCodeTaskNotFound, "task %s not found", id)
	}
	return nil
}

//Personal.AI order the ending
