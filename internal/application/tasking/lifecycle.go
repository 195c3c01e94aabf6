package tasking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// LifecycleService operates on stored tasks.
type LifecycleService interface {
	Get(ctx context.Context, id string) (*task.Task, error)
	ListForUser(ctx context.Context, userID string) ([]*task.Task, error)
	ListByStatus(ctx context.Context, status task.Status, userID string) ([]*task.Task, error)
	ChangeStatus(ctx context.Context, id string, status task.Status) (*task.Task, error)
	Assign(ctx context.Context, id string, assignee task.Assignee) (*task.Task, error)
	Complete(ctx context.Context, id string) (*task.Task, error)
	AttachDocument(ctx context.Context, id string, file common.FileUpload) (*task.Task, error)
	DetachDocument(ctx context.Context, id, documentID string) (*task.Task, error)
	Delete(ctx context.Context, id string) error
}

// LifecycleDeps wires the lifecycle service.
type LifecycleDeps struct {
	Tasks  task.Repository
	Files  FileStore
	Rules  AssignmentRuleLookup
	Logger logging.Logger
	Now    func() time.Time
}

type lifecycleServiceImpl struct {
	tasks  task.Repository
	files  FileStore
	rules  AssignmentRuleLookup
	logger logging.Logger
	now    func() time.Time
}

// NewLifecycleService constructs a LifecycleService.
func NewLifecycleService(d LifecycleDeps) LifecycleService {
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &lifecycleServiceImpl{
		tasks:  d.Tasks,
		files:  d.Files,
		rules:  d.Rules,
		logger: d.Logger.Named("task_lifecycle"),
		now:    d.Now,
	}
}

func (s *lifecycleServiceImpl) Get(ctx context.Context, id string) (*task.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("task id is required")
	}
	return s.tasks.GetByID(ctx, id)
}

func (s *lifecycleServiceImpl) ListForUser(ctx context.Context, userID string) ([]*task.Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.InvalidParam("user id is required")
	}
	return s.tasks.ListByAssignee(ctx, userID)
}

func (s *lifecycleServiceImpl) ListByStatus(ctx context.Context, status task.Status, userID string) ([]*task.Task, error) {
	if !status.IsValid() {
		return nil, errors.Newf(errors.ErrCodeInvalidStatus, "unknown task status %q", status)
	}
	return s.tasks.ListByStatus(ctx, status, userID)
}

func (s *lifecycleServiceImpl) ChangeStatus(ctx context.Context, id string, status task.Status) (*task.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := t.Status
	if err := t.ChangeStatus(status, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, id, task.Patch{Status: &t.Status}); err != nil {
		return nil, err
	}
	s.logger.Info("task status changed",
		logging.String("task_id", id),
		logging.String("from", string(from)),
		logging.String("to", string(status)))
	return t, nil
}

func (s *lifecycleServiceImpl) Complete(ctx context.Context, id string) (*task.Task, error) {
	return s.ChangeStatus(ctx, id, task.StatusCompleted)
}

// Assign enforces the assignment rule of the task's type: without manual
// override only the rule's assignees may be chosen.
func (s *lifecycleServiceImpl) Assign(ctx context.Context, id string, assignee task.Assignee) (*task.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.rules != nil && assignee.ID != "" {
		rule, err := s.rules.GetAssignmentRule(ctx, t.Type)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read assignment rule")
		}
		if !rule.Permits(assignee.ID) {
			return nil, errors.Newf(errors.ErrCodeAssignmentNotAllowed,
				"assignee %s is not permitted for %s tasks", assignee.ID, t.Type)
		}
	}
	if err := t.Assign(assignee, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, id, task.Patch{Assignee: &t.Assignee}); err != nil {
		return nil, err
	}
	s.logger.Info("task assigned",
		logging.String("task_id", id),
		logging.String("assignee_id", assignee.ID))
	return t, nil
}

func (s *lifecycleServiceImpl) AttachDocument(ctx context.Context, id string, file common.FileUpload) (*task.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.files == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "file storage is not configured")
	}
	path := fmt.Sprintf("tasks/%s/%s", t.ID, common.SafeFileName(file.Name))
	doc, err := s.files.Upload(ctx, path, file)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileUploadFailed, "failed to store attachment")
	}
	t.AttachDocument(doc, s.now().UTC())
	docs := t.Documents
	if err := s.tasks.Update(ctx, id, task.Patch{Documents: &docs}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *lifecycleServiceImpl) DetachDocument(ctx context.Context, id, documentID string) (*task.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := t.DetachDocument(documentID, s.now().UTC()); err != nil {
		return nil, err
	}
	docs := t.Documents
	if docs == nil {
		docs = []common.Document{}
	}
	if err := s.tasks.Update(ctx, id, task.Patch{Documents: &docs}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *lifecycleServiceImpl) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.InvalidParam("task id is required")
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task deleted", logging.String("task_id", id))
	return nil
}

//Personal.AI order the ending
