// Package billing applies the billing decision of a submitted task: it records
// an accrual when fees are collected up front, or opens a sequentially
// numbered "create accrual" task for the accounting team when billing is
// deferred.
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Ports
// ─────────────────────────────────────────────────────────────────────────────

// FileStore stores proof-of-payment files.
type FileStore interface {
	Upload(ctx context.Context, path string, file common.FileUpload) (common.Document, error)
}

// AssignmentRuleLookup resolves who receives deferred-billing tasks.
type AssignmentRuleLookup interface {
	GetAssignmentRule(ctx context.Context, typ task.Type) (*task.AssignmentRule, error)
}

// EventPublisher publishes billing events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
}

// Event types published by the service.
const (
	EventAccrualCreated  = "accrual.created"
	EventAccrualDeferred = "accrual.deferred"
)

// AccrualCreatedPayload is published after an accrual is stored.
type AccrualCreatedPayload struct {
	AccrualID string          `json:"accrual_id"`
	TaskID    string          `json:"task_id"`
	Total     []accrual.Money `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// AccrualDeferredPayload is published after a deferred-billing task is opened.
type AccrualDeferredPayload struct {
	DeferredTaskID string    `json:"deferred_task_id"`
	OriginTaskID   string    `json:"origin_task_id"`
	AssigneeID     string    `json:"assignee_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────────────────────────────────────

// ApplyRequest carries the billing choice made while submitting Origin.
type ApplyRequest struct {
	Origin           *task.Task          `json:"-"`
	Free             bool                `json:"free"`
	Fee              *accrual.FeeInput   `json:"fee,omitempty"`
	OfficialFeeParty *common.Party       `json:"official_fee_party,omitempty"`
	ServiceFeeParty  *common.Party       `json:"service_fee_party,omitempty"`
	Files            []common.FileUpload `json:"files,omitempty"`
	CreatedBy        string              `json:"created_by,omitempty"`
}

// Decision is the DecisionInput of the request.
func (r *ApplyRequest) Decision() accrual.DecisionInput {
	return accrual.DecisionInput{Free: r.Free, Fee: r.Fee}
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	Outcome        accrual.Outcome `json:"outcome"`
	AccrualID      string          `json:"accrual_id,omitempty"`
	DeferredTaskID string          `json:"deferred_task_id,omitempty"`
	// Replayed is set when an earlier attempt had already applied billing.
	Replayed bool     `json:"replayed,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Config holds billing policy.
type Config struct {
	DefaultAssignee task.Assignee
	DefaultCurrency string
}

// Deps wires the service.
type Deps struct {
	Accruals  accrual.Repository
	Tasks     task.Repository
	Sequencer task.Sequencer
	Files     FileStore
	Rules     AssignmentRuleLookup
	Publisher EventPublisher
	Logger    logging.Logger
	Config    Config
	Now       func() time.Time
}

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// Service applies billing decisions and reads accruals.
type Service interface {
	// Apply records the billing outcome for req.Origin. It is safe to call
	// again for the same task: a second call finds the earlier accrual or
	// deferred task and reports it as replayed.
	Apply(ctx context.Context, req *ApplyRequest) (*ApplyResult, error)

	// Preview computes the per-currency totals of fee without storing anything.
	Preview(fee accrual.FeeInput) ([]accrual.Money, error)

	Get(ctx context.Context, id string) (*accrual.Accrual, error)
	List(ctx context.Context, filter accrual.Filter) ([]*accrual.Accrual, error)
	ListByTask(ctx context.Context, taskID string) ([]*accrual.Accrual, error)
	UpdateStatus(ctx context.Context, id string, status accrual.Status) (*accrual.Accrual, error)
}

type serviceImpl struct {
	accruals  accrual.Repository
	tasks     task.Repository
	sequencer task.Sequencer
	files     FileStore
	rules     AssignmentRuleLookup
	publisher EventPublisher
	logger    logging.Logger
	cfg       Config
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(d Deps) Service {
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Config.DefaultCurrency == "" {
		d.Config.DefaultCurrency = accrual.DefaultCurrency
	}
	return &serviceImpl{
		accruals:  d.Accruals,
		tasks:     d.Tasks,
		sequencer: d.Sequencer,
		files:     d.Files,
		rules:     d.Rules,
		publisher: d.Publisher,
		logger:    d.Logger.Named("billing"),
		cfg:       d.Config,
		now:       d.Now,
	}
}

func (s *serviceImpl) Apply(ctx context.Context, req *ApplyRequest) (*ApplyResult, error) {
	if req == nil || req.Origin == nil || req.Origin.ID == "" {
		return nil, errors.InvalidParam("billing requires a persisted origin task")
	}
	in := req.Decision()
	if err := accrual.ValidateDecisionInput(in); err != nil {
		return nil, err
	}

	switch outcome := accrual.Decide(in); outcome {
	case accrual.OutcomeFree:
		return &ApplyResult{Outcome: outcome}, nil
	case accrual.OutcomeImmediate:
		return s.applyImmediate(ctx, req)
	default:
		return s.applyDeferred(ctx, req)
	}
}

func (s *serviceImpl) applyImmediate(ctx context.Context, req *ApplyRequest) (*ApplyResult, error) {
	res := &ApplyResult{Outcome: accrual.OutcomeImmediate}
	origin := req.Origin

	existing, err := s.accruals.ListByTaskID(ctx, origin.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check existing accruals")
	}
	if len(existing) > 0 {
		res.AccrualID = existing[0].ID
		res.Replayed = true
		return res, nil
	}

	docs := make([]common.Document, 0, len(req.Files))
	for _, f := range req.Files {
		path := fmt.Sprintf("accruals/%s/%s", origin.ID, common.SafeFileName(f.Name))
		doc, err := s.upload(ctx, path, f)
		if err != nil {
			s.logger.Warn("proof-of-payment upload failed, accrual not recorded",
				logging.String("task_id", origin.ID),
				logging.String("file", f.Name),
				logging.Err(err))
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("upload of %q failed; the accrual was not recorded", f.Name))
			return res, nil
		}
		docs = append(docs, doc)
	}

	a, err := accrual.NewAccrual(accrual.NewAccrualParams{
		TaskID:           origin.ID,
		TaskTitle:        origin.Title,
		Fee:              *req.Fee,
		DefaultCurrency:  s.cfg.DefaultCurrency,
		OfficialFeeParty: req.OfficialFeeParty,
		ServiceFeeParty:  req.ServiceFeeParty,
		Files:            docs,
		CreatedBy:        req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	a.CreatedAt = s.now().UTC()
	a.UpdatedAt = a.CreatedAt
	if err := s.accruals.Create(ctx, a); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAccrualCreateFailed, "failed to store accrual")
	}
	res.AccrualID = a.ID

	s.logger.Info("accrual recorded",
		logging.String("accrual_id", a.ID),
		logging.String("task_id", origin.ID),
		logging.String("total", accrual.FormatList(a.TotalAmount)))
	s.publish(ctx, EventAccrualCreated, origin.ID, AccrualCreatedPayload{
		AccrualID: a.ID,
		TaskID:    origin.ID,
		Total:     accrual.CloneList(a.TotalAmount),
		CreatedAt: a.CreatedAt,
	})
	return res, nil
}

func (s *serviceImpl) applyDeferred(ctx context.Context, req *ApplyRequest) (*ApplyResult, error) {
	res := &ApplyResult{Outcome: accrual.OutcomeDeferred}
	origin := req.Origin

	existing, err := s.tasks.FindByRelatedTask(ctx, origin.ID, task.TypeCreateAccrual)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check existing deferred billing tasks")
	}
	if len(existing) > 0 {
		res.DeferredTaskID = existing[0].ID
		res.Replayed = true
		return res, nil
	}

	assignee := s.resolveAssignee(ctx)
	now := s.now().UTC()
	created, err := s.sequencer.CreateSequenced(ctx, func(id string) (*task.Task, error) {
		return buildDeferredTask(id, origin, assignee, req.CreatedBy, now), nil
	})
	if err != nil {
		return nil, err
	}
	res.DeferredTaskID = created.ID

	s.logger.Info("deferred billing task opened",
		logging.String("task_id", created.ID),
		logging.String("origin_task_id", origin.ID),
		logging.String("assignee_id", assignee.ID))
	s.publish(ctx, EventAccrualDeferred, origin.ID, AccrualDeferredPayload{
		DeferredTaskID: created.ID,
		OriginTaskID:   origin.ID,
		AssigneeID:     assignee.ID,
		CreatedAt:      now,
	})
	return res, nil
}

// buildDeferredTask composes the internal task that asks accounting to raise
// the accrual later.
func buildDeferredTask(id string, origin *task.Task, assignee task.Assignee, createdBy string, now time.Time) *task.Task {
	desc := descriptor(task.TypeCreateAccrual)
	t := &task.Task{
		ID:          id,
		Type:        task.TypeCreateAccrual,
		Title:       fmt.Sprintf("%s - %s", desc.Name, origin.Title),
		Description: fmt.Sprintf("Raise the accrual for task %s (%s).", origin.ID, origin.Title),
		Priority:    task.PriorityMedium,
		Assignee:    assignee,
		Status:      task.StatusOpen,
		AssetID:     origin.AssetID,
		Display:     origin.Display,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.SetDetail(task.DetailRelatedTaskID, origin.ID)
	t.SetDetail(task.DetailOriginTitle, origin.Title)
	t.SetDetail(task.DetailOriginType, string(origin.Type))
	return t
}

func descriptor(typ task.Type) task.Descriptor {
	d, _ := task.Describe(typ)
	return d
}

// resolveAssignee picks the first assignee of the create-accrual rule and
// falls back to the configured accounting user.
func (s *serviceImpl) resolveAssignee(ctx context.Context) task.Assignee {
	fallback := s.cfg.DefaultAssignee
	if s.rules == nil {
		return fallback
	}
	rule, err := s.rules.GetAssignmentRule(ctx, task.TypeCreateAccrual)
	if err != nil {
		s.logger.Warn("assignment rule lookup failed, using default assignee",
			logging.String("task_type", string(task.TypeCreateAccrual)),
			logging.Err(err))
		return fallback
	}
	id := rule.PrimaryAssignee()
	if id == "" {
		return fallback
	}
	if id == fallback.ID {
		return fallback
	}
	return task.Assignee{ID: id}
}

func (s *serviceImpl) upload(ctx context.Context, path string, f common.FileUpload) (common.Document, error) {
	if s.files == nil {
		return common.Document{}, errors.New(errors.ErrCodeFeatureDisabled, "file storage is not configured")
	}
	return s.files.Upload(ctx, path, f)
}

func (s *serviceImpl) publish(ctx context.Context, eventType, key string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		s.logger.Warn("event publish failed",
			logging.String("event_type", eventType),
			logging.String("key", key),
			logging.Err(err))
	}
}

// ── Reads ──

func (s *serviceImpl) Preview(fee accrual.FeeInput) ([]accrual.Money, error) {
	fee = fee.Normalized(s.cfg.DefaultCurrency)
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	return accrual.CalculateTotal(fee), nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*accrual.Accrual, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("accrual id is required")
	}
	return s.accruals.GetByID(ctx, id)
}

func (s *serviceImpl) List(ctx context.Context, filter accrual.Filter) ([]*accrual.Accrual, error) {
	return s.accruals.List(ctx, filter)
}

func (s *serviceImpl) ListByTask(ctx context.Context, taskID string) ([]*accrual.Accrual, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, errors.InvalidParam("task id is required")
	}
	return s.accruals.ListByTaskID(ctx, taskID)
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, id string, status accrual.Status) (*accrual.Accrual, error) {
	if !status.IsValid() {
		return nil, errors.Newf(errors.ErrCodeInvalidAccrualStatus, "invalid accrual status %q", status)
	}
	patch := accrual.Patch{Status: &status}
	if status == accrual.StatusPaid {
		patch.RemainingAmount = []accrual.Money{}
	}
	if err := s.accruals.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.accruals.GetByID(ctx, id)
}

//Personal.AI order the ending
