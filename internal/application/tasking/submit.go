package tasking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/application/billing"
	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/internal/domain/suit"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────────────────────────────────────

// TrademarkInput carries the new application of a trademark application task.
type TrademarkInput struct {
	BrandText       string     `json:"brand_text"`
	NiceSelection   string     `json:"nice_selection"`
	Country         string     `json:"country,omitempty"`
	ApplicationDate *time.Time `json:"application_date,omitempty"`
}

// BillingInput carries the billing choice of a submission.
type BillingInput struct {
	Free             bool                `json:"free"`
	Fee              *accrual.FeeInput   `json:"fee,omitempty"`
	OfficialFeeParty *common.Party       `json:"official_fee_party,omitempty"`
	ServiceFeeParty  *common.Party       `json:"service_fee_party,omitempty"`
	Files            []common.FileUpload `json:"files,omitempty"`
}

// SubmitInput is everything the operator entered on the work-item form.
type SubmitInput struct {
	TaskType    string         `json:"task_type"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Priority    string         `json:"priority,omitempty"`
	Assignee    *task.Assignee `json:"assignee,omitempty"`

	// AssetID links an existing record. BulletinStub links a record that was
	// found in a bulletin and has not been stored yet. BulletinID links a
	// bulletin entry by id.
	AssetID      string       `json:"asset_id,omitempty"`
	BulletinStub *asset.Asset `json:"bulletin_stub,omitempty"`
	BulletinID   string       `json:"bulletin_id,omitempty"`

	RelatedParties []common.Party  `json:"related_parties,omitempty"`
	Opponent       *common.Party   `json:"opponent,omitempty"`
	Trademark      *TrademarkInput `json:"trademark,omitempty"`

	OfficialDueDate    *time.Time `json:"official_due_date,omitempty"`
	OperationalDueDate *time.Time `json:"operational_due_date,omitempty"`

	Details common.Metadata     `json:"details,omitempty"`
	Files   []common.FileUpload `json:"files,omitempty"`

	// ParentTaskID links a child suit task to the task that opened the suit.
	ParentTaskID string     `json:"parent_task_id,omitempty"`
	Suit         *SuitInput `json:"suit,omitempty"`

	Billing   BillingInput `json:"billing"`
	CreatedBy string       `json:"-"`
}

// SubmitResult reports the stored task and what happened around it.
type SubmitResult struct {
	Task           *task.Task      `json:"task"`
	Asset          *asset.Asset    `json:"asset,omitempty"`
	AccrualOutcome accrual.Outcome `json:"accrual_outcome"`
	AccrualID      string          `json:"accrual_id,omitempty"`
	DeferredTaskID string          `json:"deferred_task_id,omitempty"`
	SuitID         string          `json:"suit_id,omitempty"`
	Warnings       []Warning       `json:"warnings,omitempty"`
}

// WarningMessages flattens the warnings for API envelopes.
func (r *SubmitResult) WarningMessages() []string {
	if len(r.Warnings) == 0 {
		return nil
	}
	out := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.String()
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// Service creates tasks. It is safe for concurrent use.
type Service interface {
	// Submit validates in, stores the task and runs its side effects.
	Submit(ctx context.Context, in *SubmitInput) (*SubmitResult, error)

	// PreviewDueDates computes due dates without storing anything.
	PreviewDueDates(ctx context.Context, req DueDateRequest) (*DueDatePlan, error)
}

// Config holds orchestration tunables.
type Config struct {
	SideEffectRetries int
	SideEffectBackoff time.Duration
	SideEffectTimeout time.Duration
}

// Deps wires the orchestrator.
type Deps struct {
	Tasks     task.Repository
	Assets    asset.Repository
	Suits     suit.Repository
	Billing   billing.Service
	Files     FileStore
	Rules     AssignmentRuleLookup
	Bulletins BulletinSource
	Publisher EventPublisher
	Calendar  *calendar.Calculator
	Recorder  Recorder
	Logger    logging.Logger
	Config    Config
	Now       func() time.Time
}

type serviceImpl struct {
	tasks     task.Repository
	assets    asset.Repository
	files     FileStore
	rules     AssignmentRuleLookup
	bulletins BulletinSource
	planner   *DueDatePlanner
	runner    *SideEffectRunner
	recorder  Recorder
	logger    logging.Logger
	now       func() time.Time
}

// NewService constructs the orchestrator.
func NewService(d Deps) Service {
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	if d.Recorder == nil {
		d.Recorder = NopRecorder()
	}
	if d.Publisher == nil {
		d.Publisher = NopPublisher()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	logger := d.Logger.Named("tasking")
	exec := NewEffectExecutor(EffectExecutorDeps{
		Tasks:     d.Tasks,
		Assets:    d.Assets,
		Suits:     d.Suits,
		Billing:   d.Billing,
		Publisher: d.Publisher,
		Recorder:  d.Recorder,
		Logger:    logger,
		Now:       d.Now,
	})
	return &serviceImpl{
		tasks:     d.Tasks,
		assets:    d.Assets,
		files:     d.Files,
		rules:     d.Rules,
		bulletins: d.Bulletins,
		planner:   NewDueDatePlanner(d.Calendar, d.Bulletins, logger),
		runner: NewSideEffectRunner(exec, d.Publisher, d.Recorder, logger, RunnerConfig{
			Retries: d.Config.SideEffectRetries,
			Backoff: d.Config.SideEffectBackoff,
			Timeout: d.Config.SideEffectTimeout,
		}),
		recorder: d.Recorder,
		logger:   logger,
		now:      d.Now,
	}
}

// submission is the state of one Submit run.
type submission struct {
	in       *SubmitInput
	desc     task.Descriptor
	priority task.Priority
	assignee task.Assignee
	asset    *asset.Asset
	// newAsset is set when the asset has to be stored before the task.
	newAsset bool
	plan     DueDatePlan
	warnings []Warning
}

func (s *submission) warn(step, format string, args ...interface{}) {
	s.warnings = append(s.warnings, Warning{Step: step, Message: fmt.Sprintf(format, args...)})
}

func (s *serviceImpl) Submit(ctx context.Context, in *SubmitInput) (res *SubmitResult, err error) {
	start := s.now()
	typeLabel := "unknown"
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		s.recorder.SubmitObserved(typeLabel, result, s.now().Sub(start))
	}()

	if in == nil {
		return nil, errors.InvalidParam("submission is empty")
	}
	sub, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	typeLabel = string(sub.desc.Type)

	if err := s.resolveAsset(ctx, sub); err != nil {
		return nil, err
	}
	sub.assignee = s.resolveAssignee(ctx, sub)
	if err := s.planDueDates(ctx, sub); err != nil {
		return nil, err
	}

	// Writes start here.
	if err := s.persistAsset(ctx, sub); err != nil {
		return nil, err
	}

	t, err := s.buildTask(ctx, sub)
	if err != nil {
		return nil, err
	}
	t.Documents = s.uploadAll(ctx, sub, t.ID)

	if err := s.tasks.Create(ctx, t); err != nil {
		s.logger.Error("task persist failed",
			logging.String("task_id", t.ID),
			logging.String("task_type", string(t.Type)),
			logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeTaskPersistFailed, "failed to store task")
	}
	s.logger.Info("task created",
		logging.String("task_id", t.ID),
		logging.String("task_type", string(t.Type)),
		logging.String("assignee_id", t.Assignee.ID),
		logging.String("asset_id", t.AssetID))

	res = &SubmitResult{
		Task:           t,
		Asset:          sub.asset,
		AccrualOutcome: accrual.Decide(accrual.DecisionInput{Free: in.Billing.Free, Fee: in.Billing.Fee}),
	}

	report := s.runner.Run(ctx, s.plan(sub, t, res.AccrualOutcome))
	if r, ok := report.Results[EffectAccrual]; ok && r.Billing != nil {
		res.AccrualID = r.Billing.AccrualID
		res.DeferredTaskID = r.Billing.DeferredTaskID
	}
	if r, ok := report.Results[EffectSuit]; ok {
		res.SuitID = r.SuitID
	}
	res.Warnings = append(sub.warnings, report.Warnings...)
	return res, nil
}

func (s *serviceImpl) PreviewDueDates(ctx context.Context, req DueDateRequest) (*DueDatePlan, error) {
	if _, ok := task.Describe(req.TaskType); !ok && req.Official == nil {
		return nil, errors.Newf(errors.ErrCodeTaskTypeUnknown, "unknown task type %q", req.TaskType)
	}
	if err := ValidateExplicit(req.Official, req.Operational); err != nil {
		return nil, err
	}
	plan := s.planner.Plan(ctx, req)
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ── Validation ──

// validate runs every check that does not need a write.
func (s *serviceImpl) validate(ctx context.Context, in *SubmitInput) (*submission, error) {
	typ, err := task.ParseType(in.TaskType)
	if err != nil {
		return nil, err
	}
	sub := &submission{in: in, desc: task.MustDescribe(typ)}

	if sub.priority, err = task.ParsePriority(in.Priority); err != nil {
		return nil, err
	}
	if err := accrual.ValidateDecisionInput(accrual.DecisionInput{Free: in.Billing.Free, Fee: in.Billing.Fee}); err != nil {
		return nil, err
	}
	if sub.desc.RelatedParty == task.PartyRequired && len(nonEmptyParties(in.RelatedParties)) == 0 {
		return nil, errors.Newf(errors.ErrCodeRelatedPartyRequired, "%s requires at least one related party", sub.desc.Name)
	}
	if sub.desc.Suit == task.SuitChild && strings.TrimSpace(in.ParentTaskID) == "" {
		return nil, errors.Validation(fmt.Sprintf("%s requires the parent suit task", sub.desc.Name))
	}
	if err := ValidateExplicit(in.OfficialDueDate, in.OperationalDueDate); err != nil {
		return nil, err
	}
	if in.Assignee != nil && strings.TrimSpace(in.Assignee.ID) != "" && s.rules != nil {
		rule, err := s.rules.GetAssignmentRule(ctx, typ)
		if err == nil && !rule.Permits(in.Assignee.ID) {
			return nil, errors.Newf(errors.ErrCodeAssignmentNotAllowed,
				"assignee %s is not permitted for %s", in.Assignee.ID, sub.desc.Name)
		}
	}

	if sub.desc.AssetCreation == task.AssetCreateTrademark {
		if in.Trademark == nil {
			return nil, errors.Validation("trademark application requires the brand and nice selection")
		}
		a, err := asset.NewTrademark(asset.NewTrademarkParams{
			BrandText:       in.Trademark.BrandText,
			NiceSelection:   in.Trademark.NiceSelection,
			Applicants:      nonEmptyParties(in.RelatedParties),
			Country:         in.Trademark.Country,
			ApplicationDate: in.Trademark.ApplicationDate,
		}, s.now().UTC())
		if err != nil {
			return nil, err
		}
		sub.asset = a
		sub.newAsset = true
	}
	return sub, nil
}

// ── Asset ──

// resolveAsset loads the linked asset. A bulletin id without a stub is
// turned into a stub; failing to read it is a warning.
func (s *serviceImpl) resolveAsset(ctx context.Context, sub *submission) error {
	if sub.asset != nil {
		return nil
	}
	in := sub.in
	switch {
	case in.BulletinStub != nil:
		stub := in.BulletinStub.Clone()
		if !stub.IsBulletinStub() {
			return errors.New(errors.ErrCodeBulletinPromoteFailed, "linked bulletin record has an id or a non-bulletin source")
		}
		sub.asset = stub
	case strings.TrimSpace(in.AssetID) != "":
		a, err := s.assets.GetByID(ctx, in.AssetID)
		if err != nil {
			return err
		}
		sub.asset = a
	case strings.TrimSpace(in.BulletinID) != "" && s.bulletins != nil:
		b, err := s.bulletins.FetchBulletin(ctx, in.BulletinID)
		if err != nil {
			s.logger.Warn("bulletin lookup failed",
				logging.String("bulletin_id", in.BulletinID),
				logging.Err(err))
			sub.warn(StepBulletin, "bulletin %s could not be read; the task is not linked to a record", in.BulletinID)
			return nil
		}
		sub.asset = b.ToStub()
	}
	return nil
}

// persistAsset stores a new trademark or promotes a bulletin stub. A stub
// whose application number is already recorded binds to that record.
func (s *serviceImpl) persistAsset(ctx context.Context, sub *submission) error {
	a := sub.asset
	switch {
	case a == nil:
		return nil
	case sub.newAsset:
		if err := s.assets.Create(ctx, a); err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "failed to store trademark application")
		}
		s.logger.Info("trademark application recorded",
			logging.String("asset_id", a.ID),
			logging.String("brand", a.BrandText))
		return nil
	case a.IsBulletinStub():
		existing, err := s.assets.FindByApplicationNumber(ctx, a.ApplicationNumber)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeBulletinPromoteFailed, "failed to look up bulletin record")
		}
		if existing != nil {
			sub.asset = existing
			return nil
		}
		promoted, err := asset.PromoteBulletin(a, s.now().UTC())
		if err != nil {
			return err
		}
		if err := s.assets.Create(ctx, promoted); err != nil {
			return errors.Wrap(err, errors.ErrCodeBulletinPromoteFailed, "failed to store bulletin record")
		}
		s.logger.Info("bulletin record promoted",
			logging.String("asset_id", promoted.ID),
			logging.String("application_number", promoted.ApplicationNumber))
		sub.asset = promoted
	}
	return nil
}

// ── Due dates ──

// planDueDates computes the task's dates from the resolved, not yet stored,
// asset and rejects an operational date after the official one.
func (s *serviceImpl) planDueDates(ctx context.Context, sub *submission) error {
	in := sub.in
	plan := s.planner.Plan(ctx, DueDateRequest{
		TaskType:    sub.desc.Type,
		Asset:       sub.asset,
		BulletinID:  in.BulletinID,
		Official:    in.OfficialDueDate,
		Operational: in.OperationalDueDate,
	})
	if err := plan.Validate(); err != nil {
		return err
	}
	sub.plan = plan
	sub.warnings = append(sub.warnings, plan.Warnings...)
	return nil
}

// ── Assignee ──

func (s *serviceImpl) resolveAssignee(ctx context.Context, sub *submission) task.Assignee {
	if a := sub.in.Assignee; a != nil && strings.TrimSpace(a.ID) != "" {
		return *a
	}
	if s.rules == nil {
		return task.Assignee{}
	}
	rule, err := s.rules.GetAssignmentRule(ctx, sub.desc.Type)
	if err != nil {
		s.logger.Warn("assignment rule lookup failed",
			logging.String("task_type", string(sub.desc.Type)),
			logging.Err(err))
		sub.warn(StepAssignee, "assignment rule could not be read; the task is unassigned")
		return task.Assignee{}
	}
	if id := rule.PrimaryAssignee(); id != "" {
		return task.Assignee{ID: id}
	}
	return task.Assignee{}
}

// ── Task ──

func (s *serviceImpl) buildTask(ctx context.Context, sub *submission) (*task.Task, error) {
	in, desc, a := sub.in, sub.desc, sub.asset
	now := s.now().UTC()

	t := &task.Task{
		ID:             string(common.NewID()),
		Type:           desc.Type,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Priority:       sub.priority,
		Assignee:       sub.assignee,
		Status:         task.StatusOpen,
		RelatedParties: nonEmptyParties(in.RelatedParties),
		CreatedBy:      in.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for k, v := range in.Details {
		t.SetDetail(k, v)
	}

	var brand, assetTitle string
	if a != nil {
		t.AssetID = a.ID
		brand = a.BrandText
		assetTitle = a.DisplayTitle()
		t.Display = task.DisplayFields{
			ApplicationNumber: a.ApplicationNumber,
			AssetTitle:        assetTitle,
			ApplicantName:     a.PrimaryApplicantName(),
		}
		if desc.RelatedParty == task.PartyInheritOwners {
			t.Owners = a.Owners()
		}
	}
	if t.Title == "" {
		t.Title = desc.DefaultTitle(brand, assetTitle)
	}

	if desc.RecordsOpponent {
		switch {
		case in.Opponent != nil && !in.Opponent.IsZero():
			op := *in.Opponent
			t.Opponent = &op
		case a != nil && a.Ownership == asset.OwnershipThirdParty:
			if owners := a.Owners(); len(owners) > 0 {
				t.Opponent = &owners[0]
			}
		}
	}

	if desc.Suit == task.SuitChild {
		t.SetDetail(task.DetailRelatedTaskID, in.ParentTaskID)
	}

	plan := sub.plan
	t.OfficialDueDate = plan.Official
	t.OperationalDueDate = plan.Operational
	if plan.RenewalDate != nil {
		day := plan.RenewalDate.Format("2006-01-02")
		t.SetDetail(task.DetailRenewalDate, day)
		if desc.AppendRenewalDate {
			t.Description = appendLine(t.Description, "Renewal date: "+day)
		}
	}
	if plan.BulletinDate != nil {
		t.SetDetail(task.DetailBulletinDate, plan.BulletinDate.Format("2006-01-02"))
	}
	if plan.BulletinNo != "" {
		t.SetDetail(task.DetailBulletinNo, plan.BulletinNo)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// uploadAll stores the task's attachments under tasks/<id>/. Failed uploads
// are skipped with a warning.
func (s *serviceImpl) uploadAll(ctx context.Context, sub *submission, taskID string) []common.Document {
	files := sub.in.Files
	if len(files) == 0 {
		return nil
	}
	if s.files == nil {
		sub.warn(StepUpload, "file storage is not configured; %d attachment(s) were not stored", len(files))
		return nil
	}
	docs := make([]common.Document, 0, len(files))
	for _, f := range files {
		path := fmt.Sprintf("tasks/%s/%s", taskID, common.SafeFileName(f.Name))
		doc, err := s.files.Upload(ctx, path, f)
		if err != nil {
			s.logger.Warn("attachment upload failed",
				logging.String("task_id", taskID),
				logging.String("file", f.Name),
				logging.Err(err))
			sub.warn(StepUpload, "upload of %q failed; the file was not attached", f.Name)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// plan lists the post-commit effects of t in execution order.
func (s *serviceImpl) plan(sub *submission, t *task.Task, outcome accrual.Outcome) []SideEffect {
	var effects []SideEffect
	if sub.desc.Suit != task.SuitNone {
		effects = append(effects, SideEffect{
			Kind:         EffectSuit,
			TaskID:       t.ID,
			ParentTaskID: sub.in.ParentTaskID,
			Suit:         sub.in.Suit,
			Task:         t,
		})
	}
	if t.AssetID != "" {
		effects = append(effects, SideEffect{Kind: EffectAssetHistory, TaskID: t.ID, Task: t})
	}
	b := sub.in.Billing
	effects = append(effects,
		SideEffect{
			Kind:   EffectAccrual,
			TaskID: t.ID,
			Billing: &billing.ApplyRequest{
				Free:             b.Free,
				Fee:              b.Fee,
				OfficialFeeParty: b.OfficialFeeParty,
				ServiceFeeParty:  b.ServiceFeeParty,
				Files:            b.Files,
				CreatedBy:        sub.in.CreatedBy,
			},
			Outcome: outcome,
			Task:    t,
		},
		SideEffect{Kind: EffectTaskCreatedEvent, TaskID: t.ID, Outcome: outcome, Task: t},
	)
	return effects
}

func nonEmptyParties(parties []common.Party) []common.Party {
	out := make([]common.Party, 0, len(parties))
	for _, p := range parties {
		if !p.IsZero() {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func appendLine(text, line string) string {
	if text == "" {
		return line
	}
	return text + "\n" + line
}

//Personal.AI order the ending
