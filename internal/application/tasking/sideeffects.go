package tasking

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/application/billing"
	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/suit"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Side effects
// ─────────────────────────────────────────────────────────────────────────────

// SideEffectKind names one post-commit step.
type SideEffectKind string

const (
	EffectSuit             SideEffectKind = "suit"
	EffectAssetHistory     SideEffectKind = "asset_history"
	EffectAccrual          SideEffectKind = "accrual"
	EffectTaskCreatedEvent SideEffectKind = "task_created_event"
)

// Warning steps.
const (
	StepDueDates = "due_dates"
	StepUpload   = "upload"
	StepBulletin = "bulletin"
	StepAssignee = "assignee"
)

// Warning is a non-fatal problem met while submitting a task.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

func (w Warning) String() string { return w.Step + ": " + w.Message }

// SuitInput carries the court data of a parent suit task.
type SuitInput struct {
	SuitType   string `json:"suit_type,omitempty"`
	Court      string `json:"court,omitempty"`
	FileNumber string `json:"file_number,omitempty"`
}

// SideEffect is one step to run after the task is stored. It is
// self-contained so that the worker can replay it from the failure topic.
type SideEffect struct {
	Kind         SideEffectKind        `json:"kind"`
	TaskID       string                `json:"task_id"`
	ParentTaskID string                `json:"parent_task_id,omitempty"`
	Suit         *SuitInput            `json:"suit,omitempty"`
	Billing      *billing.ApplyRequest `json:"billing,omitempty"`
	Outcome      accrual.Outcome       `json:"outcome,omitempty"`

	// Task is the stored task when the effect runs in-process. The worker
	// loads it by TaskID.
	Task *task.Task `json:"-"`
}

// EffectResult is what a successful effect produced.
type EffectResult struct {
	SuitID   string
	Billing  *billing.ApplyResult
	Skipped  bool
	Warnings []string
}

// SideEffectFailure is published for effects that exhausted their retries.
type SideEffectFailure struct {
	Effect   SideEffect `json:"effect"`
	Error    string     `json:"error"`
	Attempts int        `json:"attempts"`
	FailedAt time.Time  `json:"failed_at"`
}

// Executor runs a single side effect.
type Executor interface {
	Execute(ctx context.Context, eff SideEffect) (EffectResult, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Executor
// ─────────────────────────────────────────────────────────────────────────────

// EffectExecutorDeps wires an EffectExecutor.
type EffectExecutorDeps struct {
	Tasks     task.Repository
	Assets    asset.Repository
	Suits     suit.Repository
	Billing   billing.Service
	Publisher EventPublisher
	Recorder  Recorder
	Logger    logging.Logger
	Now       func() time.Time
}

// EffectExecutor runs side effects against the stores. Every effect checks
// whether it already happened, so replays are harmless.
type EffectExecutor struct {
	tasks     task.Repository
	assets    asset.Repository
	suits     suit.Repository
	billing   billing.Service
	publisher EventPublisher
	recorder  Recorder
	logger    logging.Logger
	now       func() time.Time
}

// NewEffectExecutor constructs an EffectExecutor.
func NewEffectExecutor(d EffectExecutorDeps) *EffectExecutor {
	if d.Publisher == nil {
		d.Publisher = NopPublisher()
	}
	if d.Recorder == nil {
		d.Recorder = NopRecorder()
	}
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &EffectExecutor{
		tasks:     d.Tasks,
		assets:    d.Assets,
		suits:     d.Suits,
		billing:   d.Billing,
		publisher: d.Publisher,
		recorder:  d.Recorder,
		logger:    d.Logger,
		now:       d.Now,
	}
}

// Execute runs eff once.
func (e *EffectExecutor) Execute(ctx context.Context, eff SideEffect) (EffectResult, error) {
	t := eff.Task
	if t == nil {
		loaded, err := e.tasks.GetByID(ctx, eff.TaskID)
		if err != nil {
			return EffectResult{}, err
		}
		t = loaded
	}

	switch eff.Kind {
	case EffectSuit:
		return e.suit(ctx, t, eff)
	case EffectAssetHistory:
		return e.assetHistory(ctx, t)
	case EffectAccrual:
		return e.accrual(ctx, t, eff)
	case EffectTaskCreatedEvent:
		return e.taskCreated(ctx, t, eff)
	default:
		return EffectResult{}, errors.InvalidParam(fmt.Sprintf("unknown side effect %q", eff.Kind))
	}
}

func (e *EffectExecutor) suit(ctx context.Context, t *task.Task, eff SideEffect) (EffectResult, error) {
	desc := task.MustDescribe(t.Type)

	var s *suit.Suit
	var note string
	switch desc.Suit {
	case task.SuitParent:
		existing, err := e.suits.FindByTaskID(ctx, t.ID)
		if err != nil {
			return EffectResult{}, err
		}
		s = existing
		if s == nil {
			in := eff.Suit
			if in == nil {
				in = &SuitInput{}
			}
			var client *common.Party
			if len(t.RelatedParties) > 0 {
				p := t.RelatedParties[0]
				client = &p
			}
			s, err = suit.NewSuit(suit.NewSuitParams{
				TaskID:     t.ID,
				Title:      t.Title,
				SuitType:   in.SuitType,
				Court:      in.Court,
				FileNumber: in.FileNumber,
				Client:     client,
				Opponent:   t.Opponent,
				AssetID:    t.AssetID,
			}, e.now().UTC())
			if err != nil {
				return EffectResult{}, err
			}
			if err := e.suits.Create(ctx, s); err != nil {
				return EffectResult{}, errors.Wrap(err, errors.ErrCodeSuitCreateFailed, "failed to open suit")
			}
		}
		note = "Suit opened: " + t.Title
	case task.SuitChild:
		parent, err := e.suits.FindByTaskID(ctx, eff.ParentTaskID)
		if err != nil {
			return EffectResult{}, err
		}
		if parent == nil {
			return EffectResult{}, errors.Newf(errors.ErrCodeSuitNotFound, "no suit was opened by task %s", eff.ParentTaskID)
		}
		s = parent
		note = t.Title
	default:
		return EffectResult{Skipped: true}, nil
	}

	txs, err := e.suits.ListTransactions(ctx, s.ID)
	if err != nil {
		return EffectResult{}, err
	}
	for _, tx := range txs {
		if tx.TaskID == t.ID {
			return EffectResult{SuitID: s.ID, Skipped: true}, nil
		}
	}
	tx, err := suit.NewTransaction(s.ID, t.ID, note, t.Documents, e.now().UTC())
	if err != nil {
		return EffectResult{}, err
	}
	if err := e.suits.AddTransaction(ctx, tx); err != nil {
		return EffectResult{}, err
	}
	return EffectResult{SuitID: s.ID}, nil
}

func (e *EffectExecutor) assetHistory(ctx context.Context, t *task.Task) (EffectResult, error) {
	if t.AssetID == "" {
		return EffectResult{Skipped: true}, nil
	}
	txs, err := e.assets.ListTransactions(ctx, t.AssetID)
	if err != nil {
		return EffectResult{}, err
	}
	for _, tx := range txs {
		if tx.TaskID == t.ID {
			return EffectResult{Skipped: true}, nil
		}
	}
	tx, err := asset.NewTransaction(t.AssetID, t.ID, string(t.Type), t.Title, t.Documents, e.now().UTC())
	if err != nil {
		return EffectResult{}, err
	}
	return EffectResult{}, e.assets.AddTransaction(ctx, tx)
}

func (e *EffectExecutor) accrual(ctx context.Context, t *task.Task, eff SideEffect) (EffectResult, error) {
	req := billing.ApplyRequest{}
	if eff.Billing != nil {
		req = *eff.Billing
	}
	req.Origin = t
	res, err := e.billing.Apply(ctx, &req)
	if err != nil {
		return EffectResult{}, err
	}
	if !res.Replayed {
		e.recorder.AccrualDecided(string(res.Outcome))
	}
	return EffectResult{Billing: res, Skipped: res.Replayed, Warnings: res.Warnings}, nil
}

func (e *EffectExecutor) taskCreated(ctx context.Context, t *task.Task, eff SideEffect) (EffectResult, error) {
	payload := TaskCreatedPayload{
		TaskID:          t.ID,
		TaskType:        string(t.Type),
		Title:           t.Title,
		AssetID:         t.AssetID,
		AssigneeID:      t.Assignee.ID,
		OfficialDueDate: t.OfficialDueDate,
		AccrualOutcome:  string(eff.Outcome),
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	}
	return EffectResult{}, e.publisher.Publish(ctx, EventTaskCreated, t.ID, payload)
}

// ─────────────────────────────────────────────────────────────────────────────
// Runner
// ─────────────────────────────────────────────────────────────────────────────

// RunnerConfig bounds the retries of the runner.
type RunnerConfig struct {
	Retries int
	Backoff time.Duration
	Timeout time.Duration
}

// SideEffectRunner runs effects in order, retrying each independently.
type SideEffectRunner struct {
	exec      Executor
	publisher EventPublisher
	recorder  Recorder
	logger    logging.Logger
	cfg       RunnerConfig
	now       func() time.Time
}

// NewSideEffectRunner constructs a runner. Retries below one run each effect
// once.
func NewSideEffectRunner(exec Executor, publisher EventPublisher, recorder Recorder, logger logging.Logger, cfg RunnerConfig) *SideEffectRunner {
	if publisher == nil {
		publisher = NopPublisher()
	}
	if recorder == nil {
		recorder = NopRecorder()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	return &SideEffectRunner{
		exec:      exec,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger.Named("side_effects"),
		cfg:       cfg,
		now:       time.Now,
	}
}

// RunReport collects what the runner did.
type RunReport struct {
	Results  map[SideEffectKind]EffectResult
	Failed   []SideEffectFailure
	Warnings []Warning
}

// Run executes effects on a context detached from ctx's cancellation and
// bounded by the configured timeout.
func (r *SideEffectRunner) Run(ctx context.Context, effects []SideEffect) RunReport {
	report := RunReport{Results: make(map[SideEffectKind]EffectResult, len(effects))}
	if len(effects) == 0 {
		return report
	}

	runCtx := context.WithoutCancel(ctx)
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, r.cfg.Timeout)
		defer cancel()
	}

	for _, eff := range effects {
		res, attempts, err := r.runOne(runCtx, eff)
		if err != nil {
			r.fail(runCtx, &report, eff, attempts, err)
			continue
		}
		report.Results[eff.Kind] = res
		for _, w := range res.Warnings {
			report.Warnings = append(report.Warnings, Warning{Step: string(eff.Kind), Message: w})
		}
	}
	return report
}

func (r *SideEffectRunner) runOne(ctx context.Context, eff SideEffect) (EffectResult, int, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.Retries; attempt++ {
		res, err := r.exec.Execute(ctx, eff)
		if err == nil {
			return res, attempt, nil
		}
		lastErr = err
		if permanent(err) || attempt == r.cfg.Retries {
			return EffectResult{}, attempt, err
		}
		r.logger.Debug("side effect failed, retrying",
			logging.String("kind", string(eff.Kind)),
			logging.String("task_id", eff.TaskID),
			logging.Int("attempt", attempt),
			logging.Err(err))
		select {
		case <-ctx.Done():
			return EffectResult{}, attempt, ctx.Err()
		case <-time.After(r.cfg.Backoff * time.Duration(attempt)):
		}
	}
	return EffectResult{}, r.cfg.Retries, lastErr
}

func (r *SideEffectRunner) fail(ctx context.Context, report *RunReport, eff SideEffect, attempts int, err error) {
	r.recorder.SideEffectFailed(string(eff.Kind))
	r.logger.Error("side effect failed",
		logging.String("kind", string(eff.Kind)),
		logging.String("task_id", eff.TaskID),
		logging.Int("attempts", attempts),
		logging.Err(err))

	failure := SideEffectFailure{Effect: eff, Error: err.Error(), Attempts: attempts, FailedAt: r.now().UTC()}
	report.Failed = append(report.Failed, failure)
	report.Warnings = append(report.Warnings, Warning{
		Step:    string(eff.Kind),
		Message: fmt.Sprintf("%s did not complete after %d attempt(s): %v", eff.Kind, attempts, err),
	})

	if permanent(err) || eff.Kind == EffectTaskCreatedEvent {
		return
	}
	if perr := r.publisher.Publish(ctx, EventSideEffectsFailed, eff.TaskID, failure); perr != nil {
		r.logger.Error("failed side effect could not be handed off",
			logging.String("kind", string(eff.Kind)),
			logging.String("task_id", eff.TaskID),
			logging.Err(perr))
	}
}

// permanent reports errors that a retry cannot fix.
func permanent(err error) bool {
	return errors.IsValidation(err) || errors.IsNotFound(err)
}

//Personal.AI order the ending
