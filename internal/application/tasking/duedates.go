package tasking

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// DueDateRequest describes what the planner may use to compute due dates.
// An explicit Official is kept as given. An explicit Operational is walked
// back to a working day.
type DueDateRequest struct {
	TaskType task.Type `json:"task_type"`

	// Asset supplies the renewal base and bulletin reference.
	Asset *asset.Asset `json:"-"`
	// BaseDate overrides the asset's renewal base.
	BaseDate *time.Time `json:"base_date,omitempty"`
	// BulletinID is fetched when no bulletin date is known.
	BulletinID   string     `json:"bulletin_id,omitempty"`
	BulletinDate *time.Time `json:"bulletin_date,omitempty"`

	Official    *time.Time `json:"official_due_date,omitempty"`
	Operational *time.Time `json:"operational_due_date,omitempty"`
}

// DueDatePlan is the planner's output. Nil dates mean the task carries none.
type DueDatePlan struct {
	Official    *time.Time `json:"official_due_date,omitempty"`
	Operational *time.Time `json:"operational_due_date,omitempty"`

	// RenewalDate is the rolled-forward renewal date for renewal types.
	RenewalDate *time.Time `json:"renewal_date,omitempty"`
	// BulletinDate is the publication date used for opposition types.
	BulletinDate *time.Time `json:"bulletin_date,omitempty"`
	BulletinNo   string     `json:"bulletin_no,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// DueDatePlanner applies the due-date strategy of a task type.
type DueDatePlanner struct {
	calc      *calendar.Calculator
	bulletins BulletinSource
	logger    logging.Logger
}

// NewDueDatePlanner returns a planner. bulletins may be nil, in which case
// opposition dates need an explicit bulletin date.
func NewDueDatePlanner(calc *calendar.Calculator, bulletins BulletinSource, logger logging.Logger) *DueDatePlanner {
	if calc == nil {
		calc = calendar.NewCalculator(calendar.Options{})
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DueDatePlanner{calc: calc, bulletins: bulletins, logger: logger}
}

// Calculator returns the underlying calculator.
func (p *DueDatePlanner) Calculator() *calendar.Calculator { return p.calc }

// ValidateExplicit rejects an explicit operational date after the official one.
func ValidateExplicit(official, operational *time.Time) error {
	if official != nil && operational != nil && operational.After(*official) {
		return errors.Validation("operational due date must not be after the official due date")
	}
	return nil
}

// Plan computes the due dates for req. Lookup failures of the bulletin source
// are reported as warnings and leave the dates empty.
func (p *DueDatePlanner) Plan(ctx context.Context, req DueDateRequest) DueDatePlan {
	var plan DueDatePlan

	var computed *calendar.DueDates
	if req.Official != nil {
		off := p.calc.Normalize(*req.Official)
		computed = &calendar.DueDates{Official: off, Operational: p.calc.OperationalDate(off)}
	} else {
		desc, ok := task.Describe(req.TaskType)
		if ok {
			switch desc.DueDate {
			case task.DueDateRenewal:
				base := req.BaseDate
				if base == nil && req.Asset != nil {
					base = req.Asset.RenewalBase()
				}
				dd := p.calc.Renewal(base)
				computed = &dd
				plan.RenewalDate = timePtr(dd.Official)
			case task.DueDateOpposition:
				computed = p.opposition(ctx, req, &plan)
			}
		}
	}

	if computed != nil {
		plan.Official = timePtr(computed.Official)
		plan.Operational = timePtr(computed.Operational)
	}
	if req.Operational != nil {
		plan.Operational = timePtr(p.calc.PreviousWorkingDay(*req.Operational))
	}
	return plan
}

// Validate rejects a plan whose operational date falls after the official one.
func (p DueDatePlan) Validate() error {
	return ValidateExplicit(p.Official, p.Operational)
}

func (p *DueDatePlanner) opposition(ctx context.Context, req DueDateRequest, plan *DueDatePlan) *calendar.DueDates {
	date := req.BulletinDate
	bulletinID := req.BulletinID
	if ref := bulletinRef(req.Asset); ref != nil {
		plan.BulletinNo = ref.No
		if date == nil {
			date = ref.Date
		}
		if bulletinID == "" {
			bulletinID = ref.ID
		}
	}

	if date == nil && bulletinID != "" {
		if p.bulletins == nil {
			plan.Warnings = append(plan.Warnings, Warning{
				Step:    StepDueDates,
				Message: "bulletin source is not configured; due dates were not computed",
			})
			return nil
		}
		b, err := p.bulletins.FetchBulletin(ctx, bulletinID)
		if err != nil {
			p.logger.Warn("bulletin lookup failed",
				logging.String("bulletin_id", bulletinID),
				logging.Err(err))
			plan.Warnings = append(plan.Warnings, Warning{
				Step:    StepDueDates,
				Message: fmt.Sprintf("bulletin %s could not be read; due dates were not computed", bulletinID),
			})
			return nil
		}
		date = timePtr(b.BulletinDate)
		if plan.BulletinNo == "" {
			plan.BulletinNo = b.BulletinNo
		}
	}

	if date == nil || date.IsZero() {
		plan.Warnings = append(plan.Warnings, Warning{
			Step:    StepDueDates,
			Message: "no bulletin date is known; due dates were not computed",
		})
		return nil
	}
	plan.BulletinDate = timePtr(p.calc.Normalize(*date))
	dd := p.calc.Opposition(*date)
	return &dd
}

func bulletinRef(a *asset.Asset) *asset.BulletinRef {
	if a == nil {
		return nil
	}
	return a.Bulletin
}

func timePtr(t time.Time) *time.Time { return &t }

//Personal.AI order the ending
