// Package tasking hosts the task orchestrator: the submit workflow that
// creates a task together with its asset, due dates and billing, the runner
// for its post-commit side effects, and the lifecycle operations on existing
// tasks.
package tasking

import (
	"context"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// FileStore stores uploaded files.
type FileStore interface {
	Upload(ctx context.Context, path string, file common.FileUpload) (common.Document, error)
	ResolveURL(ctx context.Context, path string) (string, error)
}

// AssignmentRuleLookup returns the assignment rule of a task type. A nil rule
// with a nil error means the type has no rule.
type AssignmentRuleLookup interface {
	GetAssignmentRule(ctx context.Context, typ task.Type) (*task.AssignmentRule, error)
}

// BulletinSource reads third-party bulletin entries. Both methods return
// BUL_001 when the entry does not exist.
type BulletinSource interface {
	FetchBulletin(ctx context.Context, bulletinID string) (*asset.Bulletin, error)
	FindByApplicationNumber(ctx context.Context, applicationNumber string) (*asset.Bulletin, error)
}

// HolidayProvider supplies holidays from an external calendar.
type HolidayProvider interface {
	Holidays(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error)
}

// EventPublisher publishes domain events. eventType is one of the Event*
// constants; key orders events of one aggregate.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
}

// Recorder receives workflow measurements.
type Recorder interface {
	SubmitObserved(taskType, result string, elapsed time.Duration)
	AccrualDecided(outcome string)
	SideEffectFailed(kind string)
}

type nopRecorder struct{}

func (nopRecorder) SubmitObserved(string, string, time.Duration) {}
func (nopRecorder) AccrualDecided(string)                        {}
func (nopRecorder) SideEffectFailed(string)                      {}

// NopRecorder discards measurements.
func NopRecorder() Recorder { return nopRecorder{} }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }

// NopPublisher drops every event. It is used when Kafka is disabled.
func NopPublisher() EventPublisher { return nopPublisher{} }

//Personal.AI order the ending
