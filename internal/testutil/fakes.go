package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Bulletin source
// ─────────────────────────────────────────────────────────────────────────────

// FakeBulletinSource serves bulletins from memory.
type FakeBulletinSource struct {
	mu        sync.Mutex
	bulletins []*asset.Bulletin

	// Err, when set, is returned by every call.
	Err error
}

// NewFakeBulletinSource returns a source holding bulletins.
func NewFakeBulletinSource(bulletins ...*asset.Bulletin) *FakeBulletinSource {
	return &FakeBulletinSource{bulletins: bulletins}
}

func (f *FakeBulletinSource) FetchBulletin(_ context.Context, id string) (*asset.Bulletin, error) {
	return f.find(func(b *asset.Bulletin) bool { return b.ID == id }, id)
}

func (f *FakeBulletinSource) FindByApplicationNumber(_ context.Context, appNo string) (*asset.Bulletin, error) {
	return f.find(func(b *asset.Bulletin) bool { return b.ApplicationNumber == appNo }, appNo)
}

func (f *FakeBulletinSource) find(match func(*asset.Bulletin) bool, key string) (*asset.Bulletin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, b := range f.bulletins {
		if match(b) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, errors.Newf(errors.ErrCodeBulletinNotFound, "bulletin entry %s not found", key)
}

// ─────────────────────────────────────────────────────────────────────────────
// Event publisher
// ─────────────────────────────────────────────────────────────────────────────

// PublishedEvent is one recorded Publish call.
type PublishedEvent struct {
	Type    string
	Key     string
	Payload interface{}
}

// RecordingPublisher records published events.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent

	Err error
}

// NewRecordingPublisher returns an empty publisher.
func NewRecordingPublisher() *RecordingPublisher { return &RecordingPublisher{} }

func (p *RecordingPublisher) Publish(_ context.Context, eventType, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, PublishedEvent{Type: eventType, Key: key, Payload: payload})
	return nil
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

// Count returns how many events of eventType were published.
func (p *RecordingPublisher) Count(eventType string) int {
	n := 0
	for _, e := range p.Events() {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Holidays
// ─────────────────────────────────────────────────────────────────────────────

// StaticHolidayProvider returns a fixed holiday list.
type StaticHolidayProvider struct {
	Items []calendar.Holiday
	Err   error
	Calls int
}

func (p *StaticHolidayProvider) Holidays(_ context.Context, _, _ time.Time) ([]calendar.Holiday, error) {
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	return append([]calendar.Holiday(nil), p.Items...), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics
// ─────────────────────────────────────────────────────────────────────────────

// RecordingRecorder counts workflow measurements by label.
type RecordingRecorder struct {
	mu          sync.Mutex
	Submits     map[string]int
	Outcomes    map[string]int
	SideEffects map[string]int
}

// NewRecordingRecorder returns an empty recorder.
func NewRecordingRecorder() *RecordingRecorder {
	return &RecordingRecorder{
		Submits:     make(map[string]int),
		Outcomes:    make(map[string]int),
		SideEffects: make(map[string]int),
	}
}

func (r *RecordingRecorder) SubmitObserved(taskType, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Submits[taskType+"/"+result]++
}

func (r *RecordingRecorder) AccrualDecided(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outcomes[outcome]++
}

func (r *RecordingRecorder) SideEffectFailed(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SideEffects[kind]++
}

//Personal.AI order the ending
