package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/suit"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tasks
// ─────────────────────────────────────────────────────────────────────────────

// MemoryTaskStore implements task.Repository and task.Sequencer in memory.
// Stored tasks are cloned on the way in and out.
type MemoryTaskStore struct {
	mu      sync.Mutex
	tasks   map[string]*task.Task
	order   []string
	counter int64

	// CreateErr, when set, is returned by Create.
	CreateErr error
	// SequenceErr, when set, is returned by CreateSequenced.
	SequenceErr error
}

// NewMemoryTaskStore returns an empty store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*task.Task)}
}

func (s *MemoryTaskStore) Create(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	return s.insertLocked(t)
}

func (s *MemoryTaskStore) insertLocked(t *task.Task) error {
	if t == nil || t.ID == "" {
		return errors.InvalidParam("task id is required")
	}
	if _, ok := s.tasks[t.ID]; ok {
		return errors.Newf(errors.ErrCodeConflict, "task %s already exists", t.ID)
	}
	s.tasks[t.ID] = t.Clone()
	s.order = append(s.order, t.ID)
	return nil
}

func (s *MemoryTaskStore) Update(_ context.Context, id string, patch task.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return errors.Newf(errors.ErrCodeTaskNotFound, "task %s not found", id)
	}
	patch.Apply(t, time.Now().UTC())
	return nil
}

func (s *MemoryTaskStore) GetByID(_ context.Context, id string) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeTaskNotFound, "task %s not found", id)
	}
	return t.Clone(), nil
}

func (s *MemoryTaskStore) ListByAssignee(_ context.Context, userID string) ([]*task.Task, error) {
	return s.filter(func(t *task.Task) bool { return t.Assignee.ID == userID }), nil
}

func (s *MemoryTaskStore) ListByStatus(_ context.Context, status task.Status, userID string) ([]*task.Task, error) {
	return s.filter(func(t *task.Task) bool {
		return t.Status == status && (userID == "" || t.Assignee.ID == userID)
	}), nil
}

func (s *MemoryTaskStore) FindByRelatedTask(_ context.Context, relatedTaskID string, typ task.Type) ([]*task.Task, error) {
	return s.filter(func(t *task.Task) bool {
		return t.RelatedTaskID() == relatedTaskID && (typ == "" || t.Type == typ)
	}), nil
}

func (s *MemoryTaskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return errors.Newf(errors.ErrCodeTaskNotFound, "task %s not found", id)
	}
	delete(s.tasks, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// CreateSequenced allocates "T-<n>" and stores the built task under one lock,
// so concurrent callers never observe the same number.
func (s *MemoryTaskStore) CreateSequenced(_ context.Context, build func(id string) (*task.Task, error)) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SequenceErr != nil {
		return nil, s.SequenceErr
	}
	id := task.FormatSequenceID(s.counter + 1)
	if _, ok := s.tasks[id]; ok {
		return nil, errors.Newf(errors.ErrCodeSequenceDuplicateID, "sequenced id %s already used", id)
	}
	t, err := build(id)
	if err != nil {
		return nil, err
	}
	if err := s.insertLocked(t); err != nil {
		return nil, err
	}
	s.counter++
	return t.Clone(), nil
}

// All returns every stored task in insertion order.
func (s *MemoryTaskStore) All() []*task.Task {
	return s.filter(func(*task.Task) bool { return true })
}

// Counter returns the last allocated sequence number.
func (s *MemoryTaskStore) Counter() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

func (s *MemoryTaskStore) filter(keep func(*task.Task) bool) []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*task.Task, 0)
	for _, id := range s.order {
		if t := s.tasks[id]; keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Assets
// ─────────────────────────────────────────────────────────────────────────────

// MemoryAssetStore implements asset.Repository in memory.
type MemoryAssetStore struct {
	mu     sync.Mutex
	assets map[string]*asset.Asset
	order  []string
	txs    []*asset.Transaction

	CreateErr error
	SearchErr error
	TxErr     error
}

// NewMemoryAssetStore returns an empty store seeded with assets.
func NewMemoryAssetStore(seed ...*asset.Asset) *MemoryAssetStore {
	s := &MemoryAssetStore{assets: make(map[string]*asset.Asset)}
	for _, a := range seed {
		s.assets[a.ID] = a.Clone()
		s.order = append(s.order, a.ID)
	}
	return s
}

func (s *MemoryAssetStore) Create(_ context.Context, a *asset.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, ok := s.assets[a.ID]; ok {
		return errors.Newf(errors.ErrCodeAssetAlreadyExists, "asset %s already exists", a.ID)
	}
	if a.ApplicationNumber != "" {
		for _, v := range s.assets {
			if v.ApplicationNumber == a.ApplicationNumber {
				return errors.Newf(errors.ErrCodeAssetAlreadyExists, "application number %s already recorded", a.ApplicationNumber)
			}
		}
	}
	s.assets[a.ID] = a.Clone()
	s.order = append(s.order, a.ID)
	return nil
}

func (s *MemoryAssetStore) Update(_ context.Context, id string, patch asset.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return errors.Newf(errors.ErrCodeAssetNotFound, "asset %s not found", id)
	}
	patch.Apply(a, time.Now().UTC())
	return nil
}

func (s *MemoryAssetStore) GetByID(_ context.Context, id string) (*asset.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeAssetNotFound, "asset %s not found", id)
	}
	return a.Clone(), nil
}

func (s *MemoryAssetStore) List(_ context.Context, page common.Pagination) ([]*asset.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*asset.Asset, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.assets[id].Clone())
	}
	offset, limit := page.Offset(), page.Limit()
	if offset >= len(out) {
		return []*asset.Asset{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryAssetStore) FindByApplicationNumber(_ context.Context, applicationNumber string) (*asset.Asset, error) {
	applicationNumber = strings.TrimSpace(applicationNumber)
	if applicationNumber == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if a := s.assets[id]; strings.TrimSpace(a.ApplicationNumber) == applicationNumber {
			return a.Clone(), nil
		}
	}
	return nil, nil
}

func (s *MemoryAssetStore) Search(_ context.Context, query string, limit int) ([]*asset.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	out := make([]*asset.Asset, 0)
	for _, id := range s.order {
		if a := s.assets[id]; asset.Matches(a, query) {
			out = append(out, a.Clone())
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryAssetStore) AddTransaction(_ context.Context, tx *asset.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TxErr != nil {
		return s.TxErr
	}
	if _, ok := s.assets[tx.AssetID]; !ok {
		return errors.Newf(errors.ErrCodeAssetNotFound, "asset %s not found", tx.AssetID)
	}
	cp := *tx
	s.txs = append(s.txs, &cp)
	return nil
}

func (s *MemoryAssetStore) ListTransactions(_ context.Context, assetID string) ([]*asset.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*asset.Transaction, 0)
	for _, tx := range s.txs {
		if tx.AssetID == assetID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Count returns the number of stored assets.
func (s *MemoryAssetStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

// ─────────────────────────────────────────────────────────────────────────────
// Accruals
// ─────────────────────────────────────────────────────────────────────────────

// MemoryAccrualStore implements accrual.Repository in memory.
type MemoryAccrualStore struct {
	mu       sync.Mutex
	accruals map[string]*accrual.Accrual
	order    []string

	CreateErr error
}

// NewMemoryAccrualStore returns an empty store.
func NewMemoryAccrualStore() *MemoryAccrualStore {
	return &MemoryAccrualStore{accruals: make(map[string]*accrual.Accrual)}
}

func cloneAccrual(a *accrual.Accrual) *accrual.Accrual {
	cp := *a
	cp.TotalAmount = accrual.CloneList(a.TotalAmount)
	cp.RemainingAmount = accrual.CloneList(a.RemainingAmount)
	cp.Files = append([]common.Document(nil), a.Files...)
	return &cp
}

func (s *MemoryAccrualStore) Create(_ context.Context, a *accrual.Accrual) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, ok := s.accruals[a.ID]; ok {
		return errors.Newf(errors.ErrCodeConflict, "accrual %s already exists", a.ID)
	}
	s.accruals[a.ID] = cloneAccrual(a)
	s.order = append(s.order, a.ID)
	return nil
}

func (s *MemoryAccrualStore) GetByID(_ context.Context, id string) (*accrual.Accrual, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accruals[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeAccrualNotFound, "accrual %s not found", id)
	}
	return cloneAccrual(a), nil
}

func (s *MemoryAccrualStore) Update(_ context.Context, id string, patch accrual.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accruals[id]
	if !ok {
		return errors.Newf(errors.ErrCodeAccrualNotFound, "accrual %s not found", id)
	}
	return patch.Apply(a, time.Now().UTC())
}

func (s *MemoryAccrualStore) ListByTaskID(ctx context.Context, taskID string) ([]*accrual.Accrual, error) {
	return s.List(ctx, accrual.Filter{TaskID: taskID})
}

func (s *MemoryAccrualStore) List(_ context.Context, filter accrual.Filter) ([]*accrual.Accrual, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*accrual.Accrual, 0)
	for _, id := range s.order {
		if a := s.accruals[id]; filter.Matches(a) {
			out = append(out, cloneAccrual(a))
			if filter.Limit > 0 && len(out) == filter.Limit {
				break
			}
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Suits
// ─────────────────────────────────────────────────────────────────────────────

// MemorySuitStore implements suit.Repository in memory.
type MemorySuitStore struct {
	mu    sync.Mutex
	suits map[string]*suit.Suit
	txs   []*suit.Transaction

	CreateErr error
}

// NewMemorySuitStore returns an empty store.
func NewMemorySuitStore() *MemorySuitStore {
	return &MemorySuitStore{suits: make(map[string]*suit.Suit)}
}

func (s *MemorySuitStore) Create(_ context.Context, v *suit.Suit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	cp := *v
	s.suits[v.ID] = &cp
	return nil
}

func (s *MemorySuitStore) GetByID(_ context.Context, id string) (*suit.Suit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.suits[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeSuitNotFound, "suit %s not found", id)
	}
	cp := *v
	return &cp, nil
}

func (s *MemorySuitStore) FindByTaskID(_ context.Context, taskID string) (*suit.Suit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.suits {
		if v.TaskID == taskID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemorySuitStore) AddTransaction(_ context.Context, tx *suit.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suits[tx.SuitID]; !ok {
		return errors.Newf(errors.ErrCodeSuitNotFound, "suit %s not found", tx.SuitID)
	}
	cp := *tx
	s.txs = append(s.txs, &cp)
	return nil
}

func (s *MemorySuitStore) ListTransactions(_ context.Context, suitID string) ([]*suit.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*suit.Transaction, 0)
	for _, tx := range s.txs {
		if tx.SuitID == suitID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Count returns the number of stored suits.
func (s *MemorySuitStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.suits)
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignment rules
// ─────────────────────────────────────────────────────────────────────────────

// MemoryRuleStore implements task.AssignmentRuleRepository and the
// GetAssignmentRule lookup used by the application services.
type MemoryRuleStore struct {
	mu    sync.Mutex
	rules map[task.Type]*task.AssignmentRule

	Err error
}

// NewMemoryRuleStore returns a store seeded with rules.
func NewMemoryRuleStore(rules ...*task.AssignmentRule) *MemoryRuleStore {
	s := &MemoryRuleStore{rules: make(map[task.Type]*task.AssignmentRule)}
	for _, r := range rules {
		s.rules[r.TaskType] = r
	}
	return s
}

func (s *MemoryRuleStore) GetByTaskType(_ context.Context, typ task.Type) (*task.AssignmentRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	r, ok := s.rules[typ]
	if !ok {
		return nil, nil
	}
	cp := *r
	cp.AssigneeIDs = append([]string(nil), r.AssigneeIDs...)
	return &cp, nil
}

func (s *MemoryRuleStore) GetAssignmentRule(ctx context.Context, typ task.Type) (*task.AssignmentRule, error) {
	return s.GetByTaskType(ctx, typ)
}

func (s *MemoryRuleStore) Upsert(_ context.Context, rule *task.AssignmentRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rule
	s.rules[rule.TaskType] = &cp
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Files
// ─────────────────────────────────────────────────────────────────────────────

// MemoryFileStore keeps uploads in memory. Uploads whose file name appears in
// FailNames fail with FIL_001.
type MemoryFileStore struct {
	mu    sync.Mutex
	files map[string][]byte

	FailNames map[string]bool
}

// NewMemoryFileStore returns an empty store that fails the named uploads.
func NewMemoryFileStore(failNames ...string) *MemoryFileStore {
	s := &MemoryFileStore{files: make(map[string][]byte), FailNames: make(map[string]bool)}
	for _, n := range failNames {
		s.FailNames[n] = true
	}
	return s
}

func (s *MemoryFileStore) Upload(_ context.Context, path string, file common.FileUpload) (common.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNames[file.Name] {
		return common.Document{}, errors.Newf(errors.ErrCodeFileUploadFailed, "upload of %s failed", file.Name)
	}
	s.files[path] = append([]byte(nil), file.Content...)
	return common.Document{
		ID:          string(common.NewID()),
		Name:        file.Name,
		Path:        path,
		URL:         "mem://" + path,
		ContentType: file.ContentType,
		Size:        int64(len(file.Content)),
		UploadedAt:  time.Now().UTC(),
	}, nil
}

func (s *MemoryFileStore) ResolveURL(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		return "", errors.Newf(errors.ErrCodeFileNotFound, "file %s not found", path)
	}
	return "mem://" + path, nil
}

// Paths returns the stored paths in lexical order.
func (s *MemoryFileStore) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// HasPrefix reports whether any stored path starts with prefix.
func (s *MemoryFileStore) HasPrefix(prefix string) bool {
	for _, p := range s.Paths() {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
