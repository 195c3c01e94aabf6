package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/suit"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/database/sqlite"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// newTestDB opens a file-backed database so all pooled connections share it.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.OpenDB(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "docket.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTask(id string, typ task.Type, created time.Time) *task.Task {
	return &task.Task{
		ID:        id,
		Type:      typ,
		Title:     "Task " + id,
		Priority:  task.PriorityHigh,
		Status:    task.StatusOpen,
		Assignee:  task.Assignee{ID: "u-1"},
		Details:   common.Metadata{task.DetailRelatedTaskID: "t-origin"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestDSN(t *testing.T) {
	dsn := sqlite.DSN(config.SQLiteConfig{Path: "/var/lib/docket.db", BusyTimeout: 2 * time.Second})
	assert.Contains(t, dsn, "/var/lib/docket.db?")
	assert.Contains(t, dsn, "busy_timeout%282000%29")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
	assert.Contains(t, dsn, "_txlock=immediate")

	mem := sqlite.DSN(config.SQLiteConfig{Path: sqlite.MemoryPath})
	assert.NotContains(t, mem, "journal_mode")
	assert.Contains(t, mem, "busy_timeout%285000%29")
}

func TestOpenDB_MemoryAndMigrateIdempotent(t *testing.T) {
	db, err := sqlite.OpenDB(config.SQLiteConfig{Path: sqlite.MemoryPath}, nil)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, sqlite.Migrate(db))

	_, err = sqlite.OpenDB(config.SQLiteConfig{}, nil)
	assert.Error(t, err)
}

func TestTaskRepository_Queries(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewTaskRepository(db, nil, sqlite.SequencerOptions{})
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, sampleTask("t-2", task.TypeRenewal, base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, sampleTask("t-1", task.TypeRenewal, base)))
	assert.True(t, errors.IsCode(repo.Create(ctx, sampleTask("t-1", task.TypeRenewal, base)), errors.ErrCodeConflict))

	mine, err := repo.ListByAssignee(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "t-1", mine[0].ID)

	related, err := repo.FindByRelatedTask(ctx, "t-origin", task.TypeRenewal)
	require.NoError(t, err)
	assert.Len(t, related, 2)
	none, err := repo.FindByRelatedTask(ctx, "t-origin", task.TypeOpposition)
	require.NoError(t, err)
	assert.Empty(t, none)

	done := task.StatusCompleted
	reassigned := task.Assignee{ID: "u-2"}
	require.NoError(t, repo.Update(ctx, "t-2", task.Patch{Status: &done, Assignee: &reassigned}))

	completed, err := repo.ListByStatus(ctx, task.StatusCompleted, "u-2")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "t-2", completed[0].ID)
	all, err := repo.ListByStatus(ctx, task.StatusOpen, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.True(t, errors.IsCode(repo.Update(ctx, "t-9", task.Patch{}), errors.ErrCodeTaskNotFound))
	require.NoError(t, repo.Delete(ctx, "t-1"))
	assert.True(t, errors.IsCode(repo.Delete(ctx, "t-1"), errors.ErrCodeTaskNotFound))
}

func TestTaskRepository_CreateSequencedUnderConcurrency(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewTaskRepository(db, nil, sqlite.SequencerOptions{MaxRetries: 10})
	ctx := context.Background()

	const workers = 12
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := repo.CreateSequenced(ctx, func(id string) (*task.Task, error) {
				return sampleTask(id, task.TypeCreateAccrual, time.Now().UTC()), nil
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[created.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, ids, workers)
	for n := int64(1); n <= workers; n++ {
		assert.True(t, ids[task.FormatSequenceID(n)])
	}
}

func TestTaskRepository_CreateSequencedBuildErrorLeavesNoGap(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewTaskRepository(db, nil, sqlite.SequencerOptions{})
	ctx := context.Background()

	_, err := repo.CreateSequenced(ctx, func(string) (*task.Task, error) {
		return nil, errors.Validation("nope")
	})
	assert.True(t, errors.IsValidation(err))

	created, err := repo.CreateSequenced(ctx, func(id string) (*task.Task, error) {
		return sampleTask(id, task.TypeCreateAccrual, time.Now().UTC()), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "T-1", created.ID)

	// An id already taken outside the sequencer is reported, not retried.
	require.NoError(t, repo.Create(ctx, sampleTask("T-2", task.TypeGeneral, time.Now().UTC())))
	_, err = repo.CreateSequenced(ctx, func(id string) (*task.Task, error) {
		return sampleTask(id, task.TypeCreateAccrual, time.Now().UTC()), nil
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSequenceDuplicateID))
}

func TestAssetRepository(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewAssetRepository(db, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	acme := &asset.Asset{
		ID:                "a-1",
		Title:             "ACME",
		Type:              asset.TypeTrademark,
		ApplicationNumber: "2014/000123",
		BrandText:         "acme_star",
		Source:            asset.SourcePortfolio,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, repo.Create(ctx, acme))
	require.NoError(t, repo.Create(ctx, &asset.Asset{ID: "a-2", Title: "Blue", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, repo.Create(ctx, &asset.Asset{ID: "a-3", Title: "Green", CreatedAt: now, UpdatedAt: now}))

	dup := *acme
	dup.ID = "a-4"
	assert.True(t, errors.IsCode(repo.Create(ctx, &dup), errors.ErrCodeAssetAlreadyExists))

	found, err := repo.FindByApplicationNumber(ctx, " 2014/000123 ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a-1", found.ID)
	missing, err := repo.FindByApplicationNumber(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, missing)

	hits, err := repo.Search(ctx, "acme", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	hits, err = repo.Search(ctx, "_", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1, "underscore is matched literally")

	page, err := repo.List(ctx, common.Pagination{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	reg := "1234567"
	require.NoError(t, repo.Update(ctx, "a-1", asset.Patch{RegistrationNumber: &reg}))
	got, err := repo.GetByID(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "1234567", got.RegistrationNumber)
	assert.True(t, errors.IsCode(repo.Update(ctx, "zz", asset.Patch{}), errors.ErrCodeAssetNotFound))

	entry := &asset.Transaction{ID: "x-1", AssetID: "a-1", TaskID: "t-1", CreatedAt: now}
	require.NoError(t, repo.AddTransaction(ctx, entry))
	require.NoError(t, repo.AddTransaction(ctx, &asset.Transaction{ID: "x-2", AssetID: "a-1", TaskID: "t-1", CreatedAt: now}))
	history, err := repo.ListTransactions(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "x-1", history[0].ID)
}

func TestAccrualRepository(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewAccrualRepository(db, nil)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"ac-1", "ac-2", "ac-3"} {
		require.NoError(t, repo.Create(ctx, &accrual.Accrual{
			ID:          id,
			TaskID:      "t-1",
			OfficialFee: accrual.Money{Amount: 10, Currency: "TRY"},
			Status:      accrual.StatusUnpaid,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base,
		}))
	}

	list, err := repo.List(ctx, accrual.Filter{To: base.Add(2 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	partial := accrual.StatusPartiallyPaid
	require.NoError(t, repo.Update(ctx, "ac-3", accrual.Patch{Status: &partial}))
	filtered, err := repo.List(ctx, accrual.Filter{Status: accrual.StatusPartiallyPaid})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "ac-3", filtered[0].ID)

	byTask, err := repo.ListByTaskID(ctx, "t-1")
	require.NoError(t, err)
	assert.Len(t, byTask, 3)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeAccrualNotFound))
}

func TestSuitAndRuleRepositories(t *testing.T) {
	db := newTestDB(t)
	suits := sqlite.NewSuitRepository(db, nil)
	rules := sqlite.NewAssignmentRuleRepository(db, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	s, err := suit.NewSuit(suit.NewSuitParams{TaskID: "t-1", Title: "ACME v Rival"}, now)
	require.NoError(t, err)
	require.NoError(t, suits.Create(ctx, s))
	other, err := suit.NewSuit(suit.NewSuitParams{TaskID: "t-1", Title: "again"}, now)
	require.NoError(t, err)
	assert.True(t, errors.IsCode(suits.Create(ctx, other), errors.ErrCodeConflict))

	got, err := suits.FindByTaskID(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, suit.StatusOpen, got.Status)
	absent, err := suits.FindByTaskID(ctx, "t-2")
	require.NoError(t, err)
	assert.Nil(t, absent)

	entry, err := suit.NewTransaction(s.ID, "t-5", "hearing held", nil, now)
	require.NoError(t, err)
	require.NoError(t, suits.AddTransaction(ctx, entry))
	history, err := suits.ListTransactions(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	rule, err := rules.GetByTaskType(ctx, task.TypeOpposition)
	require.NoError(t, err)
	assert.Nil(t, rule)
	require.NoError(t, rules.Upsert(ctx, &task.AssignmentRule{TaskType: task.TypeOpposition, AssigneeIDs: []string{"u-7"}}))
	require.NoError(t, rules.Upsert(ctx, &task.AssignmentRule{TaskType: task.TypeOpposition, AssigneeIDs: []string{"u-8"}}))
	rule, err = rules.GetByTaskType(ctx, task.TypeOpposition)
	require.NoError(t, err)
	assert.Equal(t, "u-8", rule.PrimaryAssignee())
}

//Personal.AI order the ending
