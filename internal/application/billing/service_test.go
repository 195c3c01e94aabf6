package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/testutil"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

var testNow = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc       Service
	tasks     *testutil.MemoryTaskStore
	accruals  *testutil.MemoryAccrualStore
	files     *testutil.MemoryFileStore
	rules     *testutil.MemoryRuleStore
	publisher *testutil.RecordingPublisher
	logger    *testutil.MockLogger
}

func newFixture(t *testing.T, failNames ...string) *fixture {
	t.Helper()
	f := &fixture{
		tasks:     testutil.NewMemoryTaskStore(),
		accruals:  testutil.NewMemoryAccrualStore(),
		files:     testutil.NewMemoryFileStore(failNames...),
		rules:     testutil.NewMemoryRuleStore(),
		publisher: testutil.NewRecordingPublisher(),
		logger:    testutil.NewMockLogger(),
	}
	f.svc = NewService(Deps{
		Accruals:  f.accruals,
		Tasks:     f.tasks,
		Sequencer: f.tasks,
		Files:     f.files,
		Rules:     f.rules,
		Publisher: f.publisher,
		Logger:    f.logger,
		Config: Config{
			DefaultAssignee: task.Assignee{ID: "acc-1", Name: "Accounting"},
			DefaultCurrency: "TRY",
		},
		Now: func() time.Time { return testNow },
	})
	return f
}

func originTask(id string) *task.Task {
	return &task.Task{
		ID:      id,
		Type:    task.TypeRenewal,
		Title:   "Renewal - ACME",
		AssetID: "asset-1",
		Status:  task.StatusOpen,
		Display: task.DisplayFields{ApplicationNumber: "2014/000123", AssetTitle: "ACME", ApplicantName: "Acme Ltd."},
	}
}

func fee(official, service float64, cur string) *accrual.FeeInput {
	return &accrual.FeeInput{
		OfficialFee: accrual.Money{Amount: official, Currency: cur},
		ServiceFee:  accrual.Money{Amount: service, Currency: cur},
		VATRate:     20,
	}
}

func TestApply_Free(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Apply(context.Background(), &ApplyRequest{Origin: originTask("t1"), Free: true, Fee: fee(100, 0, "TRY")})
	require.NoError(t, err)
	assert.Equal(t, accrual.OutcomeFree, res.Outcome)
	assert.Empty(t, res.AccrualID)
	assert.Empty(t, res.DeferredTaskID)
	assert.Empty(t, f.tasks.All())
	assert.Zero(t, f.publisher.Count(EventAccrualCreated))
}

func TestApply_Immediate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &ApplyRequest{
		Origin:          originTask("t1"),
		Fee:             fee(1000, 500, "try"),
		ServiceFeeParty: &common.Party{Name: "Acme Ltd."},
		Files:           []common.FileUpload{{Name: "dekont.pdf", Content: []byte("pdf")}},
		CreatedBy:       "u1",
	}
	res, err := f.svc.Apply(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, accrual.OutcomeImmediate, res.Outcome)
	require.NotEmpty(t, res.AccrualID)
	assert.Empty(t, res.Warnings)

	a, err := f.svc.Get(ctx, res.AccrualID)
	require.NoError(t, err)
	assert.Equal(t, "t1", a.TaskID)
	assert.Equal(t, "Renewal - ACME", a.TaskTitle)
	// official 1000, service 500 * 1.20 = 600
	assert.Equal(t, []accrual.Money{{Amount: 1600, Currency: "TRY"}}, a.TotalAmount)
	assert.Equal(t, a.TotalAmount, a.RemainingAmount)
	assert.Equal(t, accrual.StatusUnpaid, a.Status)
	require.Len(t, a.Files, 1)
	assert.Equal(t, "accruals/t1/dekont.pdf", a.Files[0].Path)
	assert.Equal(t, testNow, a.CreatedAt)
	assert.Equal(t, 1, f.publisher.Count(EventAccrualCreated))

	again, err := f.svc.Apply(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, res.AccrualID, again.AccrualID)
	all, _ := f.svc.ListByTask(ctx, "t1")
	assert.Len(t, all, 1)
}

func TestApply_ImmediateUploadFailureSkipsRecord(t *testing.T) {
	f := newFixture(t, "broken.pdf")
	res, err := f.svc.Apply(context.Background(), &ApplyRequest{
		Origin: originTask("t1"),
		Fee:    fee(100, 0, "TRY"),
		Files:  []common.FileUpload{{Name: "broken.pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, accrual.OutcomeImmediate, res.Outcome)
	assert.Empty(t, res.AccrualID)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "broken.pdf")

	all, _ := f.accruals.List(context.Background(), accrual.Filter{})
	assert.Empty(t, all)
	assert.True(t, f.logger.HasMessageContaining("warn", "upload failed"))
}

func TestApply_ImmediateStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.accruals.CreateErr = fmt.Errorf("disk full")
	_, err := f.svc.Apply(context.Background(), &ApplyRequest{Origin: originTask("t1"), Fee: fee(100, 0, "TRY")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeAccrualCreateFailed))
}

func TestApply_Deferred(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	origin := originTask("t1")

	res, err := f.svc.Apply(ctx, &ApplyRequest{Origin: origin, CreatedBy: "u1"})
	require.NoError(t, err)
	assert.Equal(t, accrual.OutcomeDeferred, res.Outcome)
	assert.Equal(t, "T-1", res.DeferredTaskID)

	d, err := f.tasks.GetByID(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, task.TypeCreateAccrual, d.Type)
	assert.Equal(t, "acc-1", d.Assignee.ID)
	assert.Equal(t, "Accounting", d.Assignee.Name)
	assert.Equal(t, "t1", d.RelatedTaskID())
	assert.Equal(t, "Renewal - ACME", d.Detail(task.DetailOriginTitle))
	assert.Equal(t, string(task.TypeRenewal), d.Detail(task.DetailOriginType))
	assert.Equal(t, "asset-1", d.AssetID)
	assert.Equal(t, origin.Display, d.Display)
	assert.Contains(t, d.Title, "Renewal - ACME")
	assert.Equal(t, 1, f.publisher.Count(EventAccrualDeferred))

	again, err := f.svc.Apply(ctx, &ApplyRequest{Origin: origin})
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, "T-1", again.DeferredTaskID)
	assert.EqualValues(t, 1, f.tasks.Counter())
}

func TestApply_DeferredUsesAssignmentRule(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rules.Upsert(context.Background(), &task.AssignmentRule{
		TaskType:    task.TypeCreateAccrual,
		AssigneeIDs: []string{" ", "acc-2"},
	}))
	res, err := f.svc.Apply(context.Background(), &ApplyRequest{Origin: originTask("t1")})
	require.NoError(t, err)
	d, _ := f.tasks.GetByID(context.Background(), res.DeferredTaskID)
	assert.Equal(t, "acc-2", d.Assignee.ID)
}

func TestApply_DeferredRuleLookupFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	f.rules.Err = fmt.Errorf("rules unavailable")
	res, err := f.svc.Apply(context.Background(), &ApplyRequest{Origin: originTask("t1")})
	require.NoError(t, err)
	d, _ := f.tasks.GetByID(context.Background(), res.DeferredTaskID)
	assert.Equal(t, "acc-1", d.Assignee.ID)
	assert.True(t, f.logger.HasMessageContaining("warn", "assignment rule lookup failed"))
}

func TestApply_DeferredSequencerFailure(t *testing.T) {
	f := newFixture(t)
	f.tasks.SequenceErr = errors.New(errors.ErrCodeSequenceContention, "counter busy")
	_, err := f.svc.Apply(context.Background(), &ApplyRequest{Origin: originTask("t1")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSequenceContention))
}

func TestApply_ConcurrentDeferredIDsUnique(t *testing.T) {
	f := newFixture(t)
	const n = 20
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Apply(context.Background(), &ApplyRequest{Origin: originTask(fmt.Sprintf("t%d", i))})
			if err == nil {
				ids[i] = res.DeferredTaskID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.EqualValues(t, n, f.tasks.Counter())
}

func TestApply_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, &ApplyRequest{})
	assert.True(t, errors.IsValidation(err))

	_, err = f.svc.Apply(ctx, &ApplyRequest{Origin: originTask("t1"), Fee: fee(0, 0, "TRY")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFee))

	_, err = f.svc.Apply(ctx, &ApplyRequest{Origin: originTask("t1"), Fee: fee(-5, 10, "TRY")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFee))
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.Preview(accrual.FeeInput{
		OfficialFee:        accrual.Money{Amount: 100, Currency: "usd"},
		ServiceFee:         accrual.Money{Amount: 200},
		VATRate:            20,
		ApplyVATToOfficial: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []accrual.Money{{Amount: 120, Currency: "USD"}, {Amount: 240, Currency: "TRY"}}, got)

	_, err = f.svc.Preview(accrual.FeeInput{VATRate: -1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFee))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.Apply(ctx, &ApplyRequest{Origin: originTask("t1"), Fee: fee(100, 0, "TRY")})
	require.NoError(t, err)

	a, err := f.svc.UpdateStatus(ctx, res.AccrualID, accrual.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, accrual.StatusPaid, a.Status)
	assert.Empty(t, a.RemainingAmount)

	_, err = f.svc.UpdateStatus(ctx, res.AccrualID, accrual.Status("void"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAccrualStatus))

	_, err = f.svc.UpdateStatus(ctx, "missing", accrual.StatusPaid)
	assert.True(t, errors.IsNotFound(err))
}

//Personal.AI order the ending
