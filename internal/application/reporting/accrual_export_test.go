package reporting

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/testutil"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

type failingLister struct{}

func (failingLister) List(context.Context, accrual.Filter) ([]*accrual.Accrual, error) {
	return nil, fmt.Errorf("connection reset")
}

func seedAccrual(t *testing.T, store *testutil.MemoryAccrualStore, taskID string, fee accrual.FeeInput) *accrual.Accrual {
	t.Helper()
	a, err := accrual.NewAccrual(accrual.NewAccrualParams{TaskID: taskID, TaskTitle: "Renewal - " + taskID, Fee: fee})
	require.NoError(t, err)
	a.CreatedAt = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.Create(context.Background(), a))
	return a
}

func TestExportAccruals_RoundTrip(t *testing.T) {
	store := testutil.NewMemoryAccrualStore()
	first := seedAccrual(t, store, "t-1", accrual.FeeInput{
		OfficialFee: accrual.Money{Amount: 1000, Currency: "TRY"},
		ServiceFee:  accrual.Money{Amount: 500, Currency: "TRY"},
		VATRate:     20,
	})
	seedAccrual(t, store, "t-2", accrual.FeeInput{
		OfficialFee:        accrual.Money{Amount: 50, Currency: "TRY"},
		ServiceFee:         accrual.Money{Amount: 25, Currency: "USD"},
		VATRate:            20,
		ApplyVATToOfficial: true,
	})

	exp := NewAccrualExporter(store, nil, nil)
	data, err := exp.ExportAccruals(context.Background(), accrual.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(AccrualSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, accrualColumns, rows[0])

	byTask := map[string][]string{}
	for _, r := range rows[1:] {
		byTask[r[1]] = r
	}
	r1 := byTask["t-1"]
	require.NotNil(t, r1)
	assert.Equal(t, first.ID, r1[0])
	assert.Equal(t, "unpaid", r1[3])
	assert.Equal(t, "1000.00 TRY", r1[4])
	assert.Equal(t, "1600.00 TRY", r1[8])
	assert.Equal(t, r1[8], r1[9])
	assert.Equal(t, "2026-10-14 09:30", r1[10])

	r2 := byTask["t-2"]
	require.NotNil(t, r2)
	assert.Equal(t, "true", r2[7])
	assert.Equal(t, "60.00 TRY; 30.00 USD", r2[8])
}

func TestExportAccruals_FilterAndEmpty(t *testing.T) {
	store := testutil.NewMemoryAccrualStore()
	seedAccrual(t, store, "t-1", accrual.FeeInput{ServiceFee: accrual.Money{Amount: 100, Currency: "TRY"}})

	exp := NewAccrualExporter(store, nil, nil)
	data, err := exp.ExportAccruals(context.Background(), accrual.Filter{Status: accrual.StatusPaid})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(AccrualSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestExportAccruals_StoreFailure(t *testing.T) {
	exp := NewAccrualExporter(failingLister{}, nil, nil)
	_, err := exp.ExportAccruals(context.Background(), accrual.Filter{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

//Personal.AI order the ending
