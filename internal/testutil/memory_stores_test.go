package testutil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/testutil"
)

func TestMemoryAssetStore_FindByApplicationNumber(t *testing.T) {
	store := testutil.NewMemoryAssetStore(
		&asset.Asset{ID: "a-draft", Title: "Draft mark"},
		&asset.Asset{ID: "a-1", Title: "ACME", ApplicationNumber: "2014/000123"},
	)
	ctx := context.Background()

	for _, n := range []string{"", "   "} {
		got, err := store.FindByApplicationNumber(ctx, n)
		require.NoError(t, err)
		assert.Nil(t, got, "blank number %q must not match", n)
	}

	got, err := store.FindByApplicationNumber(ctx, " 2014/000123 ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a-1", got.ID)

	got, err = store.FindByApplicationNumber(ctx, "2099/000001")
	require.NoError(t, err)
	assert.Nil(t, got)
}

//Personal.AI order the ending
