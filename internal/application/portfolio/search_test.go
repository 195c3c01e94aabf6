package portfolio

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/testutil"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

func seedAssets() *testutil.MemoryAssetStore {
	return testutil.NewMemoryAssetStore(
		&asset.Asset{ID: "a-1", Title: "ACME", Type: asset.TypeTrademark, ApplicationNumber: "2014/000123",
			Ownership: asset.OwnershipSelf, Source: asset.SourcePortfolio},
		&asset.Asset{ID: "a-2", Title: "Acme Blue", Type: asset.TypeTrademark, ApplicationNumber: "2019/004411",
			Ownership: asset.OwnershipSelf, Source: asset.SourcePortfolio},
		&asset.Asset{ID: "a-3", Title: "RIVAL", Type: asset.TypeTrademark, ApplicationNumber: "2026/012345",
			Ownership: asset.OwnershipThirdParty, Source: asset.SourceBulletin},
	)
}

func bulletin(appNo, brand string) *asset.Bulletin {
	return &asset.Bulletin{
		ID:                "b-" + appNo,
		BulletinNo:        "2026/18",
		BulletinDate:      time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		ApplicationNumber: appNo,
		BrandText:         brand,
		ApplicantName:     "Rival AŞ",
	}
}

func TestSearch_LocalMatchesCaseInsensitive(t *testing.T) {
	svc := NewSearchService(SearchDeps{Assets: seedAssets(), Bulletins: testutil.NewFakeBulletinSource()})

	res, err := svc.Search(context.Background(), "acme", 0)
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	for _, h := range res.Hits {
		assert.True(t, h.Saved)
	}
	assert.Empty(t, res.Warnings, "a bulletin miss is not a warning")
}

func TestSearch_BulletinEntryIsAppended(t *testing.T) {
	svc := NewSearchService(SearchDeps{
		Assets:    seedAssets(),
		Bulletins: testutil.NewFakeBulletinSource(bulletin("2026/099999", "NOVA")),
	})

	res, err := svc.Search(context.Background(), "2026/099999", 10)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	hit := res.Hits[0]
	assert.False(t, hit.Saved)
	assert.Equal(t, asset.SourceBulletin, hit.Source)
	assert.Empty(t, hit.Asset.ID)
	assert.Equal(t, "NOVA", hit.Asset.Title)
	assert.True(t, hit.Asset.IsBulletinStub())
}

func TestSearch_LocalRecordShadowsBulletin(t *testing.T) {
	svc := NewSearchService(SearchDeps{
		Assets:    seedAssets(),
		Bulletins: testutil.NewFakeBulletinSource(bulletin("2026/012345", "RIVAL")),
	})

	res, err := svc.Search(context.Background(), "2026/012345", 10)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "a-3", res.Hits[0].Asset.ID)
	assert.True(t, res.Hits[0].Saved)
}

func TestSearch_BulletinFailureIsAWarning(t *testing.T) {
	feed := testutil.NewFakeBulletinSource()
	feed.Err = fmt.Errorf("connection refused")
	logger := testutil.NewMockLogger()
	svc := NewSearchService(SearchDeps{Assets: seedAssets(), Bulletins: feed, Logger: logger})

	res, err := svc.Search(context.Background(), "acme", 10)
	require.NoError(t, err)
	assert.Len(t, res.Hits, 2)
	require.Len(t, res.Warnings, 1)
	assert.True(t, logger.HasMessageContaining("warn", "bulletin lookup failed"))
}

func TestSearch_LocalFailureIsFatal(t *testing.T) {
	store := seedAssets()
	store.SearchErr = fmt.Errorf("db gone")
	svc := NewSearchService(SearchDeps{Assets: store})

	_, err := svc.Search(context.Background(), "acme", 10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewSearchService(SearchDeps{Assets: seedAssets()})
	_, err := svc.Search(context.Background(), "  ", 10)
	assert.True(t, errors.IsValidation(err))
}

func TestSearch_Limit(t *testing.T) {
	svc := NewSearchService(SearchDeps{Assets: seedAssets()})
	res, err := svc.Search(context.Background(), "20", 1)
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
}

//Personal.AI order the ending
