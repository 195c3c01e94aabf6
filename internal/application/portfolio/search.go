// Package portfolio provides asset lookup across the firm's portfolio and
// the published trademark bulletins.
package portfolio

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100

	// BulletinBranchTimeout bounds the bulletin lookup so a slow feed does not
	// hold up local results.
	BulletinBranchTimeout = 3 * time.Second
)

// BulletinSource looks up published bulletin entries.
type BulletinSource interface {
	FindByApplicationNumber(ctx context.Context, applicationNumber string) (*asset.Bulletin, error)
}

// Hit is one search result. Saved is false for bulletin stubs that have not
// been promoted yet; such assets carry no id.
type Hit struct {
	Asset  *asset.Asset `json:"asset"`
	Source asset.Source `json:"source"`
	Saved  bool         `json:"saved"`
}

// SearchResult holds merged hits and any non-fatal lookup problems.
type SearchResult struct {
	Query    string   `json:"query"`
	Hits     []Hit    `json:"hits"`
	Warnings []string `json:"warnings,omitempty"`
}

// SearchService searches local assets and bulletin entries.
type SearchService interface {
	Search(ctx context.Context, query string, limit int) (*SearchResult, error)
}

// SearchDeps wires the search service.
type SearchDeps struct {
	Assets    asset.Repository
	Bulletins BulletinSource
	Logger    logging.Logger
}

type searchServiceImpl struct {
	assets    asset.Repository
	bulletins BulletinSource
	logger    logging.Logger
}

// NewSearchService constructs a SearchService. Bulletins may be nil.
func NewSearchService(d SearchDeps) SearchService {
	if d.Logger == nil {
		d.Logger = logging.NewNopLogger()
	}
	return &searchServiceImpl{
		assets:    d.Assets,
		bulletins: d.Bulletins,
		logger:    d.Logger.Named("asset_search"),
	}
}

// Search runs the local and bulletin lookups concurrently. A local record
// shadows a bulletin entry with the same application number.
func (s *searchServiceImpl) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, errors.InvalidParam("search query is required")
	}
	if limit <= 0 || limit > MaxSearchLimit {
		limit = DefaultSearchLimit
	}

	var (
		local       []*asset.Asset
		bulletin    *asset.Bulletin
		bulletinErr error
		mu          sync.Mutex
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.assets.Search(gCtx, q, limit)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "asset search failed")
		}
		mu.Lock()
		local = res
		mu.Unlock()
		return nil
	})
	if s.bulletins != nil {
		g.Go(func() error {
			bCtx, cancel := context.WithTimeout(gCtx, BulletinBranchTimeout)
			defer cancel()
			b, err := s.bulletins.FindByApplicationNumber(bCtx, q)
			mu.Lock()
			bulletin, bulletinErr = b, err
			mu.Unlock()
			// a bulletin failure never fails the search
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SearchResult{Query: q, Hits: make([]Hit, 0, len(local)+1)}
	seen := make(map[string]struct{}, len(local))
	for _, a := range local {
		result.Hits = append(result.Hits, Hit{Asset: a, Source: a.Source, Saved: true})
		if a.ApplicationNumber != "" {
			seen[a.ApplicationNumber] = struct{}{}
		}
	}

	switch {
	case bulletinErr != nil && errors.IsNotFound(bulletinErr):
	case bulletinErr != nil:
		s.logger.Warn("bulletin lookup failed",
			logging.String("query", q),
			logging.Err(bulletinErr))
		result.Warnings = append(result.Warnings, "bulletin lookup is unavailable; only portfolio records are shown")
	case bulletin != nil:
		if _, dup := seen[bulletin.ApplicationNumber]; !dup && len(result.Hits) < limit {
			result.Hits = append(result.Hits, Hit{Asset: bulletin.ToStub(), Source: asset.SourceBulletin})
		}
	}

	s.logger.Debug("asset search",
		logging.String("query", q),
		logging.Int("hits", len(result.Hits)))
	return result, nil
}

//Personal.AI order the ending
