package redis

import (
	"context"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Assignment rules
// ─────────────────────────────────────────────────────────────────────────────

// CachedRuleStore reads assignment rules through the cache. Upsert writes to
// the store and drops the cached entry.
type CachedRuleStore struct {
	repo  task.AssignmentRuleRepository
	cache Cache
	ttl   time.Duration
}

// NewCachedRuleStore wraps repo.
func NewCachedRuleStore(repo task.AssignmentRuleRepository, cache Cache, ttl time.Duration) *CachedRuleStore {
	return &CachedRuleStore{repo: repo, cache: cache, ttl: ttl}
}

func ruleKey(typ task.Type) string { return "rule:" + string(typ) }

// GetAssignmentRule returns nil and no error for types without a rule.
func (s *CachedRuleStore) GetAssignmentRule(ctx context.Context, typ task.Type) (*task.AssignmentRule, error) {
	var rule task.AssignmentRule
	err := s.cache.GetOrSet(ctx, ruleKey(typ), &rule, s.ttl, func(ctx context.Context) (interface{}, error) {
		r, err := s.repo.GetByTaskType(ctx, typ)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, ErrAbsent
		}
		return r, nil
	})
	if err == ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *CachedRuleStore) Upsert(ctx context.Context, rule *task.AssignmentRule) error {
	if err := s.repo.Upsert(ctx, rule); err != nil {
		return err
	}
	return s.cache.Delete(ctx, ruleKey(rule.TaskType))
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulletins
// ─────────────────────────────────────────────────────────────────────────────

// BulletinSource is the bulletin lookup being cached.
type BulletinSource interface {
	FetchBulletin(ctx context.Context, bulletinID string) (*asset.Bulletin, error)
	FindByApplicationNumber(ctx context.Context, applicationNumber string) (*asset.Bulletin, error)
}

// CachedBulletinSource caches bulletin entries. Misses (BUL_001) are cached
// for the null TTL; other failures are not cached.
type CachedBulletinSource struct {
	src   BulletinSource
	cache Cache
	ttl   time.Duration
}

// NewCachedBulletinSource wraps src.
func NewCachedBulletinSource(src BulletinSource, cache Cache, ttl time.Duration) *CachedBulletinSource {
	return &CachedBulletinSource{src: src, cache: cache, ttl: ttl}
}

func (s *CachedBulletinSource) FetchBulletin(ctx context.Context, bulletinID string) (*asset.Bulletin, error) {
	return s.load(ctx, "bulletin:id:"+bulletinID, bulletinID, func(ctx context.Context) (*asset.Bulletin, error) {
		return s.src.FetchBulletin(ctx, bulletinID)
	})
}

func (s *CachedBulletinSource) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*asset.Bulletin, error) {
	return s.load(ctx, "bulletin:app:"+applicationNumber, applicationNumber, func(ctx context.Context) (*asset.Bulletin, error) {
		return s.src.FindByApplicationNumber(ctx, applicationNumber)
	})
}

func (s *CachedBulletinSource) load(ctx context.Context, key, ref string, fetch func(context.Context) (*asset.Bulletin, error)) (*asset.Bulletin, error) {
	var b asset.Bulletin
	err := s.cache.GetOrSet(ctx, key, &b, s.ttl, func(ctx context.Context) (interface{}, error) {
		got, err := fetch(ctx)
		if errors.IsCode(err, errors.ErrCodeBulletinNotFound) {
			return nil, ErrAbsent
		}
		if err != nil {
			return nil, err
		}
		return got, nil
	})
	if err == ErrCacheMiss {
		return nil, errors.Newf(errors.ErrCodeBulletinNotFound, "bulletin entry %s not found", ref)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Holidays
// ─────────────────────────────────────────────────────────────────────────────

// HolidayProvider is the holiday feed being cached.
type HolidayProvider interface {
	Holidays(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error)
}

// CachedHolidayProvider caches a feed per requested date range.
type CachedHolidayProvider struct {
	src   HolidayProvider
	cache Cache
	ttl   time.Duration
}

// NewCachedHolidayProvider wraps src.
func NewCachedHolidayProvider(src HolidayProvider, cache Cache, ttl time.Duration) *CachedHolidayProvider {
	return &CachedHolidayProvider{src: src, cache: cache, ttl: ttl}
}

func (p *CachedHolidayProvider) Holidays(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error) {
	key := "holidays:" + from.UTC().Format("20060102") + "-" + to.UTC().Format("20060102")
	var out []calendar.Holiday
	err := p.cache.GetOrSet(ctx, key, &out, p.ttl, func(ctx context.Context) (interface{}, error) {
		return p.src.Holidays(ctx, from, to)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

//Personal.AI order the ending
