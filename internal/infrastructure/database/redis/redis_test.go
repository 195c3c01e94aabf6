package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/domain/asset"
	"github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

func TestNewClient_ConnectionFailed(t *testing.T) {
	client, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond}, nil)
	assert.Nil(t, client)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
}

func TestClient_ClosedRejectsCommands(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	assert.Equal(t, ErrClientClosed, client.Get(ctx, "k").Err())
	assert.Equal(t, ErrClientClosed, client.Ping(ctx))
	assert.Equal(t, ErrClientClosed, client.SetNX(ctx, "k", "v", 0).Err())
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache
// ─────────────────────────────────────────────────────────────────────────────

func TestCache_SetGetDelete(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewRedisCache(client, nil, WithPrefix("t:"), WithDefaultTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", map[string]int{"n": 1}, 0))
	assert.True(t, mr.Exists("t:a"))
	ttl := mr.TTL("t:a")
	assert.True(t, ttl >= 54*time.Second && ttl <= 66*time.Second, "ttl %s", ttl)

	var got map[string]int
	require.NoError(t, cache.Get(ctx, "a", &got))
	assert.Equal(t, 1, got["n"])

	require.NoError(t, cache.Delete(ctx, "a"))
	assert.Equal(t, ErrCacheMiss, cache.Get(ctx, "a", &got))
}

func TestCache_GetOrSetLoadsOnce(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewRedisCache(client, nil)
	ctx := context.Background()

	var calls int32
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return []string{"x"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out []string
			assert.NoError(t, cache.GetOrSet(ctx, "shared", &out, time.Minute, loader))
			assert.Equal(t, []string{"x"}, out)
		}()
	}
	wg.Wait()

	var out []string
	require.NoError(t, cache.GetOrSet(ctx, "shared", &out, time.Minute, loader))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_GetOrSetCachesAbsence(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewRedisCache(client, nil, WithNullCacheTTL(10*time.Second))
	ctx := context.Background()

	var calls int
	loader := func(context.Context) (interface{}, error) {
		calls++
		return nil, ErrAbsent
	}
	var out string
	assert.Equal(t, ErrCacheMiss, cache.GetOrSet(ctx, "gone", &out, 0, loader))
	assert.Equal(t, ErrCacheMiss, cache.GetOrSet(ctx, "gone", &out, 0, loader))
	assert.Equal(t, 1, calls)

	mr.FastForward(11 * time.Second)
	assert.Equal(t, ErrCacheMiss, cache.GetOrSet(ctx, "gone", &out, 0, loader))
	assert.Equal(t, 2, calls)
}

func TestCache_GetOrSetPropagatesLoaderError(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewRedisCache(client, nil)
	boom := errors.New(errors.ErrCodeDatabaseError, "db down")

	var out string
	err := cache.GetOrSet(context.Background(), "k", &out, 0, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.Equal(t, boom, err)
	assert.False(t, mr.Exists("docket:k"))
}

func TestCache_DeleteByPrefix(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewRedisCache(client, nil)
	ctx := context.Background()
	for _, k := range []string{"rule:a", "rule:b", "bulletin:1"} {
		require.NoError(t, cache.Set(ctx, k, 1, 0))
	}

	n, err := cache.DeleteByPrefix(ctx, "rule:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("docket:bulletin:1"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Locks
// ─────────────────────────────────────────────────────────────────────────────

func TestMutex_ExclusiveAndOwned(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	a := NewMutex(client, "lock:x", nil, WithLockTTL(5*time.Second), WithRetry(2, time.Millisecond))
	b := NewMutex(client, "lock:x", nil, WithRetry(2, time.Millisecond))

	require.NoError(t, a.Lock(ctx))
	assert.Equal(t, ErrLockNotAcquired, b.Lock(ctx))
	assert.Equal(t, ErrLockNotHeld, b.Unlock(ctx))

	ok, err := a.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.TTL("lock:x") > 5*time.Second)

	require.NoError(t, a.Unlock(ctx))
	require.NoError(t, b.Lock(ctx))
}

func TestMutex_ExpiredLockCanBeTaken(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	a := NewMutex(client, "lock:y", nil, WithLockTTL(time.Second))
	require.NoError(t, a.Lock(ctx))
	mr.FastForward(2 * time.Second)

	b := NewMutex(client, "lock:y", nil)
	ok, err := b.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ErrLockNotHeld, a.Unlock(ctx))
}

func TestSubmitLock(t *testing.T) {
	client, mr := newTestClient(t)
	lock := NewSubmitLock(client, "docket:", time.Minute, nil)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("docket:submit:key-1"))

	_, err = lock.Acquire(ctx, "key-1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubmissionInProgress))

	other, err := lock.Acquire(ctx, "key-2")
	require.NoError(t, err)
	other(ctx)

	release(ctx)
	assert.False(t, mr.Exists("docket:submit:key-1"))
	again, err := lock.Acquire(ctx, "key-1")
	require.NoError(t, err)
	again(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cached sources
// ─────────────────────────────────────────────────────────────────────────────

type countingRules struct {
	rules map[task.Type]*task.AssignmentRule
	gets  int
}

func (r *countingRules) GetByTaskType(_ context.Context, typ task.Type) (*task.AssignmentRule, error) {
	r.gets++
	return r.rules[typ], nil
}

func (r *countingRules) Upsert(_ context.Context, rule *task.AssignmentRule) error {
	r.rules[rule.TaskType] = rule
	return nil
}

func TestCachedRuleStore(t *testing.T) {
	client, _ := newTestClient(t)
	repo := &countingRules{rules: map[task.Type]*task.AssignmentRule{
		task.TypeRenewal: {TaskType: task.TypeRenewal, AssigneeIDs: []string{"u-1"}},
	}}
	store := NewCachedRuleStore(repo, NewRedisCache(client, nil), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rule, err := store.GetAssignmentRule(ctx, task.TypeRenewal)
		require.NoError(t, err)
		assert.Equal(t, "u-1", rule.PrimaryAssignee())
	}
	assert.Equal(t, 1, repo.gets)

	none, err := store.GetAssignmentRule(ctx, task.TypeSuit)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, store.Upsert(ctx, &task.AssignmentRule{TaskType: task.TypeRenewal, AssigneeIDs: []string{"u-9"}}))
	rule, err := store.GetAssignmentRule(ctx, task.TypeRenewal)
	require.NoError(t, err)
	assert.Equal(t, "u-9", rule.PrimaryAssignee())
}

type stubBulletins struct {
	entries map[string]*asset.Bulletin
	calls   int
	err     error
}

func (s *stubBulletins) FetchBulletin(_ context.Context, id string) (*asset.Bulletin, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for _, b := range s.entries {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, errors.Newf(errors.ErrCodeBulletinNotFound, "bulletin %s not found", id)
}

func (s *stubBulletins) FindByApplicationNumber(_ context.Context, appNo string) (*asset.Bulletin, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if b, ok := s.entries[appNo]; ok {
		return b, nil
	}
	return nil, errors.Newf(errors.ErrCodeBulletinNotFound, "bulletin %s not found", appNo)
}

func TestCachedBulletinSource(t *testing.T) {
	client, _ := newTestClient(t)
	src := &stubBulletins{entries: map[string]*asset.Bulletin{
		"2026/012345": {ID: "b-1", BulletinNo: "451", ApplicationNumber: "2026/012345", BrandText: "RIVAL"},
	}}
	cached := NewCachedBulletinSource(src, NewRedisCache(client, nil), time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		b, err := cached.FindByApplicationNumber(ctx, "2026/012345")
		require.NoError(t, err)
		assert.Equal(t, "RIVAL", b.BrandText)
	}
	b, err := cached.FetchBulletin(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "451", b.BulletinNo)
	assert.Equal(t, 2, src.calls)

	for i := 0; i < 2; i++ {
		_, err = cached.FindByApplicationNumber(ctx, "1999/1")
		assert.True(t, errors.IsCode(err, errors.ErrCodeBulletinNotFound))
	}
	assert.Equal(t, 3, src.calls)

	src.err = errors.New(errors.ErrCodeBulletinUnavailable, "feed down")
	for i := 0; i < 2; i++ {
		_, err = cached.FetchBulletin(ctx, "b-404")
		assert.True(t, errors.IsCode(err, errors.ErrCodeBulletinUnavailable))
	}
	assert.Equal(t, 5, src.calls, "upstream failures are not cached")
}

type stubHolidays struct{ calls int }

func (s *stubHolidays) Holidays(context.Context, time.Time, time.Time) ([]calendar.Holiday, error) {
	s.calls++
	return []calendar.Holiday{{Name: "Kurban Bayramı", Month: time.May, Day: 27, Year: 2026}}, nil
}

func TestCachedHolidayProvider(t *testing.T) {
	client, _ := newTestClient(t)
	src := &stubHolidays{}
	p := NewCachedHolidayProvider(src, NewRedisCache(client, nil), time.Hour)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	for i := 0; i < 2; i++ {
		got, err := p.Holidays(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, time.May, got[0].Month)
	}
	assert.Equal(t, 1, src.calls)
}

//Personal.AI order the ending
