package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeConflict, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// Releasing and extending only touch the key while it still holds our token.
var (
	unlockScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)
	extendScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// Mutex is a single-owner lock on one key. The token identifies the owner,
// so a holder whose TTL lapsed cannot release a successor's lock.
type Mutex struct {
	client     *Client
	key        string
	token      string
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
	logger     logging.Logger
}

type LockOption func(*Mutex)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(m *Mutex) { m.ttl = ttl }
}

func WithRetry(count int, delay time.Duration) LockOption {
	return func(m *Mutex) { m.retryCount, m.retryDelay = count, delay }
}

// NewMutex returns an unlocked mutex on key. The default TTL is 30s and
// Lock retries 30 times, 100ms apart.
func NewMutex(client *Client, key string, log logging.Logger, opts ...LockOption) *Mutex {
	if log == nil {
		log = logging.NewNopLogger()
	}
	m := &Mutex{
		client:     client,
		key:        key,
		token:      uuid.NewString(),
		ttl:        30 * time.Second,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
		logger:     log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TryLock takes the lock without waiting.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.token, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lock acquisition failed")
	}
	return ok, nil
}

// Lock retries TryLock until it succeeds, the retries run out or ctx ends.
func (m *Mutex) Lock(ctx context.Context) error {
	for i := 0; ; i++ {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if i >= m.retryCount {
			return ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.retryDelay):
		}
	}
}

// Unlock releases the lock. ErrLockNotHeld means it expired or was taken by
// another owner.
func (m *Mutex) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, m.client.Underlying(), []string{m.key}, m.token).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "lock release failed")
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Extend resets the TTL of a held lock.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, m.client.Underlying(), []string{m.key}, m.token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "lock extension failed")
	}
	return n == 1, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Submission lock
// ─────────────────────────────────────────────────────────────────────────────

// SubmitLock guards submissions that carry an idempotency key.
type SubmitLock struct {
	client *Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

// NewSubmitLock builds a SubmitLock. Keys live under prefix + "submit:".
func NewSubmitLock(client *Client, prefix string, ttl time.Duration, log logging.Logger) *SubmitLock {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SubmitLock{client: client, prefix: prefix + "submit:", ttl: ttl, logger: log.Named("submit_lock")}
}

// Acquire takes the lock for key. A key already held yields TASK_010. The
// returned release is safe to call once the submission ends.
func (l *SubmitLock) Acquire(ctx context.Context, key string) (func(context.Context), error) {
	m := NewMutex(l.client, l.prefix+key, l.logger, WithLockTTL(l.ttl))
	ok, err := m.TryLock(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf(errors.ErrCodeSubmissionInProgress, "submission %s is already in progress", key)
	}
	return func(ctx context.Context) {
		if err := m.Unlock(ctx); err != nil {
			l.logger.Warn("submit lock release failed", logging.String("key", key), logging.Err(err))
		}
	}, nil
}

//Personal.AI order the ending
