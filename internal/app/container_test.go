package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Driver = "sqlite"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "docket.db")
	return cfg
}

func checkerNames(c *Container) []string {
	var names []string
	for _, ch := range c.Checkers() {
		names = append(names, ch.Name())
	}
	return names
}

func TestNew_SQLiteOnly(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Metrics.Enabled = true

	c, err := New(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Tasks)
	assert.NotNil(t, c.Sequencer)
	assert.NotNil(t, c.Billing)
	assert.NotNil(t, c.Metrics)
	assert.Nil(t, c.Files)
	assert.Nil(t, c.Bulletins)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.SubmitGuard())
	assert.Equal(t, []string{"sqlite"}, checkerNames(c))

	for _, ch := range c.Checkers() {
		assert.NoError(t, ch.Check(context.Background()))
	}
}

func TestNew_SubmitAndReadBack(t *testing.T) {
	c, err := New(context.Background(), sqliteConfig(t), nil)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	res, err := c.SubmitService().Submit(ctx, &tasking.SubmitInput{
		TaskType:  "general",
		Title:     "Call the client",
		Billing:   tasking.BillingInput{Free: true},
		CreatedBy: "u-1",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Task)

	got, err := c.LifecycleService().Get(ctx, res.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Call the client", got.Title)

	search, err := c.SearchService().Search(ctx, "nothing stored", 10)
	require.NoError(t, err)
	assert.Empty(t, search.Hits)

	assert.NotNil(t, c.EffectExecutor())
	assert.NotNil(t, c.Exporter())
}

func TestNew_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	c, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.ElementsMatch(t, []string{"sqlite", "redis"}, checkerNames(c))

	guard := c.SubmitGuard()
	require.NotNil(t, guard)

	ctx := context.Background()
	release, err := guard.Acquire(ctx, "u-1:form-000042")
	require.NoError(t, err)

	_, err = guard.Acquire(ctx, "u-1:form-000042")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubmissionInProgress))

	release(ctx)
	release2, err := guard.Acquire(ctx, "u-1:form-000042")
	require.NoError(t, err)
	release2(ctx)

	rule, err := c.Rules.GetAssignmentRule(ctx, "renewal")
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	c, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNew_BadLocation(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Calendar.Location = "Mars/Olympus_Mons"

	c, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Storage.Driver = "mongo"

	c, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNew_KafkaWithoutBrokers(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil

	c, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNew_BulletinClient(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Bulletin.BaseURL = "http://bulletins.invalid/api"

	c, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer c.Close()
	assert.NotNil(t, c.Bulletins)
}

//Personal.AI order the ending
