package budget

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// deadRedis points at a port nothing listens on.
func deadRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestDailyWithoutRedisIsUnlimited(t *testing.T) {
	d := NewDaily(nil, 100, discard())
	d.Record(context.Background(), 1000)
	assert.True(t, d.Allow(context.Background()))

	used, err := d.Used(context.Background())
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestDailyZeroLimitIsUnlimited(t *testing.T) {
	d := NewDaily(deadRedis(t), 0, discard())
	assert.True(t, d.Allow(context.Background()))
}

func TestDailyFailsOpen(t *testing.T) {
	d := NewDaily(deadRedis(t), 100, discard())
	assert.True(t, d.Allow(context.Background()))
	d.Record(context.Background(), 10)

	_, err := d.Used(context.Background())
	assert.Error(t, err)
}

func TestDailyKeyRollsOverAtUTCMidnight(t *testing.T) {
	d := NewDaily(nil, 1, discard())
	jst := time.FixedZone("JST", 9*3600)
	d.now = func() time.Time { return time.Date(2026, 10, 17, 8, 59, 0, 0, jst) }
	assert.Equal(t, "drivequiz:tokens:2026-10-16", d.key())

	d.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, jst) }
	assert.Equal(t, "drivequiz:tokens:2026-10-17", d.key())
}
