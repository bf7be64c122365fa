// Package budget caps daily text generation spend with a Redis counter.
package budget

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyTTL = 48 * time.Hour

// Daily counts generation tokens per UTC day. A nil client or a
// non-positive limit means unlimited. Redis errors fail open: generation is
// allowed and the spend is not recorded.
type Daily struct {
	rdb    *redis.Client
	limit  int64
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

func NewDaily(rdb *redis.Client, limit int64, logger *slog.Logger) *Daily {
	return &Daily{
		rdb:    rdb,
		limit:  limit,
		prefix: "drivequiz:tokens:",
		logger: logger,
		now:    time.Now,
	}
}

func (d *Daily) key() string {
	return d.prefix + d.now().UTC().Format("2006-01-02")
}

func (d *Daily) enabled() bool {
	return d.rdb != nil && d.limit > 0
}

// Allow reports whether today's spend is still under the limit.
func (d *Daily) Allow(ctx context.Context) bool {
	if !d.enabled() {
		return true
	}
	used, err := d.Used(ctx)
	if err != nil {
		d.logger.Warn("reading token budget", "error", err)
		return true
	}
	return used < d.limit
}

// Used returns today's recorded spend.
func (d *Daily) Used(ctx context.Context) (int64, error) {
	if d.rdb == nil {
		return 0, nil
	}
	used, err := d.rdb.Get(ctx, d.key()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return used, err
}

// Record adds tokens to today's counter.
func (d *Daily) Record(ctx context.Context, tokens int) {
	if !d.enabled() || tokens <= 0 {
		return
	}
	key := d.key()
	pipe := d.rdb.TxPipeline()
	pipe.IncrBy(ctx, key, int64(tokens))
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Warn("recording token spend", "tokens", tokens, "error", err)
	}
}
