package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/flexbet/FlexCodeBot-Go/bot"
)

// Construction seams, swapped in tests.
var (
	newClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	ping = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
)

// New dials redis at addr, which is either host:port or a redis:// URL. An
// empty addr disables caching: the caller gets nil and no error, and every
// consumer treats a nil client as cache-off.
func New(ctx context.Context, logger bot.Logger, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("cache: parse redis url: %w", err)
		}
		opts = parsed
	}

	client := newClient(opts)
	if err := ping(ctx, client); err != nil {
		return nil, fmt.Errorf("cache: connect %s: %w", opts.Addr, err)
	}

	if logger != nil {
		logger.Info("cache: connected to redis", "addr", opts.Addr, "db", opts.DB)
	}
	return client, nil
}
