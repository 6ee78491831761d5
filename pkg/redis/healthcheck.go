package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthcheckTimeout bounds a readiness ping when the caller's context has no deadline.
const HealthcheckTimeout = 2 * time.Second

// Healthcheck returns the readiness check for the redis channel layer.
// Failures wrap ErrHealthcheckFailed and name the server address.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	addr := serverAddr(client)
	return func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, HealthcheckTimeout)
			defer cancel()
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: ping %s: %w", ErrHealthcheckFailed, addr, err)
		}
		return nil
	}
}

func serverAddr(client redis.UniversalClient) string {
	switch c := client.(type) {
	case *redis.Client:
		return c.Options().Addr
	case *redis.ClusterClient:
		return fmt.Sprint(c.Options().Addrs)
	default:
		return "redis"
	}
}
