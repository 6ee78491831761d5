package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/jobnotify/pkg/logger"
)

// DefaultRedisPrefix namespaces Redis channels used by RedisLayer.
const DefaultRedisPrefix = "jobnotify:"

// RedisLayer fans publishes out to every process over Redis pub/sub.
//
// Membership is process-local and kept in a MemoryLayer, so the join/leave
// guarantees of MemoryLayer hold. Publish only writes to Redis; Run relays
// messages received from Redis (including this process's own) into the local
// groups.
type RedisLayer struct {
	client redis.UniversalClient
	local  *MemoryLayer
	prefix string
	logger *slog.Logger
	ready  chan struct{}
	once   sync.Once
}

// RedisLayerOption configures a RedisLayer.
type RedisLayerOption func(*RedisLayer)

// WithRedisPrefix overrides DefaultRedisPrefix.
func WithRedisPrefix(prefix string) RedisLayerOption {
	return func(l *RedisLayer) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithRedisLogger sets the logger for relay errors.
func WithRedisLogger(log *slog.Logger) RedisLayerOption {
	return func(l *RedisLayer) {
		if log != nil {
			l.logger = log
		}
	}
}

// NewRedisLayer creates a Redis-backed layer. Call Run to start relaying.
func NewRedisLayer(client redis.UniversalClient, opts ...RedisLayerOption) *RedisLayer {
	l := &RedisLayer{
		client: client,
		local:  NewMemoryLayer(),
		prefix: DefaultRedisPrefix,
		logger: slog.Default(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Join adds m to addr in this process.
func (l *RedisLayer) Join(ctx context.Context, addr Address, m Member) error {
	return l.local.Join(ctx, addr, m)
}

// Leave removes m from addr in this process.
func (l *RedisLayer) Leave(ctx context.Context, addr Address, m Member) error {
	return l.local.Leave(ctx, addr, m)
}

// Publish sends p to every process subscribed to the layer's prefix.
func (l *RedisLayer) Publish(ctx context.Context, addr Address, p Payload) error {
	if addr == "" {
		return ErrInvalidAddress
	}
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	if err := l.client.Publish(ctx, l.prefix+string(addr), data).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// SetDeliveryHook forwards to the local layer.
func (l *RedisLayer) SetDeliveryHook(fn func(addr Address, delivered, dropped int)) {
	l.local.SetDeliveryHook(fn)
}

// Members returns the number of local members joined to addr.
func (l *RedisLayer) Members(addr Address) int {
	return l.local.Members(addr)
}

// Ready is closed once the Redis subscription is confirmed.
func (l *RedisLayer) Ready() <-chan struct{} {
	return l.ready
}

// Run subscribes to the layer's channels and relays incoming payloads to
// local members until ctx is cancelled.
func (l *RedisLayer) Run(ctx context.Context) error {
	ps := l.client.PSubscribe(ctx, l.prefix+"*")
	defer func() { _ = ps.Close() }()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to redis channels: %w", err)
	}
	l.once.Do(func() { close(l.ready) })

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			l.relay(ctx, msg)
		}
	}
}

func (l *RedisLayer) relay(ctx context.Context, msg *redis.Message) {
	addr := Address(strings.TrimPrefix(msg.Channel, l.prefix))

	var p Payload
	if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
		l.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping malformed broadcast payload",
			logger.Address(addr),
			logger.Error(err),
		)
		return
	}

	if err := l.local.Publish(ctx, addr, p); err != nil {
		l.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to relay broadcast payload",
			logger.Address(addr),
			logger.Error(err),
		)
	}
}
