// Package ratelimit throttles public submissions with a fixed window counter
// kept in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is how long until the current window closes.
	Reset time.Duration
}

type Limiter struct {
	client    *redis.Client
	limit     int
	window    time.Duration
	keyPrefix string
}

// New returns a limiter allowing limit hits per window for each client. A nil
// client yields a limiter that allows everything.
func New(client *redis.Client, limit int, window time.Duration, keyPrefix string) *Limiter {
	return &Limiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.client != nil && l.limit > 0
}

// Allow counts a hit for clientID. On Redis errors the hit is allowed and the
// error returned so the caller can log it.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}

	key := l.keyPrefix + ":" + clientID

	// the window key and its expiry are created in the same MULTI as the INCR
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.window)
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{Allowed: true, Limit: l.limit}, fmt.Errorf("count %s: %w", key, err)
	}

	count := incr.Val()
	reset := ttl.Val()
	if reset < 0 {
		reset = l.window
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
