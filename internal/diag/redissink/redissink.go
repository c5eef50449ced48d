// Package redissink mirrors scope diagnostics snapshots into Redis so an
// external dashboard can poll container state without a direct connection to
// the process that owns it. It is purely observational: nothing here
// participates in resolution or lifecycle.
package redissink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oja-gamez/oja-injection/internal/engine"
)

// Config is the connection and namespacing configuration for a Sink.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Sink writes scope and dispatcher snapshots to Redis under keys namespaced
// by Prefix, each bounded by TTL so a crashed process's last snapshot
// eventually expires instead of lying forever.
type Sink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Connect dials Redis and verifies the connection with a Ping.
func Connect(cfg Config) (*Sink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redissink: connect: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Sink{client: client, prefix: cfg.Prefix, ttl: ttl}, nil
}

// PublishScope writes snap under the scope's own key.
func (s *Sink) PublishScope(ctx context.Context, snap engine.ScopeDebug) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redissink: marshal scope snapshot: %w", err)
	}
	key := fmt.Sprintf("%s:scope:%s", s.prefix, snap.ScopeID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redissink: write scope snapshot: %w", err)
	}
	return nil
}

// PublishTick writes the dispatcher's debug snapshot under a fixed key, since
// there is exactly one dispatcher per container.
func (s *Sink) PublishTick(ctx context.Context, info any) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("redissink: marshal tick snapshot: %w", err)
	}
	key := fmt.Sprintf("%s:tick", s.prefix)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redissink: write tick snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}
