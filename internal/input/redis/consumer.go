// Package redis drains incident snapshots queued on a Redis list.
package redis

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// Config configures the snapshot source.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	// MaxDocuments bounds one drain. Zero means drain until empty.
	MaxDocuments int
}

// Source pops queued incident documents off a Redis list. One list
// element is one complete snapshot document, pushed by the collector.
type Source struct {
	client *redis.Client
	key    string
	max    int
}

// NewSource connects a snapshot source to the configured list.
func NewSource(cfg Config) (*Source, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Source{
		client: client,
		key:    cfg.Key,
		max:    cfg.MaxDocuments,
	}, nil
}

// Drain pops documents until the list is empty or MaxDocuments is
// reached. Each returned element is one raw snapshot document.
func (s *Source) Drain(ctx context.Context) ([][]byte, error) {
	var docs [][]byte
	for s.max == 0 || len(docs) < s.max {
		raw, err := s.client.LPop(ctx, s.key).Bytes()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return docs, fmt.Errorf("pop snapshot from %s: %w", s.key, err)
		}
		docs = append(docs, raw)
	}
	return docs, nil
}

// Close releases the client connection.
func (s *Source) Close() error {
	return s.client.Close()
}
