package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces job keys.
const KeyPrefix = "catalog:job:"

// RedisStore keeps jobs as JSON documents so several processes can poll the same batch.
// Terminal jobs are written with the TTL and left for Redis to expire.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// OpenRedis parses a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func key(id string) string { return KeyPrefix + id }

func (s *RedisStore) Get(ctx context.Context, id string) (*entity.ExtractionJob, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	var job entity.ExtractionJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisStore) Put(ctx context.Context, job *entity.ExtractionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	var ttl time.Duration
	if job.Status.IsTerminal() {
		ttl = s.ttl
	}
	if err := s.client.Set(ctx, key(job.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", job.ID, err)
	}
	return nil
}

// List scans the key space; it is meant for operators, not hot paths.
func (s *RedisStore) List(ctx context.Context) ([]*entity.ExtractionJob, error) {
	var out []*entity.ExtractionJob
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(KeyPrefix):]
		job, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
