package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vmunix/fixturesync/internal/dom"
)

// pageKV keeps state in the automated tab's session storage.
type pageKV struct {
	storage dom.Storage
}

// NewPage returns a Store over page-scoped storage.
func NewPage(storage dom.Storage) Store {
	return New(&pageKV{storage: storage})
}

func (p *pageKV) Get(_ context.Context, key string) (string, bool, error) {
	return p.storage.Get(key)
}

func (p *pageKV) Set(_ context.Context, key, value string) error {
	return p.storage.Set(key, value)
}

func (p *pageKV) Remove(_ context.Context, key string) error {
	return p.storage.Remove(key)
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemory returns a Store kept in process memory.
func NewMemory() Store {
	return New(&MemoryKV{m: make(map[string]string)})
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
	return nil
}

// sqliteKV stores state in the job_state table.
type sqliteKV struct {
	db *sql.DB
}

// NewSQLite returns a Store over the job_state table of db.
func NewSQLite(db *sql.DB) Store {
	return New(&sqliteKV{db: db})
}

func (s *sqliteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM job_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *sqliteKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *sqliteKV) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM job_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// redisKV stores state under a key prefix in Redis.
type redisKV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis returns a Store in Redis. Keys are namespaced by keyPrefix; a
// non-zero ttl expires abandoned jobs.
func NewRedis(client *redis.Client, keyPrefix string, ttl time.Duration) Store {
	return New(&redisKV{client: client, prefix: keyPrefix, ttl: ttl})
}

func (r *redisKV) key(k string) string { return r.prefix + k }

func (r *redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *redisKV) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
