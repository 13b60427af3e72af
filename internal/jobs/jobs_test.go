package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/bucketcart/storefront-gateway/pkg/logger"
)

type mockRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockRedis() *mockRedis {
	return &mockRedis{data: make(map[string]string)}
}

func (m *mockRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *mockRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(nil)
	if got := len(registry.Jobs()); got != 0 {
		t.Fatalf("expected empty registry, got %d", got)
	}
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newMockRedis()
	lock, err := NewRedisLock(store, "bc:lock:maintenance", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire, got ok=%v err=%v", ok, err)
	}

	second, err := NewRedisLock(store, "bc:lock:maintenance", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ok {
		t.Fatal("expected contended acquire to fail")
	}

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("expected acquire after release, got ok=%v err=%v", ok, err)
	}
}

func TestReleaseIgnoresStolenLock(t *testing.T) {
	store := newMockRedis()
	lock, err := NewRedisLock(store, "bc:lock:maintenance", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("acquire failed")
	}

	// Simulate TTL expiry plus takeover by another owner.
	store.mu.Lock()
	store.data["bc:lock:maintenance"] = "someone-else"
	store.mu.Unlock()

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.data["bc:lock:maintenance"] != "someone-else" {
		t.Fatal("release deleted a lock it no longer owned")
	}
}

type stubCleaner struct {
	cutoff  time.Time
	removed int64
	err     error
}

func (s *stubCleaner) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.removed, s.err
}

func TestProgressCleanupJobUsesRetention(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	cleaner := &stubCleaner{removed: 3}
	job, err := NewProgressCleanupJob(logg, cleaner, 720*time.Hour)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	job.(*progressCleanupJob).now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := fixed.Add(-720 * time.Hour)
	if !cleaner.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, cleaner.cutoff)
	}
}

func TestProgressCleanupJobPropagatesFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	cleaner := &stubCleaner{err: errors.New("state store offline")}
	job, err := NewProgressCleanupJob(logg, cleaner, time.Hour)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected propagated failure")
	}
}
