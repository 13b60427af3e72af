package favorites

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/bucketcart/storefront-gateway/pkg/backend"
)

type mockState struct {
	mu   sync.Mutex
	data map[string][]byte
	puts int
}

func newMockState() *mockState {
	return &mockState{data: make(map[string][]byte)}
}

func (m *mockState) Put(ctx context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.puts++
	return nil
}

func (m *mockState) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func TestAddIsIdempotent(t *testing.T) {
	t.Parallel()
	state := newMockState()
	svc, err := NewService(state)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	product := backend.Product{ID: "p1", Name: "Paneer"}
	if _, err := svc.Add(ctx, "u1", product); err != nil {
		t.Fatalf("add: %v", err)
	}
	putsAfterFirst := state.puts

	list, err := svc.Add(ctx, "u1", product)
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one favorite, got %d", len(list))
	}
	if state.puts != putsAfterFirst {
		t.Fatal("idempotent add should not persist again")
	}
}

func TestRemoveMissingIsNoOp(t *testing.T) {
	t.Parallel()
	svc, err := NewService(newMockState())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", backend.Product{ID: "p1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	list, err := svc.Remove(ctx, "u1", "ghost")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("favorites disturbed by no-op remove: %d", len(list))
	}
}

func TestFavoritesIsolatedPerUser(t *testing.T) {
	t.Parallel()
	svc, err := NewService(newMockState())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", backend.Product{ID: "p1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	list, err := svc.List(ctx, "u2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("favorites leaked across users: %d", len(list))
	}
}
