package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/nearby/internal/db"
	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/export"
)

// mockKVStore is an in-memory store for tests.
type mockKVStore struct {
	data    map[string][]byte
	lastTTL time.Duration
	setErr  error
	getErr  error
	pingErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.lastTTL = ttl
	return nil
}

func (m *mockKVStore) Ping(_ context.Context) error { return m.pingErr }

func TestRepo_PutGet(t *testing.T) {
	ms := newMockKVStore()
	r := New(ms, 10*time.Minute)
	ctx := context.Background()

	if err := r.Put(ctx, "abc", export.FormatCSV, []byte("Name\n")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := ms.data["nearby:export:abc:csv"]; !ok {
		t.Errorf("unexpected keys: %v", ms.data)
	}
	if ms.lastTTL != 10*time.Minute {
		t.Errorf("ttl = %v", ms.lastTTL)
	}

	got, err := r.Get(ctx, "abc", export.FormatCSV)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "Name\n" {
		t.Errorf("got %q", got)
	}
}

func TestRepo_GetMissing(t *testing.T) {
	r := New(newMockKVStore(), 0)
	_, err := r.Get(context.Background(), "abc", export.FormatParquet)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRepo_StoreErrors(t *testing.T) {
	ms := newMockKVStore()
	ms.setErr = errors.New("OOM")
	ms.getErr = errors.New("broken pipe")
	r := New(ms, 0)

	if err := r.Put(context.Background(), "abc", export.FormatCSV, nil); !errors.Is(err, ms.setErr) {
		t.Errorf("Put error = %v", err)
	}
	_, err := r.Get(context.Background(), "abc", export.FormatCSV)
	if !errors.Is(err, ms.getErr) || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get error = %v", err)
	}
}

func TestNew_DefaultTTL(t *testing.T) {
	ms := newMockKVStore()
	r := New(ms, 0)
	_ = r.Put(context.Background(), "x", export.FormatGeoJSON, []byte("{}"))
	if ms.lastTTL != DefaultTTL {
		t.Errorf("ttl = %v, want %v", ms.lastTTL, DefaultTTL)
	}
}
