package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"chatbot/internal/domain"
)

type record struct {
	ID string
}

// fakeStore counts calls per lookup kind
type fakeStore struct {
	external    map[string]*record
	internal    map[string]*record
	internalErr error
	extCalls    int
	intCalls    int
}

func (f *fakeStore) byExternal(_ context.Context, id string) (*record, error) {
	f.extCalls++
	if r, ok := f.external[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
}

func (f *fakeStore) byInternal(_ context.Context, id string) (*record, error) {
	f.intCalls++
	if f.internalErr != nil {
		return nil, f.internalErr
	}
	if r, ok := f.internal[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
}

func newTestResolver(store *fakeStore) *Resolver[record] {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store.byExternal, store.byInternal, ChatPolicy, logger)
}

func TestResolveExternalFirst(t *testing.T) {
	store := &fakeStore{
		external: map[string]*record{"0b3f9a4e-1111-4c2d-9e8f-000000000001": {ID: "ext"}},
	}
	r := newTestResolver(store)

	got, err := r.Resolve(context.Background(), "0b3f9a4e-1111-4c2d-9e8f-000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "ext" {
		t.Errorf("got %q, want ext", got.ID)
	}
	if store.intCalls != 0 {
		t.Errorf("internal lookup called %d times, want 0", store.intCalls)
	}
}

func TestResolveHyphenatedNeverHitsInternal(t *testing.T) {
	store := &fakeStore{
		internal: map[string]*record{"a-b": {ID: "should-not-match"}},
	}
	r := newTestResolver(store)

	_, err := r.Resolve(context.Background(), "a-b")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.intCalls != 0 {
		t.Errorf("internal lookup called %d times for hyphenated id", store.intCalls)
	}
}

func TestResolveInternalFallback(t *testing.T) {
	store := &fakeStore{
		internal: map[string]*record{"4f1c2b7d9e8a4c3b8d7e6f5a4b3c2d1e": {ID: "int"}},
	}
	r := newTestResolver(store)

	got, err := r.Resolve(context.Background(), "4f1c2b7d9e8a4c3b8d7e6f5a4b3c2d1e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "int" {
		t.Errorf("got %q, want int", got.ID)
	}
}

func TestResolveSwallowsInternalErrors(t *testing.T) {
	store := &fakeStore{internalErr: errors.New("invalid input syntax")}
	r := newTestResolver(store)

	_, err := r.Resolve(context.Background(), "deadbeef")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.intCalls != 1 {
		t.Errorf("internal lookup called %d times, want 1", store.intCalls)
	}
}

func TestResolveExternalFailurePropagates(t *testing.T) {
	boom := errors.New("connection reset")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	failing := func(context.Context, string) (*record, error) { return nil, boom }
	internalCalled := false
	internal := func(context.Context, string) (*record, error) {
		internalCalled = true
		return &record{}, nil
	}
	r := New(failing, internal, ChatPolicy, logger)

	_, err := r.Resolve(context.Background(), "deadbeef")
	if !errors.Is(err, boom) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("infrastructure failure must not look like not found")
	}
	if internalCalled {
		t.Error("internal lookup ran after external failure")
	}
}

func TestResolveRepeatedMissesStayNotFound(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "nothere")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("attempt %d: expected ErrNotFound, got %v", i, err)
		}
	}
	if len(store.external) != 0 || len(store.internal) != 0 {
		t.Error("resolver must not create records")
	}
}

func TestResolveEmptyID(t *testing.T) {
	store := &fakeStore{}
	r := newTestResolver(store)

	if _, err := r.Resolve(context.Background(), ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.extCalls != 0 {
		t.Error("empty id reached the store")
	}
}
