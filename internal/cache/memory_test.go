package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clock.now
	return s, clock
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := s.Get(ctx, "k"); err != nil || v != "v" {
		t.Fatalf("get: %q %v", v, err)
	}
	if err := s.Delete(ctx, "k", "other"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected key gone, got %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	_ = s.Set(ctx, "k", "v", time.Minute)
	clock.advance(59 * time.Second)
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("key expired early: %v", err)
	}
	clock.advance(2 * time.Second)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected expired key, got %v", err)
	}

	s.sweep()
	if len(s.items) != 0 {
		t.Fatalf("sweep left %d items", len(s.items))
	}
}

func TestMemoryStore_SetNX(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "once", "1", time.Hour)
	if err != nil || !ok {
		t.Fatalf("first SetNX: %v %v", ok, err)
	}
	ok, err = s.SetNX(ctx, "once", "2", time.Hour)
	if err != nil || ok {
		t.Fatalf("second SetNX should fail: %v %v", ok, err)
	}
	if v, _ := s.Get(ctx, "once"); v != "1" {
		t.Fatalf("value overwritten: %q", v)
	}

	clock.advance(2 * time.Hour)
	ok, err = s.SetNX(ctx, "once", "3", time.Hour)
	if err != nil || !ok {
		t.Fatalf("SetNX after expiry: %v %v", ok, err)
	}
}
