package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestStore() (*Store, *MemoryTier, *EphemeralTier) {
	durable := NewMemoryTier("durable")
	ephemeral := NewEphemeralTier(time.Hour)
	return NewStore(durable, ephemeral, nil), durable, ephemeral
}

func TestStoreSetRemember(t *testing.T) {
	ctx := context.Background()
	s, durable, _ := newTestStore()

	if err := s.Set(ctx, "tok-1", true); err != nil {
		t.Fatal(err)
	}
	if tok, ok := s.Get(ctx); !ok || tok != "tok-1" {
		t.Fatalf("expected tok-1, got %q ok=%v", tok, ok)
	}
	if kind, _ := s.Tier(ctx); kind != Durable {
		t.Fatalf("expected durable tier, got %q", kind)
	}

	// A fresh store over the same durable tier simulates a restart
	reloaded := NewStore(durable, NewEphemeralTier(time.Hour), nil)
	if tok, ok := reloaded.Get(ctx); !ok || tok != "tok-1" {
		t.Fatalf("durable token lost on reload: %q ok=%v", tok, ok)
	}
}

func TestStoreSetEphemeral(t *testing.T) {
	ctx := context.Background()
	s, durable, ephemeral := newTestStore()

	if err := s.Remember(ctx, "ann@example.com"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "old", true); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "tok-2", false); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := durable.Get(ctx, keyToken); ok {
		t.Fatalf("durable token should be cleared by an ephemeral session")
	}
	if _, ok := s.RememberedEmail(ctx); ok {
		t.Fatalf("remembered email should be cleared by an ephemeral session")
	}
	if tok, ok := s.Get(ctx); !ok || tok != "tok-2" {
		t.Fatalf("expected tok-2, got %q ok=%v", tok, ok)
	}

	// Tab close
	ephemeral.End()
	if _, ok := s.Get(ctx); ok {
		t.Fatalf("expected no session after the ephemeral tier ended")
	}
}

func TestStoreDurableOverridesEphemeral(t *testing.T) {
	ctx := context.Background()
	s, _, ephemeral := newTestStore()

	if err := s.Set(ctx, "short", false); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "long", true); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := ephemeral.Get(ctx, keyToken); ok {
		t.Fatalf("ephemeral token should be cleared by a durable session")
	}
	if tok, _ := s.Get(ctx); tok != "long" {
		t.Fatalf("expected long, got %q", tok)
	}
}

func TestStoreClearIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clearing an empty store must not fail: %v", err)
	}
	if err := s.Set(ctx, "tok", true); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(ctx); ok {
		t.Fatalf("expected empty store")
	}
}

func TestStoreClearIf(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore()

	if err := s.Set(ctx, "new", false); err != nil {
		t.Fatal(err)
	}
	cleared, err := s.ClearIf(ctx, "stale")
	if err != nil || cleared {
		t.Fatalf("a stale token must not clear a newer session: cleared=%v err=%v", cleared, err)
	}
	if tok, _ := s.Get(ctx); tok != "new" {
		t.Fatalf("session changed unexpectedly: %q", tok)
	}

	cleared, err = s.ClearIf(ctx, "new")
	if err != nil || !cleared {
		t.Fatalf("expected clear, got cleared=%v err=%v", cleared, err)
	}
	cleared, err = s.ClearIf(ctx, "new")
	if err != nil || !cleared {
		t.Fatalf("empty store should report cleared, got cleared=%v err=%v", cleared, err)
	}
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	s, _, _ := newTestStore()
	if err := s.Set(context.Background(), "", true); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

type failingTier struct{ *MemoryTier }

func (f *failingTier) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestStoreGetSkipsBrokenTier(t *testing.T) {
	ctx := context.Background()
	ephemeral := NewEphemeralTier(time.Hour)
	s := NewStore(&failingTier{MemoryTier: NewMemoryTier("broken")}, ephemeral, nil)
	if err := ephemeral.Set(ctx, keyToken, "tok"); err != nil {
		t.Fatal(err)
	}
	if tok, ok := s.Get(ctx); !ok || tok != "tok" {
		t.Fatalf("expected fallback to ephemeral tier, got %q ok=%v", tok, ok)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(remember bool) {
			defer wg.Done()
			_ = s.Set(ctx, "tok", remember)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = s.Clear(ctx)
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, at most one tier holds the token
	s.mu.Lock()
	_, inDurable, _ := s.durable.Get(ctx, keyToken)
	_, inEphemeral, _ := s.ephemeral.Get(ctx, keyToken)
	s.mu.Unlock()
	if inDurable && inEphemeral {
		t.Fatalf("token present in both tiers")
	}
}

func TestInspect(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	info, err := Inspect(tok)
	if err != nil {
		t.Fatal(err)
	}
	if info.Subject != "user-1" || !info.ExpiresAt.Equal(exp) || info.Algorithm != "HS256" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Expired(exp.Add(-time.Minute)) || !info.Expired(exp.Add(time.Minute)) {
		t.Fatalf("expiry check wrong")
	}

	if _, err := Inspect("opaque-token"); err == nil {
		t.Fatalf("expected error for non-JWT token")
	}
}
