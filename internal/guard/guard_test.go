package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"expensectl/internal/navigation"
	"expensectl/internal/session"
)

func TestRequire(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewStore(session.NewMemoryTier("durable"), session.NewEphemeralTier(time.Hour), nil)
	router := navigation.NewRouter(navigation.Landing, nil)
	g := New(sessions, router, nil)

	if err := g.Enter(ctx, navigation.Dashboard); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if router.Current() != navigation.Login {
		t.Fatalf("expected redirect to login, got %q", router.Current())
	}

	// Any present token passes, even one the server would reject
	if err := sessions.Set(ctx, "expired-but-present", false); err != nil {
		t.Fatal(err)
	}
	if err := g.Enter(ctx, navigation.Dashboard); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
	if router.Current() != navigation.Dashboard {
		t.Fatalf("expected dashboard, got %q", router.Current())
	}
}
