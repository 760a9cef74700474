// Package guard gates protected views on the presence of a session token.
// It never calls the server: an expired token passes here and is rejected by
// the next API call instead.
package guard

import (
	"context"
	"errors"

	"expensectl/internal/log"
	"expensectl/internal/navigation"
)

var ErrNotAuthenticated = errors.New("not logged in")

// TokenSource reports whether a session token exists.
type TokenSource interface {
	Get(ctx context.Context) (string, bool)
}

type Guard struct {
	sessions TokenSource
	nav      navigation.Navigator
	logger   *log.Logger
}

func New(sessions TokenSource, nav navigation.Navigator, logger *log.Logger) *Guard {
	return &Guard{
		sessions: sessions,
		nav:      nav,
		logger:   log.OrDiscard(logger).WithComponent(log.ComponentGuard),
	}
}

// Require returns nil when a session exists. Otherwise it redirects to login
// and returns ErrNotAuthenticated; the caller must render nothing protected.
func (g *Guard) Require(ctx context.Context) error {
	if _, ok := g.sessions.Get(ctx); ok {
		return nil
	}
	g.nav.Navigate(ctx, navigation.Login)
	g.logger.DebugContext(ctx, "Protected view denied without session")
	return ErrNotAuthenticated
}

// Enter checks the session and moves to view when allowed.
func (g *Guard) Enter(ctx context.Context, view navigation.View) error {
	if err := g.Require(ctx); err != nil {
		return err
	}
	g.nav.Navigate(ctx, view)
	return nil
}
