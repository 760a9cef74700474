// Package navigation is the explicit navigation capability handed to the
// gateway and guard. The router owns the current view, so "already there"
// checks compare view values instead of path strings.
package navigation

import (
	"context"
	"sync"

	"expensectl/internal/log"
)

// View is a named screen of the client.
type View string

const (
	Landing     View = "landing"
	Login       View = "login"
	Register    View = "register"
	Dashboard   View = "dashboard"
	ServerError View = "server-error"
	NotFound    View = "not-found"
)

// Path returns the route the view is served at.
func (v View) Path() string {
	if v == Landing {
		return "/"
	}
	return "/" + string(v)
}

// Navigator moves the client to a view. It reports whether a transition
// actually happened; navigating to the current view is a no-op.
type Navigator interface {
	Navigate(ctx context.Context, to View) bool
	Current() View
}

// Listener observes completed transitions.
type Listener func(from, to View)

type Router struct {
	mu        sync.Mutex
	current   View
	history   []View
	listeners []Listener
	logger    *log.Logger
}

var _ Navigator = (*Router)(nil)

func NewRouter(start View, logger *log.Logger) *Router {
	return &Router{
		current: start,
		logger:  log.OrDiscard(logger).WithComponent(log.ComponentNavigation),
	}
}

// Navigate switches to view unless it is already current.
func (r *Router) Navigate(ctx context.Context, to View) bool {
	r.mu.Lock()
	from := r.current
	if from == to {
		r.mu.Unlock()
		r.logger.DebugContext(ctx, "Navigation skipped, already on view", log.FieldView, string(to))
		return false
	}
	r.current = to
	r.history = append(r.history, to)
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Navigated", "from", string(from), log.FieldView, string(to))
	for _, l := range listeners {
		l(from, to)
	}
	return true
}

func (r *Router) Current() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History lists every view entered through Navigate, oldest first.
func (r *Router) History() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.history...)
}

// OnNavigate registers l for future transitions.
func (r *Router) OnNavigate(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}
