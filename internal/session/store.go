// Package session owns the authentication token and the remembered login
// email. Nothing else in the client reads or writes the underlying tiers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expensectl/internal/log"
)

const (
	keyToken = "token"
	keyEmail = "email"
)

// Kind names the tier a session lives in.
type Kind string

const (
	Durable   Kind = "durable"
	Ephemeral Kind = "ephemeral"
)

var ErrEmptyToken = errors.New("session token is empty")

// Store holds at most one logical session across a durable and an ephemeral tier.
type Store struct {
	mu        sync.Mutex
	durable   Tier
	ephemeral Tier
	logger    *log.Logger
}

func NewStore(durable, ephemeral Tier, logger *log.Logger) *Store {
	return &Store{
		durable:   durable,
		ephemeral: ephemeral,
		logger:    log.OrDiscard(logger).WithComponent(log.ComponentSession),
	}
}

// Set stores token in the durable tier when remember is true, otherwise in the
// ephemeral tier. The other tier's token is removed first. A non-remembered
// session also forgets the remembered email.
func (s *Store) Set(ctx context.Context, token string, remember bool) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, other, kind := s.ephemeral, s.durable, Ephemeral
	if remember {
		target, other, kind = s.durable, s.ephemeral, Durable
	}

	if err := other.Delete(ctx, keyToken); err != nil {
		return fmt.Errorf("clear %s token: %w", other.Name(), err)
	}
	if !remember {
		if err := s.durable.Delete(ctx, keyEmail); err != nil {
			return fmt.Errorf("clear remembered email: %w", err)
		}
	}
	if err := target.Set(ctx, keyToken, token); err != nil {
		return fmt.Errorf("store %s token: %w", target.Name(), err)
	}

	s.logger.InfoContext(ctx, "Session stored", log.FieldTier, string(kind))
	return nil
}

// Get returns the durable token if present, else the ephemeral one.
// A tier that fails to read is logged and treated as empty.
func (s *Store) Get(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, _, ok := s.lookup(ctx)
	return token, ok
}

// Tier reports which tier currently holds the session.
func (s *Store) Tier(ctx context.Context) (Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, kind, ok := s.lookup(ctx)
	return kind, ok
}

func (s *Store) lookup(ctx context.Context) (string, Kind, bool) {
	for _, t := range []struct {
		tier Tier
		kind Kind
	}{{s.durable, Durable}, {s.ephemeral, Ephemeral}} {
		v, ok, err := t.tier.Get(ctx, keyToken)
		if err != nil {
			s.logger.WarnContext(ctx, "Session tier read failed", log.FieldTier, string(t.kind), log.FieldError, err)
			continue
		}
		if ok && v != "" {
			return v, t.kind, true
		}
	}
	return "", "", false
}

// Clear removes the token from both tiers. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := errors.Join(
		s.durable.Delete(ctx, keyToken),
		s.ephemeral.Delete(ctx, keyToken),
	)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.InfoContext(ctx, "Session cleared")
	return nil
}

// ClearIf clears the session only while it still holds token, or holds nothing.
// It reports whether the stored session was cleared or already empty, which
// lets concurrent 401 handlers leave a newer login untouched.
func (s *Store) ClearIf(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, _, ok := s.lookup(ctx)
	if ok && current != token {
		return false, nil
	}
	if !ok {
		return true, nil
	}
	err := errors.Join(
		s.durable.Delete(ctx, keyToken),
		s.ephemeral.Delete(ctx, keyToken),
	)
	if err != nil {
		return false, fmt.Errorf("clear session: %w", err)
	}
	s.logger.InfoContext(ctx, "Session cleared")
	return true, nil
}

// Remember persists email on the durable tier for login prefill.
func (s *Store) Remember(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.durable.Set(ctx, keyEmail, email); err != nil {
		return fmt.Errorf("remember email: %w", err)
	}
	return nil
}

// RememberedEmail returns the email saved by a previous "remember me" login.
func (s *Store) RememberedEmail(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok, err := s.durable.Get(ctx, keyEmail)
	if err != nil {
		s.logger.WarnContext(ctx, "Remembered email read failed", log.FieldError, err)
		return "", false
	}
	return v, ok && v != ""
}
