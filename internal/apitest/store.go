// Package apitest is an in-memory implementation of the expense tracker REST
// API for tests. It speaks the same JSON shapes and status codes as the real
// server, issues HS256 tokens and filters expenses server-side.
package apitest

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"expensectl/internal/core"
)

var (
	errUserExists   = errors.New("User already exists")
	errBadLogin     = errors.New("Invalid credentials")
	errBadPassword  = errors.New("Old password is incorrect")
	errNotFound     = errors.New("Expense not found")
	errUnknownUser  = errors.New("User not found")
	errMissingField = errors.New("All fields are required")
)

type user struct {
	id       string
	name     string
	email    string
	password string
}

type record struct {
	owner string
	core.Expense
}

// Store holds users and expenses.
type Store struct {
	mu      sync.Mutex
	now     func() time.Time
	seq     int
	users   map[string]*user // by email
	records []record
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now, users: make(map[string]*user)}
}

func (s *Store) nextID() string {
	s.seq++
	return strconv.Itoa(s.seq)
}

// AddUser registers a user.
func (s *Store) AddUser(name, email, password string) error {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return errMissingField
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return errUserExists
	}
	s.users[email] = &user{id: "u" + s.nextID(), name: name, email: email, password: password}
	return nil
}

func (s *Store) authenticate(email, password string) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || u.password != password {
		return nil, errBadLogin
	}
	return u, nil
}

func (s *Store) userByEmail(email string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	return u, ok
}

func (s *Store) userByID(id string) (*user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.id == id {
			return u, true
		}
	}
	return nil, false
}

// Name returns the current display name of the user with email.
func (s *Store) Name(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[strings.ToLower(email)]; ok {
		return u.name
	}
	return ""
}

func (s *Store) rename(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.id == id {
			u.name = name
			return nil
		}
	}
	return errUnknownUser
}

func (s *Store) changePassword(id, oldPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.id != id {
			continue
		}
		if u.password != oldPassword {
			return errBadPassword
		}
		u.password = newPassword
		return nil
	}
	return errUnknownUser
}

// Seed inserts expenses for the user with email, keeping their timestamps.
// Missing ids and timestamps are filled in.
func (s *Store) Seed(email string, expenses ...core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return
	}
	for _, e := range expenses {
		if e.ID == "" {
			e.ID = "e" + s.nextID()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.now().UTC()
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = e.CreatedAt
		}
		s.records = append(s.records, record{owner: u.id, Expense: e})
	}
}

func (s *Store) create(owner string, in core.ExpenseInput) core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	e := core.Expense{
		ID:        "e" + s.nextID(),
		Title:     in.Title,
		Amount:    in.Amount,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records = append(s.records, record{owner: owner, Expense: e})
	return e
}

func (s *Store) update(owner, id string, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		r := &s.records[i]
		if r.owner != owner || r.ID != id {
			continue
		}
		r.Title, r.Amount, r.Category = in.Title, in.Amount, in.Category
		r.UpdatedAt = s.now().UTC()
		return r.Expense, nil
	}
	return core.Expense{}, errNotFound
}

func (s *Store) delete(owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.owner == owner && r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

// Expenses returns every stored expense of the user with email.
func (s *Store) Expenses(email string) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil
	}
	var out []core.Expense
	for _, r := range s.records {
		if r.owner == u.id {
			out = append(out, r.Expense)
		}
	}
	return out
}

// query applies the filter: day means the server's current date, month and
// year use the requested year/month. Newest first.
func (s *Store) query(owner string, f core.FilterState) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.now().UTC()
	out := []core.Expense{}
	for _, r := range s.records {
		if r.owner != owner {
			continue
		}
		at := r.CreatedAt.UTC()
		switch f.Granularity {
		case core.Day:
			if at.Year() != today.Year() || at.YearDay() != today.YearDay() {
				continue
			}
		case core.Month:
			if at.Year() != f.Year || int(at.Month()) != f.Month {
				continue
			}
		case core.Year:
			if at.Year() != f.Year {
				continue
			}
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.Min != nil && r.Amount.Cents < f.Min.Cents {
			continue
		}
		if f.Max != nil && r.Amount.Cents > f.Max.Cents {
			continue
		}
		out = append(out, r.Expense)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
