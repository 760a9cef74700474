package apitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"expensectl/internal/core"
	"expensectl/internal/validator"
)

// Interceptor may answer a request itself. Returning true skips the API.
type Interceptor func(w http.ResponseWriter, r *http.Request) bool

// Server is a running fake API. URL() is the base URL including /api.
type Server struct {
	*httptest.Server
	Store *Store

	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time

	requests atomic.Int64
	mu       sync.Mutex
	paths    []string
	hooks    []Interceptor
}

type Option func(*Server)

// WithClock fixes the server's notion of now for "day" filtering and token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("apitest-secret"),
		tokenTTL: time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Store = NewStore(s.now)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/expenses", s.authed(s.handleList))
	mux.HandleFunc("POST /api/expenses", s.authed(s.handleCreate))
	mux.HandleFunc("PUT /api/expenses/{id}", s.authed(s.handleUpdate))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.authed(s.handleDelete))
	mux.HandleFunc("PUT /api/user/change-name", s.authed(s.handleChangeName))
	mux.HandleFunc("PUT /api/user/change-password", s.authed(s.handleChangePassword))

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mu.Lock()
		s.paths = append(s.paths, r.Method+" "+r.URL.Path)
		hooks := append([]Interceptor(nil), s.hooks...)
		s.mu.Unlock()
		for _, h := range hooks {
			if h(w, r) {
				return
			}
		}
		mux.ServeHTTP(w, r)
	}))
	return s
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return s.Server.URL + "/api"
}

// Requests is the number of requests received so far.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// Paths lists "METHOD /path" for every request received.
func (s *Server) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Intercept installs a hook run before routing.
func (s *Server) Intercept(h Interceptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// AddUser registers a user directly.
func (s *Server) AddUser(name, email, password string) {
	if err := s.Store.AddUser(name, email, password); err != nil {
		panic("apitest: " + err.Error())
	}
}

// Token issues a token for email valid for ttl from the server clock.
// A negative ttl yields an already expired token.
func (s *Server) Token(email string, ttl time.Duration) string {
	u, ok := s.Store.userByEmail(email)
	if !ok {
		panic("apitest: unknown user " + email)
	}
	return s.sign(u, ttl)
}

func (s *Server) sign(u *user, ttl time.Duration) string {
	now := s.now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": u.id,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}).SignedString(s.secret)
	if err != nil {
		panic("apitest: sign token: " + err.Error())
	}
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *user)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		}, jwt.WithTimeFunc(s.now))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		sub, _ := claims.GetSubject()
		u, ok := s.Store.userByID(sub)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		next(w, r, u)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.Store.AddUser(body.Name, body.Email, body.Password); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, err := s.Store.authenticate(body.Email, body.Password)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.sign(u, s.tokenTTL)})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, u *user) {
	f, err := parseFilter(r.URL.Query(), s.now())
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Store.query(u.id, f))
}

func parseFilter(q url.Values, now time.Time) (core.FilterState, error) {
	f := core.DefaultFilter(now)
	if v := q.Get("type"); v != "" {
		g, err := core.ParseGranularity(v)
		if err != nil {
			return f, err
		}
		f.Granularity = g
	}
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("Invalid year")
		}
		f.Year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("Invalid month")
		}
		f.Month = m
	}
	if v := q.Get("category"); v != "" {
		f.Category = core.Category(v)
	}
	var err error
	if f.Min, err = core.ParseBound(q.Get("min")); err != nil {
		return f, errors.New("Invalid min amount")
	}
	if f.Max, err = core.ParseBound(q.Get("max")); err != nil {
		return f, errors.New("Invalid max amount")
	}
	return f, nil
}

func decodeExpense(w http.ResponseWriter, r *http.Request) (core.ExpenseInput, bool) {
	var in core.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return in, false
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validator.Struct(in); err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeMessage(w, http.StatusBadRequest, verr.Err.Error())
		} else {
			writeMessage(w, http.StatusBadRequest, err.Error())
		}
		return in, false
	}
	return in, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, u *user) {
	in, ok := decodeExpense(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, s.Store.create(u.id, in))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, u *user) {
	in, ok := decodeExpense(w, r)
	if !ok {
		return
	}
	e, err := s.Store.update(u.id, r.PathValue("id"), in)
	if err != nil {
		writeMessage(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, u *user) {
	if err := s.Store.delete(u.id, r.PathValue("id")); err != nil {
		writeMessage(w, http.StatusNotFound, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "Expense deleted")
}

func (s *Server) handleChangeName(w http.ResponseWriter, r *http.Request, u *user) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "Name is required")
		return
	}
	if err := s.Store.rename(u.id, strings.TrimSpace(body.Name)); err != nil {
		writeMessage(w, http.StatusNotFound, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "Name updated successfully")
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, u *user) {
	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OldPassword == "" || body.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "Both passwords are required")
		return
	}
	if err := s.Store.changePassword(u.id, body.OldPassword, body.NewPassword); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}
