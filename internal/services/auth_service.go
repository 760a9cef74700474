package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expensectl/internal/log"
	"expensectl/internal/navigation"
	"expensectl/internal/validator"
)

var ErrNoToken = errors.New("login response carried no token")

type RegisterForm struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Sessions is what authentication needs from the session store.
type Sessions interface {
	Set(ctx context.Context, token string, remember bool) error
	Clear(ctx context.Context) error
	Remember(ctx context.Context, email string) error
	RememberedEmail(ctx context.Context) (string, bool)
}

type AuthService struct {
	api      API
	sessions Sessions
	nav      navigation.Navigator
	logger   *log.Logger
}

func NewAuthService(api API, sessions Sessions, nav navigation.Navigator, logger *log.Logger) *AuthService {
	return &AuthService{
		api:      api,
		sessions: sessions,
		nav:      nav,
		logger:   log.OrDiscard(logger).WithComponent(log.ComponentAuth),
	}
}

// Register creates an account and moves to the login view.
func (s *AuthService) Register(ctx context.Context, form RegisterForm) (string, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	if err := validator.Struct(form); err != nil {
		return "", err
	}
	if err := s.api.Post(ctx, "/auth/register", form, nil); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	s.logger.InfoContext(ctx, "Account registered")
	s.nav.Navigate(ctx, navigation.Login)
	return MsgRegistered, nil
}

// Login stores the returned token in the tier chosen by remember and moves
// to the dashboard. A remembered login also keeps the email for prefill.
func (s *AuthService) Login(ctx context.Context, form LoginForm, remember bool) (string, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := validator.Struct(form); err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := s.api.Post(ctx, "/auth/login", form, &resp); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login: %w", ErrNoToken)
	}

	if err := s.sessions.Set(ctx, resp.Token, remember); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	if remember {
		if err := s.sessions.Remember(ctx, form.Email); err != nil {
			// the session itself is stored; prefill is a convenience
			s.logger.WarnContext(ctx, "Failed to remember email", log.FieldError, err)
		}
	}

	s.logger.InfoContext(ctx, "Logged in", "remember", remember)
	s.nav.Navigate(ctx, navigation.Dashboard)
	return MsgLoggedIn, nil
}

// Logout clears the session from both tiers and moves to login.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.InfoContext(ctx, "Logged out")
	s.nav.Navigate(ctx, navigation.Login)
	return nil
}

// PrefillEmail is the email remembered by the last "remember me" login.
func (s *AuthService) PrefillEmail(ctx context.Context) string {
	email, _ := s.sessions.RememberedEmail(ctx)
	return email
}
