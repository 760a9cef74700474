package services

import (
	"context"
	"fmt"
	"strings"

	"expensectl/internal/log"
	"expensectl/internal/validator"
)

type NameForm struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

type PasswordForm struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,nefield=OldPassword"`
}

// ProfileService changes the display name and password. The two requests
// are independent of each other.
type ProfileService struct {
	api    API
	logger *log.Logger
}

func NewProfileService(api API, logger *log.Logger) *ProfileService {
	return &ProfileService{
		api:    api,
		logger: log.OrDiscard(logger).WithComponent(log.ComponentProfile),
	}
}

// ChangeName returns the server's confirmation message verbatim.
func (s *ProfileService) ChangeName(ctx context.Context, form *NameForm) (string, error) {
	body := NameForm{Name: strings.TrimSpace(form.Name)}
	if err := validator.Struct(body); err != nil {
		return "", err
	}

	var resp messageResponse
	if err := s.api.Put(ctx, "/user/change-name", body, &resp); err != nil {
		return "", fmt.Errorf("change name: %w", err)
	}
	s.logger.InfoContext(ctx, "Display name changed")
	return resp.Message, nil
}

// ChangePassword clears both password fields on success only.
func (s *ProfileService) ChangePassword(ctx context.Context, form *PasswordForm) (string, error) {
	if err := validator.Struct(form); err != nil {
		return "", err
	}

	var resp messageResponse
	if err := s.api.Put(ctx, "/user/change-password", form, &resp); err != nil {
		return "", fmt.Errorf("change password: %w", err)
	}
	form.OldPassword = ""
	form.NewPassword = ""
	s.logger.InfoContext(ctx, "Password changed")
	return resp.Message, nil
}
