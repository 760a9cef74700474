package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"expensectl/internal/core"
	"expensectl/internal/gateway"
)

func TestChangeName(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	svc := NewProfileService(h.api, nil)

	msg, err := svc.ChangeName(context.Background(), &NameForm{Name: "  Ada L. "})
	if err != nil {
		t.Fatal(err)
	}
	if msg != "Name updated successfully" {
		t.Errorf("server message should come back verbatim, got %q", msg)
	}
	if got := h.srv.Store.Name(testEmail); got != "Ada L." {
		t.Errorf("name = %q", got)
	}
}

func TestChangeNameBlank(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	svc := NewProfileService(h.api, nil)

	if _, err := svc.ChangeName(context.Background(), &NameForm{Name: "   "}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.srv.Requests() != 0 {
		t.Fatal("blank name must not reach the server")
	}
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	svc := NewProfileService(h.api, nil)
	ctx := context.Background()

	t.Run("wrong old password keeps fields", func(t *testing.T) {
		form := &PasswordForm{OldPassword: "nope", NewPassword: "next-one"}
		_, err := svc.ChangePassword(ctx, form)
		if !errors.Is(err, gateway.ErrApplication) {
			t.Fatalf("expected application error, got %v", err)
		}
		if got := gateway.MessageOf(err, MsgPasswordFailed); got != "Old password is incorrect" {
			t.Errorf("message = %q", got)
		}
		if form.OldPassword != "nope" || form.NewPassword != "next-one" {
			t.Error("fields must be kept on failure")
		}
	})

	t.Run("same password rejected locally", func(t *testing.T) {
		before := h.srv.Requests()
		form := &PasswordForm{OldPassword: testPassword, NewPassword: testPassword}
		if _, err := svc.ChangePassword(ctx, form); !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if h.srv.Requests() != before {
			t.Error("no request expected")
		}
	})

	t.Run("success clears fields", func(t *testing.T) {
		form := &PasswordForm{OldPassword: testPassword, NewPassword: "brand-new"}
		msg, err := svc.ChangePassword(ctx, form)
		if err != nil {
			t.Fatal(err)
		}
		if msg != "Password updated successfully" {
			t.Errorf("message = %q", msg)
		}
		if form.OldPassword != "" || form.NewPassword != "" {
			t.Error("fields should be cleared on success")
		}
	})
}

func TestProfileFallbackMessage(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.Intercept(func(w http.ResponseWriter, r *http.Request) bool {
		w.WriteHeader(http.StatusBadRequest)
		return true
	})
	svc := NewProfileService(h.api, nil)

	_, err := svc.ChangeName(context.Background(), &NameForm{Name: "Bob"})
	if got := gateway.MessageOf(err, MsgNameFailed); got != MsgNameFailed {
		t.Fatalf("message = %q", got)
	}
}
