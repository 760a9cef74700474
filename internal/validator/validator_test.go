package validator

import (
	"errors"
	"testing"

	"expensectl/internal/core"
)

type signup struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStructExpenseInput(t *testing.T) {
	ok := core.ExpenseInput{Title: "Coffee", Amount: core.Money{Cents: 350}, Category: core.Food}
	if err := Struct(ok); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		in    core.ExpenseInput
		field string
		err   error
	}{
		{"blank title", core.ExpenseInput{Title: "  ", Amount: core.Money{Cents: 1}, Category: core.Food}, "title", core.ErrEmptyTitle},
		{"zero amount", core.ExpenseInput{Title: "a", Amount: core.Money{}, Category: core.Food}, "amount", core.ErrInvalidAmount},
		{"negative amount", core.ExpenseInput{Title: "a", Amount: core.Money{Cents: -5}, Category: core.Food}, "amount", core.ErrInvalidAmount},
		{"unknown category", core.ExpenseInput{Title: "a", Amount: core.Money{Cents: 1}, Category: "Rent"}, "category", core.ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if !errors.Is(err, core.ErrValidation) || !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestStructUsesJSONNames(t *testing.T) {
	err := Struct(signup{Name: "Ann", Email: "not-an-email", Password: "secret1"})
	var ve *core.ValidationError
	if !errors.As(err, &ve) || ve.Field != "email" {
		t.Fatalf("expected email failure, got %v", err)
	}

	err = Struct(signup{Name: "Ann", Email: "ann@example.com", Password: "abc"})
	if !errors.As(err, &ve) || ve.Field != "password" {
		t.Fatalf("expected password failure, got %v", err)
	}
}
