package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Food     Category = "Food"
	Travel   Category = "Travel"
	Bills    Category = "Bills"
	Shopping Category = "Shopping"
	Other    Category = "Other"
)

type (
	Category string

	Expense struct {
		ID        string    `json:"_id"`
		Title     string    `json:"title"`
		Amount    Money     `json:"amount"`
		Category  Category  `json:"category"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// ExpenseDraft is the raw form state before parsing. Amount is kept as typed text.
	ExpenseDraft struct {
		Title    string
		Amount   string
		Category string
	}

	// ExpenseInput is the request body for create and full-replace update.
	ExpenseInput struct {
		Title    string   `json:"title" validate:"required,notblank,max=200"`
		Amount   Money    `json:"amount" validate:"gt=0"`
		Category Category `json:"category" validate:"required,category"`
	}
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidAmount   = errors.New("amount must be a number greater than 0")
	ErrInvalidBound    = errors.New("amount bound must be a number not below 0")
	ErrEmptyTitle      = errors.New("title is required")
	ErrInvalidCategory = errors.New("unknown category")
	ErrMissingID       = errors.New("expense id is required")
)

// ValidationError is a client-side precondition failure. It never reaches the network.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is lets callers match any validation failure with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Categories returns the fixed category enumeration in display order.
func Categories() []Category {
	return []Category{Food, Travel, Bills, Shopping, Other}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range Categories() {
		if c == k {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory matches s case-insensitively against the enumeration.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidCategory, s)
}

// Edited reports whether the server recorded an update after creation.
func (e Expense) Edited() bool {
	return !e.UpdatedAt.IsZero() && !e.UpdatedAt.Equal(e.CreatedAt)
}

// Draft loads an existing expense back into form state.
func (e Expense) Draft() ExpenseDraft {
	return ExpenseDraft{
		Title:    e.Title,
		Amount:   e.Amount.String(),
		Category: string(e.Category),
	}
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier.
func (e *Expense) UnmarshalJSON(b []byte) error {
	type wire Expense
	aux := struct {
		*wire
		AltID string `json:"id"`
	}{wire: (*wire)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = aux.AltID
	}
	return nil
}

// Parse turns form text into a request body. Title is trimmed, amount is parsed
// and must be positive, category must belong to the enumeration.
func (d ExpenseDraft) Parse() (ExpenseInput, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return ExpenseInput{}, Invalid("title", ErrEmptyTitle)
	}

	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return ExpenseInput{}, Invalid("amount", err)
	}

	cat := d.Category
	if strings.TrimSpace(cat) == "" {
		cat = string(Food)
	}
	category, err := ParseCategory(cat)
	if err != nil {
		return ExpenseInput{}, Invalid("category", err)
	}

	return ExpenseInput{Title: title, Amount: amount, Category: category}, nil
}
