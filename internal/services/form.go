package services

import (
	"context"
	"sync"

	"expensectl/internal/core"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Form is the add/edit expense form. It starts in create mode with the
// default category selected.
type Form struct {
	svc *ExpenseService

	mu      sync.Mutex
	draft   core.ExpenseDraft
	editing string
}

func (s *ExpenseService) NewForm() *Form {
	f := &Form{svc: s}
	f.resetLocked()
	return f
}

func (f *Form) resetLocked() {
	f.draft = core.ExpenseDraft{Category: string(core.Food)}
	f.editing = ""
}

// Edit loads e into the form and switches to update mode.
func (f *Form) Edit(e core.Expense) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = e.Draft()
	f.editing = e.ID
}

// Cancel discards the draft and returns to create mode. No request is made.
func (f *Form) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *Form) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editing != "" {
		return ModeEdit
	}
	return ModeCreate
}

// EditingID is the id of the expense being edited, empty in create mode.
func (f *Form) EditingID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editing
}

func (f *Form) Draft() core.ExpenseDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

func (f *Form) SetDraft(d core.ExpenseDraft) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = d
}

// Submit creates or updates depending on the mode. The form resets only on
// success; a failed submit keeps the draft for correction.
func (f *Form) Submit(ctx context.Context) (core.Expense, error) {
	f.mu.Lock()
	draft, id := f.draft, f.editing
	f.mu.Unlock()

	var (
		out core.Expense
		err error
	)
	if id != "" {
		out, err = f.svc.Update(ctx, id, draft)
	} else {
		out, err = f.svc.Create(ctx, draft)
	}
	if err != nil {
		return core.Expense{}, err
	}

	f.mu.Lock()
	// an Edit or Cancel during the request wins
	if f.editing == id && f.draft == draft {
		f.resetLocked()
	}
	f.mu.Unlock()
	return out, nil
}
