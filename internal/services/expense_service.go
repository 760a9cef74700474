package services

import (
	"context"
	"fmt"
	"net/url"

	"expensectl/internal/amqp"
	"expensectl/internal/core"
	"expensectl/internal/log"
	"expensectl/internal/validator"
)

// ExpenseService lists and mutates expenses through the API and publishes a
// change event after every successful mutation.
type ExpenseService struct {
	api       API
	publisher EventPublisher
	logger    *log.Logger
}

// NewExpenseService creates the service. publisher may be nil.
func NewExpenseService(api API, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		api:       api,
		publisher: publisher,
		logger:    log.OrDiscard(logger).WithComponent(log.ComponentExpense),
	}
}

// List fetches the expenses matching f. The server applies the filter.
func (s *ExpenseService) List(ctx context.Context, f core.FilterState) ([]core.Expense, error) {
	var out []core.Expense
	if err := s.api.Get(ctx, "/expenses", f.Query(), &out); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if out == nil {
		out = []core.Expense{}
	}
	return out, nil
}

// Create validates the draft locally and posts it. Invalid drafts never
// reach the network.
func (s *ExpenseService) Create(ctx context.Context, draft core.ExpenseDraft) (core.Expense, error) {
	in, err := parseDraft(draft)
	if err != nil {
		return core.Expense{}, err
	}

	var out core.Expense
	if err := s.api.Post(ctx, "/expenses", in, &out); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created",
		log.FieldExpenseID, out.ID,
		log.FieldAmountCents, in.Amount.Cents,
		log.FieldCategory, in.Category)
	s.publish(ctx, amqp.ActionCreated, out.ID)
	return out, nil
}

// Update replaces the expense with id by the draft.
func (s *ExpenseService) Update(ctx context.Context, id string, draft core.ExpenseDraft) (core.Expense, error) {
	if id == "" {
		return core.Expense{}, core.Invalid("id", core.ErrMissingID)
	}
	in, err := parseDraft(draft)
	if err != nil {
		return core.Expense{}, err
	}

	var out core.Expense
	if err := s.api.Put(ctx, expensePath(id), in, &out); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	if out.ID == "" {
		out.ID = id
	}

	s.logger.InfoContext(ctx, "Expense updated",
		log.FieldExpenseID, id,
		log.FieldAmountCents, in.Amount.Cents)
	s.publish(ctx, amqp.ActionUpdated, id)
	return out, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.Invalid("id", core.ErrMissingID)
	}
	if err := s.api.Delete(ctx, expensePath(id), nil); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
	s.publish(ctx, amqp.ActionDeleted, id)
	return nil
}

// publish never fails the mutation; the server already accepted it.
func (s *ExpenseService) publish(ctx context.Context, action amqp.Action, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseChanged(ctx, action, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense changed message",
			"action", action,
			log.FieldExpenseID, id,
			log.FieldError, err)
	}
}

func parseDraft(draft core.ExpenseDraft) (core.ExpenseInput, error) {
	in, err := draft.Parse()
	if err != nil {
		return core.ExpenseInput{}, err
	}
	if err := validator.Struct(in); err != nil {
		return core.ExpenseInput{}, err
	}
	return in, nil
}

func expensePath(id string) string {
	return "/expenses/" + url.PathEscape(id)
}
