// Package services implements the mutation flows of the client: expenses,
// profile changes and authentication. Each goes through the gateway, so
// network failures and 401s have already been handled globally by the time
// an error comes back here.
package services

import (
	"context"
	"net/url"

	"expensectl/internal/amqp"
)

// Inline fallbacks used when the server sends no message.
const (
	MsgExpenseFailed  = "Error saving expense"
	MsgLoginFailed    = "Login failed"
	MsgRegisterFailed = "Registration failed"
	MsgNameFailed     = "Error updating name"
	MsgPasswordFailed = "Error updating password"

	MsgRegistered = "Registration successful. Now you can login."
	MsgLoggedIn   = "Login successful"
)

// API is the request surface of the gateway.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// EventPublisher announces successful mutations. Optional.
type EventPublisher interface {
	PublishExpenseChanged(ctx context.Context, action amqp.Action, expenseID string) error
}

type messageResponse struct {
	Message string `json:"message"`
}
