package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Action is the kind of mutation an event reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

var ErrInvalidMessage = errors.New("invalid expense changed message")

// ExpenseChangedMessage announces a successful mutation. It carries only the
// id; consumers refetch whatever view they are showing.
type ExpenseChangedMessage struct {
	Action    Action    `json:"action"`
	ExpenseID string    `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangedMessage(action Action, expenseID string) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		Action:    action,
		ExpenseID: expenseID,
		Timestamp: time.Now().UTC(),
	}
}

func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangedMessageFromJSON decodes and checks a message body.
func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidMessage, msg.Action)
	}
	if msg.ExpenseID == "" {
		return nil, fmt.Errorf("%w: missing expense id", ErrInvalidMessage)
	}
	return &msg, nil
}
