package event

import (
	"context"
	"time"
)

type Type string

const (
	LoanCreated     Type = "loan.created"
	LoanApproved    Type = "loan.approved"
	BorrowerCreated Type = "borrower.created"
)

// Event is the message body published for lifecycle changes.
type Event struct {
	Type       Type      `json:"type"`
	LoanID     string    `json:"loan_id,omitempty"`
	BorrowerID string    `json:"borrower_id"`
	Amount     float64   `json:"amount,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
