package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Publisher delivers domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// PaymentPosted is emitted once a payment transaction has committed.
type PaymentPosted struct {
	PaymentID      int64           `json:"payment_id"`
	LoanID         string          `json:"loan_id"`
	Amount         decimal.Decimal `json:"amount"`
	InstitutionID  int64           `json:"institution_id"`
	NewBalance     decimal.Decimal `json:"new_balance"`
	PercentagePaid string          `json:"percentage_paid"`
	IsFullyPaid    bool            `json:"is_fully_paid"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }
