package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Event is a notification emitted by the engine after a state change commits.
type Event interface {
	// EventName is the stable identifier used by publishers.
	EventName() string
}

// Publisher delivers engine events to a notification sink. Publishing is
// best-effort: a failed delivery must not fail the operation that emitted it.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Admin events

type AdminTransferInitiated struct {
	NewAdmin Identity `json:"new_admin"`
}

func (AdminTransferInitiated) EventName() string { return "admin_transfer_initiated" }

type AdminTransferred struct {
	NewAdmin Identity `json:"new_admin"`
}

func (AdminTransferred) EventName() string { return "admin_transferred" }

type FeeRecipientUpdated struct {
	Recipient Identity `json:"recipient"`
}

func (FeeRecipientUpdated) EventName() string { return "fee_recipient_updated" }

// Cycle events

type CycleCreated struct {
	CycleID uint64   `json:"cycle_id"`
	User    Identity `json:"user"`
}

func (CycleCreated) EventName() string { return "cycle_created" }

type CycleEnded struct {
	CycleID uint64          `json:"cycle_id"`
	Surplus decimal.Decimal `json:"surplus"`
}

func (CycleEnded) EventName() string { return "cycle_ended" }

// Bill events

type BillAdded struct {
	BillID  uint64 `json:"bill_id"`
	CycleID uint64 `json:"cycle_id"`
}

func (BillAdded) EventName() string { return "bill_added" }

type BillPaid struct {
	BillID uint64          `json:"bill_id"`
	Amount decimal.Decimal `json:"amount"`
}

func (BillPaid) EventName() string { return "bill_paid" }

type BillCancelled struct {
	BillID uint64 `json:"bill_id"`
}

func (BillCancelled) EventName() string { return "bill_cancelled" }
