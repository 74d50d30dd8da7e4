package billing

import "github.com/shopspring/decimal"

// Identity is an account address in the settlement ledger. Users, the admin,
// the fee recipient and the contract custody account are all identities.
type Identity string

// BillCycle is one escrow period for one user. A cycle is created when the
// user deposits funds and stays on record after it ends (is_active = false);
// cycles are never deleted.
type BillCycle struct {
	ID             uint64          `json:"id"`
	Owner          Identity        `json:"owner"`
	StartDate      int64           `json:"start_date"` // unix seconds
	EndDate        int64           `json:"end_date"`   // start_date + duration_months * 30 days
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	OperatingFee   decimal.Decimal `json:"operating_fee"`
	FeePercentage  uint32          `json:"fee_percentage"` // basis points (200 = 2.00%), snapshot at creation
	IsActive       bool            `json:"is_active"`
	// LastAdjustmentMonth throttles structural bill edits (skip/delete) to one
	// per calendar month, stored as YYYYMM. Zero means no edit has happened yet.
	LastAdjustmentMonth uint32 `json:"last_adjustment_month"`
}

// DurationDays returns the cycle length in whole days.
func (c *BillCycle) DurationDays() int64 {
	return (c.EndDate - c.StartDate) / 86400
}

// Occurrences is how many times a recurring bill is expected to come due
// within this cycle: one per 30-day period, at least one.
func (c *BillCycle) Occurrences() int64 {
	occ := c.DurationDays() / 30
	if occ < 1 {
		occ = 1
	}
	return occ
}

// Allocatable is the portion of the deposit available for bills:
// total_deposited minus the operating fee.
func (c *BillCycle) Allocatable() decimal.Decimal {
	return c.TotalDeposited.Sub(c.OperatingFee)
}
