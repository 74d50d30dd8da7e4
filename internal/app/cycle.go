package app

import (
	"context"
	"fmt"

	"billvault/internal/domain/billing"

	"github.com/shopspring/decimal"
)

// CreateCycle opens a new escrow period for user: the deposit moves into the
// custody account, the operating fee moves straight on to the fee recipient,
// and the remainder becomes the allocatable balance bills are funded from.
// Returns the new cycle's ID.
func (e *Engine) CreateCycle(ctx context.Context, user billing.Identity, durationMonths uint32, amount decimal.Decimal) (uint64, error) {
	if err := e.auth.RequireAuth(ctx, user); err != nil {
		return 0, err
	}

	if durationMonths < 1 || durationMonths > 12 {
		return 0, billing.ErrInvalidCycleDuration
	}
	if !amount.IsPositive() {
		return 0, billing.ErrInsufficientFunds
	}

	feePercentage, err := e.FeePercentage(ctx)
	if err != nil {
		return 0, err
	}
	feeRecipient, err := e.FeeRecipient(ctx)
	if err != nil {
		return 0, err
	}

	operatingFee := calculateFee(amount, feePercentage)
	now := e.clock.Now().Unix()
	endDate := now + int64(durationMonths)*daysPerMonth*secondsPerDay

	cycleID, err := e.nextID(ctx, keyCycleCounter)
	if err != nil {
		return 0, err
	}

	// Move value before persisting the cycle: there is no host rollback, so a
	// failed transfer must leave no cycle record behind.
	if err := e.token.Transfer(ctx, user, e.custody, amount); err != nil {
		return 0, fmt.Errorf("deposit transfer: %w", err)
	}
	if err := e.token.Transfer(ctx, e.custody, feeRecipient, operatingFee); err != nil {
		return 0, fmt.Errorf("fee transfer: %w", err)
	}

	cycle := &billing.BillCycle{
		ID:                  cycleID,
		Owner:               user,
		StartDate:           now,
		EndDate:             endDate,
		TotalDeposited:      amount,
		OperatingFee:        operatingFee,
		FeePercentage:       feePercentage,
		IsActive:            true,
		LastAdjustmentMonth: 0,
	}
	if err := e.saveCycle(ctx, cycle); err != nil {
		return 0, err
	}
	if err := e.appendToIDList(ctx, userCyclesKey(user), cycleID); err != nil {
		return 0, err
	}
	if err := e.appendToIDList(ctx, keyAllCycles, cycleID); err != nil {
		return 0, err
	}
	if err := e.saveIDList(ctx, cycleBillsKey(cycleID), []uint64{}); err != nil {
		return 0, err
	}

	e.events.Publish(ctx, billing.CycleCreated{CycleID: cycleID, User: user})
	return cycleID, nil
}

// GetCycle returns a cycle to its owner.
func (e *Engine) GetCycle(ctx context.Context, cycleID uint64) (*billing.BillCycle, error) {
	cycle, err := e.loadCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return nil, err
	}
	return cycle, nil
}

// GetUserCycles lists the IDs of every cycle the user has ever opened.
func (e *Engine) GetUserCycles(ctx context.Context, user billing.Identity) ([]uint64, error) {
	if err := e.auth.RequireAuth(ctx, user); err != nil {
		return nil, err
	}
	return e.loadIDList(ctx, userCyclesKey(user))
}

// GetAllCycles lists every cycle ID in the system. Admin only; this is the
// entry point the keeper sweep walks.
func (e *Engine) GetAllCycles(ctx context.Context) ([]uint64, error) {
	if err := e.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return e.loadIDList(ctx, keyAllCycles)
}

// EndCycle closes a cycle at the owner's request once its end date has
// passed, returning any surplus to the owner.
func (e *Engine) EndCycle(ctx context.Context, cycleID uint64) error {
	release, err := e.acquireGuard(ctx)
	if err != nil {
		return err
	}
	defer release()

	cycle, err := e.loadCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return err
	}
	if e.clock.Now().Unix() < cycle.EndDate {
		return billing.ErrCycleNotEnded
	}

	return e.closeCycle(ctx, cycle)
}

// AdminEndCycle closes a cycle at any time. Admin only.
func (e *Engine) AdminEndCycle(ctx context.Context, cycleID uint64) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}

	release, err := e.acquireGuard(ctx)
	if err != nil {
		return err
	}
	defer release()

	cycle, err := e.loadCycle(ctx, cycleID)
	if err != nil {
		return err
	}

	return e.closeCycle(ctx, cycle)
}

// closeCycle is the shared closing path: compute the surplus left after the
// fee and all paid bills, return it to the owner, and retire the cycle.
// Callers hold the reentrancy guard.
func (e *Engine) closeCycle(ctx context.Context, cycle *billing.BillCycle) error {
	if !cycle.IsActive {
		return billing.ErrCycleAlreadyEnded
	}

	billIDs, err := e.loadIDList(ctx, cycleBillsKey(cycle.ID))
	if err != nil {
		return err
	}

	totalPaid := decimal.Zero
	for _, billID := range billIDs {
		bill, err := e.loadBill(ctx, billID)
		if err != nil {
			if err == billing.ErrBillNotFound {
				continue
			}
			return err
		}
		if bill.IsPaid {
			totalPaid = totalPaid.Add(bill.Amount)
		}
	}

	surplus := cycle.TotalDeposited.Sub(cycle.OperatingFee).Sub(totalPaid)

	if surplus.IsPositive() {
		if err := e.token.Transfer(ctx, e.custody, cycle.Owner, surplus); err != nil {
			return fmt.Errorf("surplus transfer: %w", err)
		}
	}

	cycle.IsActive = false
	if err := e.saveCycle(ctx, cycle); err != nil {
		return err
	}

	e.events.Publish(ctx, billing.CycleEnded{CycleID: cycle.ID, Surplus: surplus})
	return nil
}

// calculateFee floors amount * basisPoints / 10000.
func calculateFee(amount decimal.Decimal, basisPoints uint32) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(basisPoints))).Div(decimal.NewFromInt(10000)).Floor()
}
