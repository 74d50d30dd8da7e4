package app

import (
	"context"
	"fmt"

	"billvault/internal/domain/billing"

	"github.com/shopspring/decimal"
)

// BillInput is one entry of an AddBills batch.
type BillInput struct {
	Name               string
	Amount             decimal.Decimal
	DueDate            int64 // unix seconds
	IsRecurring        bool
	RecurrenceCalendar []uint32
	Category           billing.Category
}

// AddBills creates a batch of bills on an active cycle. The batch is
// all-or-nothing: every entry is validated, including the cumulative
// allocation of the batch itself, before any bill is persisted, so a failing
// entry can never leave earlier entries behind.
func (e *Engine) AddBills(ctx context.Context, cycleID uint64, inputs []BillInput) ([]uint64, error) {
	cycle, err := e.loadCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return nil, err
	}
	if !cycle.IsActive {
		return nil, billing.ErrCycleNotActive
	}

	now := e.clock.Now().Unix()

	allocation, err := e.totalAllocation(ctx, cycle)
	if err != nil {
		return nil, err
	}
	allocatable := cycle.Allocatable()

	// Validation pass for the whole batch; no writes yet.
	for _, in := range inputs {
		if !in.Amount.IsPositive() {
			return nil, billing.ErrInvalidBillAmount
		}
		if in.DueDate < cycle.StartDate || in.DueDate > cycle.EndDate {
			return nil, billing.ErrInvalidDueDate
		}
		// Day 29-31 does not exist in every month, so recurring advances
		// could never land on the same day; cap at 28.
		if dayOfMonth(in.DueDate) > 28 {
			return nil, billing.ErrInvalidDueDate
		}
		if in.DueDate < now+minLeadTime {
			return nil, billing.ErrBillLeadTimeTooShort
		}
		if !in.Category.Valid() {
			return nil, billing.ErrInvalidCategory
		}
		if in.IsRecurring {
			for _, month := range in.RecurrenceCalendar {
				if month < 1 || month > 12 {
					return nil, billing.ErrInvalidRecurrence
				}
			}
		}

		cost := in.Amount
		if in.IsRecurring {
			cost = in.Amount.Mul(decimal.NewFromInt(cycle.Occurrences()))
		}
		allocation = allocation.Add(cost)
		if allocation.GreaterThan(allocatable) {
			return nil, billing.ErrInsufficientFunds
		}
	}

	// Write pass.
	billIDs := make([]uint64, 0, len(inputs))
	cycleBills, err := e.loadIDList(ctx, cycleBillsKey(cycleID))
	if err != nil {
		return nil, err
	}

	for _, in := range inputs {
		billID, err := e.nextID(ctx, keyBillCounter)
		if err != nil {
			return nil, err
		}

		bill := &billing.Bill{
			ID:                 billID,
			CycleID:            cycleID,
			Name:               in.Name,
			Amount:             in.Amount,
			DueDate:            in.DueDate,
			IsPaid:             false,
			IsRecurring:        in.IsRecurring,
			RecurrenceCalendar: in.RecurrenceCalendar,
			Category:           in.Category,
		}
		if err := e.saveBill(ctx, bill); err != nil {
			return nil, err
		}

		cycleBills = append(cycleBills, billID)
		billIDs = append(billIDs, billID)

		e.events.Publish(ctx, billing.BillAdded{BillID: billID, CycleID: cycleID})
	}

	if len(billIDs) > 0 {
		if err := e.saveIDList(ctx, cycleBillsKey(cycleID), cycleBills); err != nil {
			return nil, err
		}
	}
	return billIDs, nil
}

// GetBill returns a bill to the owner of its cycle.
func (e *Engine) GetBill(ctx context.Context, billID uint64) (*billing.Bill, error) {
	bill, err := e.loadBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	cycle, err := e.loadCycle(ctx, bill.CycleID)
	if err != nil {
		return nil, err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return nil, err
	}
	return bill, nil
}

// GetCycleBills lists the IDs of every bill attached to the cycle.
func (e *Engine) GetCycleBills(ctx context.Context, cycleID uint64) ([]uint64, error) {
	cycle, err := e.loadCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return nil, err
	}
	return e.loadIDList(ctx, cycleBillsKey(cycleID))
}

// PayBill releases a bill's amount from escrow back to the cycle owner. It is
// owner-authorized and only valid on the bill's exact due day; recurring bills
// additionally refuse a second payment within 30 days of the last one.
func (e *Engine) PayBill(ctx context.Context, billID uint64) error {
	release, err := e.acquireGuard(ctx)
	if err != nil {
		return err
	}
	defer release()

	bill, err := e.loadBill(ctx, billID)
	if err != nil {
		return err
	}
	cycle, err := e.loadCycle(ctx, bill.CycleID)
	if err != nil {
		return err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return err
	}

	// Same-day enforcement comes after the paid/active checks so a paid bill
	// reports ErrBillAlreadyPaid on any day, not ErrBillNotDueYet.
	if bill.IsPaid {
		return billing.ErrBillAlreadyPaid
	}
	if !cycle.IsActive {
		return billing.ErrCycleNotActive
	}
	now := e.clock.Now().Unix()
	if !sameCalendarDay(bill.DueDate, now) {
		return billing.ErrBillNotDueYet
	}

	return e.settleBill(ctx, bill, cycle, now)
}

// AdminPayBill releases a bill's payment without the same-day restriction;
// this is the keeper/automation entry point.
func (e *Engine) AdminPayBill(ctx context.Context, billID uint64) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}

	release, err := e.acquireGuard(ctx)
	if err != nil {
		return err
	}
	defer release()

	bill, err := e.loadBill(ctx, billID)
	if err != nil {
		return err
	}
	cycle, err := e.loadCycle(ctx, bill.CycleID)
	if err != nil {
		return err
	}

	return e.settleBill(ctx, bill, cycle, e.clock.Now().Unix())
}

// checkPayable runs the state checks shared by both payment paths.
func (e *Engine) checkPayable(bill *billing.Bill, cycle *billing.BillCycle, now int64) error {
	if bill.IsPaid {
		return billing.ErrBillAlreadyPaid
	}
	if !cycle.IsActive {
		return billing.ErrCycleNotActive
	}
	// A recurring bill's occurrence is at most monthly; a payment within 30
	// days of the last one would double-pay the same occurrence.
	if bill.IsRecurring && bill.LastPaidDate > 0 && now-bill.LastPaidDate < secondsPerMonth {
		return billing.ErrBillAlreadyPaid
	}
	return nil
}

// settleBill records the payment, advances recurring bills to their next
// occurrence, and moves the amount from custody to the owner. Callers hold
// the reentrancy guard.
func (e *Engine) settleBill(ctx context.Context, bill *billing.Bill, cycle *billing.BillCycle, now int64) error {
	if err := e.checkPayable(bill, cycle, now); err != nil {
		return err
	}

	bill.LastPaidDate = now
	if bill.IsRecurring {
		nextDueDate := bill.DueDate + secondsPerMonth
		if nextDueDate < cycle.EndDate {
			bill.DueDate = nextDueDate
			bill.IsPaid = false
		} else {
			bill.IsPaid = true
		}
	} else {
		bill.IsPaid = true
	}

	if err := e.token.Transfer(ctx, e.custody, cycle.Owner, bill.Amount); err != nil {
		return fmt.Errorf("payment transfer: %w", err)
	}
	if err := e.saveBill(ctx, bill); err != nil {
		return err
	}

	e.events.Publish(ctx, billing.BillPaid{BillID: bill.ID, Amount: bill.Amount})
	return nil
}

// SkipBill cancels one occurrence of a bill. A recurring bill is pushed past
// the current occurrence by advancing its last-paid marker one true calendar
// month (day-of-month preserved, clamped to month length); a non-recurring
// bill has nothing left to skip to, so it is deleted outright. Skips and
// deletes share the one-structural-edit-per-month throttle.
func (e *Engine) SkipBill(ctx context.Context, billID uint64) error {
	bill, err := e.loadBill(ctx, billID)
	if err != nil {
		return err
	}
	cycle, err := e.loadCycle(ctx, bill.CycleID)
	if err != nil {
		return err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return err
	}
	if !cycle.IsActive {
		return billing.ErrCycleNotActive
	}

	currentMonth := yearMonth(e.clock.Now())
	if cycle.LastAdjustmentMonth == currentMonth {
		return billing.ErrMonthlyAdjustmentLimitReached
	}

	if bill.IsRecurring {
		nextMonth, err := addOneMonth(e.clock.Now().Unix())
		if err != nil {
			return err
		}
		bill.LastPaidDate = nextMonth
		if err := e.saveBill(ctx, bill); err != nil {
			return err
		}
	} else {
		if err := e.removeBills(ctx, cycle.ID, []uint64{billID}); err != nil {
			return err
		}
	}

	cycle.LastAdjustmentMonth = currentMonth
	if err := e.saveCycle(ctx, cycle); err != nil {
		return err
	}

	e.events.Publish(ctx, billing.BillCancelled{BillID: billID})
	return nil
}

// DeleteBill removes a bill and all its future occurrences. Consumes the
// cycle's monthly adjustment slot.
func (e *Engine) DeleteBill(ctx context.Context, billID uint64) error {
	bill, err := e.loadBill(ctx, billID)
	if err != nil {
		return err
	}
	cycle, err := e.loadCycle(ctx, bill.CycleID)
	if err != nil {
		return err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return err
	}
	if !cycle.IsActive {
		return billing.ErrCycleNotActive
	}

	currentMonth := yearMonth(e.clock.Now())
	if cycle.LastAdjustmentMonth == currentMonth {
		return billing.ErrMonthlyAdjustmentLimitReached
	}

	if err := e.removeBills(ctx, cycle.ID, []uint64{billID}); err != nil {
		return err
	}

	cycle.LastAdjustmentMonth = currentMonth
	if err := e.saveCycle(ctx, cycle); err != nil {
		return err
	}

	e.events.Publish(ctx, billing.BillCancelled{BillID: billID})
	return nil
}

// SkipBills applies SkipBill semantics to a batch of bills from one cycle,
// consuming a single monthly adjustment slot for the whole batch. Recurring
// bills in a batch skip are advanced by a flat 30 days.
func (e *Engine) SkipBills(ctx context.Context, billIDs []uint64) error {
	cycle, bills, err := e.loadAdjustableBatch(ctx, billIDs)
	if err != nil {
		return err
	}

	now := e.clock.Now().Unix()
	var toRemove []uint64

	for _, bill := range bills {
		if bill.IsRecurring {
			bill.LastPaidDate = now + secondsPerMonth
			if err := e.saveBill(ctx, bill); err != nil {
				return err
			}
		} else {
			toRemove = append(toRemove, bill.ID)
		}
		e.events.Publish(ctx, billing.BillCancelled{BillID: bill.ID})
	}

	if len(toRemove) > 0 {
		if err := e.removeBills(ctx, cycle.ID, toRemove); err != nil {
			return err
		}
	}

	return e.markAdjusted(ctx, cycle)
}

// DeleteBills removes a batch of bills from one cycle, consuming a single
// monthly adjustment slot for the whole batch.
func (e *Engine) DeleteBills(ctx context.Context, billIDs []uint64) error {
	cycle, bills, err := e.loadAdjustableBatch(ctx, billIDs)
	if err != nil {
		return err
	}

	toRemove := make([]uint64, 0, len(bills))
	for _, bill := range bills {
		toRemove = append(toRemove, bill.ID)
	}
	if err := e.removeBills(ctx, cycle.ID, toRemove); err != nil {
		return err
	}
	for _, billID := range toRemove {
		e.events.Publish(ctx, billing.BillCancelled{BillID: billID})
	}

	return e.markAdjusted(ctx, cycle)
}

// loadAdjustableBatch loads a batch of bills for a structural edit and runs
// the shared checks: non-empty batch, all bills present and from the same
// cycle, owner authorized, cycle active, monthly throttle unused.
func (e *Engine) loadAdjustableBatch(ctx context.Context, billIDs []uint64) (*billing.BillCycle, []*billing.Bill, error) {
	if len(billIDs) == 0 {
		return nil, nil, billing.ErrInvalidBillAmount
	}

	first, err := e.loadBill(ctx, billIDs[0])
	if err != nil {
		return nil, nil, err
	}
	cycle, err := e.loadCycle(ctx, first.CycleID)
	if err != nil {
		return nil, nil, err
	}
	if err := e.auth.RequireAuth(ctx, cycle.Owner); err != nil {
		return nil, nil, err
	}
	if !cycle.IsActive {
		return nil, nil, billing.ErrCycleNotActive
	}

	currentMonth := yearMonth(e.clock.Now())
	if cycle.LastAdjustmentMonth == currentMonth {
		return nil, nil, billing.ErrMonthlyAdjustmentLimitReached
	}

	bills := make([]*billing.Bill, 0, len(billIDs))
	for _, billID := range billIDs {
		bill, err := e.loadBill(ctx, billID)
		if err != nil {
			return nil, nil, err
		}
		if bill.CycleID != first.CycleID {
			return nil, nil, billing.ErrInvalidDueDate
		}
		bills = append(bills, bill)
	}
	return cycle, bills, nil
}

// markAdjusted consumes the cycle's adjustment slot for the current month.
func (e *Engine) markAdjusted(ctx context.Context, cycle *billing.BillCycle) error {
	cycle.LastAdjustmentMonth = yearMonth(e.clock.Now())
	return e.saveCycle(ctx, cycle)
}

// removeBills deletes bill records and rewrites the cycle's bill index
// without them. Index removal is a filter-and-rewrite; bill counts per cycle
// are small enough that O(n) removal is acceptable.
func (e *Engine) removeBills(ctx context.Context, cycleID uint64, billIDs []uint64) error {
	for _, billID := range billIDs {
		if err := e.store.Remove(ctx, billKey(billID)); err != nil {
			return fmt.Errorf("remove bill %d: %w", billID, err)
		}
	}

	cycleBills, err := e.loadIDList(ctx, cycleBillsKey(cycleID))
	if err != nil {
		return err
	}

	removed := make(map[uint64]bool, len(billIDs))
	for _, billID := range billIDs {
		removed[billID] = true
	}

	kept := make([]uint64, 0, len(cycleBills))
	for _, id := range cycleBills {
		if !removed[id] {
			kept = append(kept, id)
		}
	}
	return e.saveIDList(ctx, cycleBillsKey(cycleID), kept)
}
