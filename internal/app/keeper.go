package app

import (
	"context"
	"fmt"

	"billvault/internal/domain/billing"
)

// KeeperReport summarizes one automation sweep. Per-item failures are
// collected rather than aborting the sweep: one stuck cycle must not block
// payments for everyone else.
type KeeperReport struct {
	CyclesEnded int
	BillsPaid   int
	Errors      []error
}

// KeeperSweep is the admin-authorized automation pass: it ends every active
// cycle whose end date has passed and pays every unpaid bill that is due on
// the current day. Users keep PayBill for paying by hand; the sweep is what
// makes bills happen on time without them.
func (e *Engine) KeeperSweep(ctx context.Context) (*KeeperReport, error) {
	if err := e.requireAdmin(ctx); err != nil {
		return nil, err
	}

	cycleIDs, err := e.loadIDList(ctx, keyAllCycles)
	if err != nil {
		return nil, err
	}

	report := &KeeperReport{}
	now := e.clock.Now().Unix()

	for _, cycleID := range cycleIDs {
		cycle, err := e.loadCycle(ctx, cycleID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("cycle %d: %w", cycleID, err))
			continue
		}
		if !cycle.IsActive {
			continue
		}

		if now >= cycle.EndDate {
			if err := e.AdminEndCycle(ctx, cycleID); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("end cycle %d: %w", cycleID, err))
			} else {
				report.CyclesEnded++
			}
			continue
		}

		billIDs, err := e.loadIDList(ctx, cycleBillsKey(cycleID))
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("cycle %d bills: %w", cycleID, err))
			continue
		}
		for _, billID := range billIDs {
			bill, err := e.loadBill(ctx, billID)
			if err != nil {
				if err == billing.ErrBillNotFound {
					continue
				}
				report.Errors = append(report.Errors, fmt.Errorf("bill %d: %w", billID, err))
				continue
			}
			if bill.IsPaid || !sameCalendarDay(bill.DueDate, now) {
				continue
			}
			// A skipped occurrence parks LastPaidDate in the future; honor it.
			if bill.IsRecurring && bill.LastPaidDate > 0 && now-bill.LastPaidDate < secondsPerMonth {
				continue
			}
			if err := e.AdminPayBill(ctx, billID); err != nil {
				report.Errors = append(report.Errors, fmt.Errorf("pay bill %d: %w", billID, err))
			} else {
				report.BillsPaid++
			}
		}
	}
	return report, nil
}
