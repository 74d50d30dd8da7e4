package app

import (
	"context"
	"fmt"

	"billvault/internal/domain/billing"

	"github.com/shopspring/decimal"
)

// Storage layout. Singleton keys are flat strings; record and index keys carry
// their discriminator after a colon.
const (
	keyAdmin           = "admin"
	keyPendingAdmin    = "pending_admin"
	keyTransferExpiry  = "transfer_expiry"
	keySettlementAsset = "settlement_asset"
	keyFeeRecipient    = "fee_recipient"
	keyFeePercentage   = "fee_percentage"
	keyCycleCounter    = "cycle_counter"
	keyBillCounter     = "bill_counter"
	keyAllCycles       = "all_cycles"
	keyReentrancyLock  = "reentrancy_lock"
)

func cycleKey(id uint64) string                  { return fmt.Sprintf("cycle:%d", id) }
func billKey(id uint64) string                   { return fmt.Sprintf("bill:%d", id) }
func userCyclesKey(user billing.Identity) string { return fmt.Sprintf("user_cycles:%s", user) }
func cycleBillsKey(cycleID uint64) string        { return fmt.Sprintf("cycle_bills:%d", cycleID) }

// loadCycle fetches a cycle record and extends its TTL.
func (e *Engine) loadCycle(ctx context.Context, cycleID uint64) (*billing.BillCycle, error) {
	var cycle billing.BillCycle
	found, err := e.store.Get(ctx, cycleKey(cycleID), &cycle)
	if err != nil {
		return nil, fmt.Errorf("load cycle %d: %w", cycleID, err)
	}
	if !found {
		return nil, billing.ErrCycleNotFound
	}
	if err := e.store.ExtendTTL(ctx, cycleKey(cycleID)); err != nil {
		return nil, fmt.Errorf("extend cycle %d ttl: %w", cycleID, err)
	}
	return &cycle, nil
}

func (e *Engine) saveCycle(ctx context.Context, cycle *billing.BillCycle) error {
	key := cycleKey(cycle.ID)
	if err := e.store.Set(ctx, key, cycle); err != nil {
		return fmt.Errorf("save cycle %d: %w", cycle.ID, err)
	}
	if err := e.store.ExtendTTL(ctx, key); err != nil {
		return fmt.Errorf("extend cycle %d ttl: %w", cycle.ID, err)
	}
	return nil
}

// loadBill fetches a bill record and extends its TTL.
func (e *Engine) loadBill(ctx context.Context, billID uint64) (*billing.Bill, error) {
	var bill billing.Bill
	found, err := e.store.Get(ctx, billKey(billID), &bill)
	if err != nil {
		return nil, fmt.Errorf("load bill %d: %w", billID, err)
	}
	if !found {
		return nil, billing.ErrBillNotFound
	}
	if err := e.store.ExtendTTL(ctx, billKey(billID)); err != nil {
		return nil, fmt.Errorf("extend bill %d ttl: %w", billID, err)
	}
	return &bill, nil
}

func (e *Engine) saveBill(ctx context.Context, bill *billing.Bill) error {
	key := billKey(bill.ID)
	if err := e.store.Set(ctx, key, bill); err != nil {
		return fmt.Errorf("save bill %d: %w", bill.ID, err)
	}
	if err := e.store.ExtendTTL(ctx, key); err != nil {
		return fmt.Errorf("extend bill %d ttl: %w", bill.ID, err)
	}
	return nil
}

// loadIDList reads an ID index; a missing index reads as empty.
func (e *Engine) loadIDList(ctx context.Context, key string) ([]uint64, error) {
	var ids []uint64
	found, err := e.store.Get(ctx, key, &ids)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", key, err)
	}
	if !found {
		return []uint64{}, nil
	}
	if err := e.store.ExtendTTL(ctx, key); err != nil {
		return nil, fmt.Errorf("extend index %s ttl: %w", key, err)
	}
	return ids, nil
}

func (e *Engine) saveIDList(ctx context.Context, key string, ids []uint64) error {
	if err := e.store.Set(ctx, key, ids); err != nil {
		return fmt.Errorf("save index %s: %w", key, err)
	}
	if err := e.store.ExtendTTL(ctx, key); err != nil {
		return fmt.Errorf("extend index %s ttl: %w", key, err)
	}
	return nil
}

// appendToIDList appends id to the index under key, creating it if absent.
func (e *Engine) appendToIDList(ctx context.Context, key string, id uint64) error {
	ids, err := e.loadIDList(ctx, key)
	if err != nil {
		return err
	}
	return e.saveIDList(ctx, key, append(ids, id))
}

// nextID increments the counter under key and returns the new value.
// IDs start from 1.
func (e *Engine) nextID(ctx context.Context, key string) (uint64, error) {
	var counter uint64
	if _, err := e.store.Get(ctx, key, &counter); err != nil {
		return 0, fmt.Errorf("load counter %s: %w", key, err)
	}
	counter++
	if err := e.store.Set(ctx, key, counter); err != nil {
		return 0, fmt.Errorf("save counter %s: %w", key, err)
	}
	return counter, nil
}

// totalAllocation sums the projected cost of every bill currently attached to
// the cycle: recurring bills count amount x expected occurrences.
func (e *Engine) totalAllocation(ctx context.Context, cycle *billing.BillCycle) (decimal.Decimal, error) {
	billIDs, err := e.loadIDList(ctx, cycleBillsKey(cycle.ID))
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, billID := range billIDs {
		bill, err := e.loadBill(ctx, billID)
		if err != nil {
			if err == billing.ErrBillNotFound {
				continue // index entry outlived the record
			}
			return decimal.Zero, err
		}
		total = total.Add(bill.ProjectedCost(cycle))
	}
	return total, nil
}
