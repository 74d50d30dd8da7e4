package app

import (
	"fmt"
	"testing"
	"time"

	"billvault/internal/domain/billing"

	"github.com/stretchr/testify/require"
)

// dueInDays returns a due date n days from the fixture clock.
func dueInDays(f *fixture, n int64) int64 {
	return f.clock.Now().Unix() + n*secondsPerDay
}

func TestAddBillsValidation(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 1000)

	cases := []struct {
		name  string
		input BillInput
		want  error
	}{
		{
			name:  "zero amount",
			input: BillInput{Name: "x", Amount: amt(0), DueDate: dueInDays(f, 10), Category: billing.CategoryOther},
			want:  billing.ErrInvalidBillAmount,
		},
		{
			name:  "due before cycle start",
			input: BillInput{Name: "x", Amount: amt(10), DueDate: f.clock.Now().Unix() - secondsPerDay, Category: billing.CategoryOther},
			want:  billing.ErrInvalidDueDate,
		},
		{
			name:  "due after cycle end",
			input: BillInput{Name: "x", Amount: amt(10), DueDate: dueInDays(f, 200), Category: billing.CategoryOther},
			want:  billing.ErrInvalidDueDate,
		},
		{
			name:  "lead time under 7 days",
			input: BillInput{Name: "x", Amount: amt(10), DueDate: dueInDays(f, 6), Category: billing.CategoryOther},
			want:  billing.ErrBillLeadTimeTooShort,
		},
		{
			name:  "unknown category",
			input: BillInput{Name: "x", Amount: amt(10), DueDate: dueInDays(f, 10), Category: "GROCERIES"},
			want:  billing.ErrInvalidCategory,
		},
		{
			name: "recurrence month out of range",
			input: BillInput{
				Name: "x", Amount: amt(10), DueDate: dueInDays(f, 10),
				IsRecurring: true, RecurrenceCalendar: []uint32{3, 13},
				Category: billing.CategoryOther,
			},
			want: billing.ErrInvalidRecurrence,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{tc.input})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAddBillsDayOfMonthBoundary(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 100000)

	// 2025-03-28 vs 2025-03-29, both >= 7 days from the Mar 10 clock.
	due28 := time.Date(2025, 3, 28, 12, 0, 0, 0, time.UTC).Unix()
	due29 := time.Date(2025, 3, 29, 12, 0, 0, 0, time.UTC).Unix()

	_, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "rent", Amount: amt(10), DueDate: due28, Category: billing.CategoryHousing},
	})
	require.NoError(t, err)

	_, err = f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "rent", Amount: amt(10), DueDate: due29, Category: billing.CategoryHousing},
	})
	require.ErrorIs(t, err, billing.ErrInvalidDueDate)
}

func TestAllocationInvariant(t *testing.T) {
	f := newFixture(t)
	// 100 units at 2%: fee 2, allocatable 98.
	cycleID := f.createCycle(t, 1, 100)

	_, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "internet", Amount: amt(20), DueDate: dueInDays(f, 10), Category: billing.CategoryUtilities},
	})
	require.NoError(t, err)

	_, err = f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "rent", Amount: amt(99), DueDate: dueInDays(f, 10), Category: billing.CategoryHousing},
	})
	require.ErrorIs(t, err, billing.ErrInsufficientFunds, "20 + 99 > 98")

	// 78 fits exactly: 20 + 78 = 98.
	_, err = f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "rent", Amount: amt(78), DueDate: dueInDays(f, 10), Category: billing.CategoryHousing},
	})
	require.NoError(t, err)
}

func TestAllocationCountsRecurringOccurrences(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 1000) // allocatable 980, occurrences 6

	// 6 x 170 = 1020 > 980.
	_, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "gym", Amount: amt(170), DueDate: dueInDays(f, 10), IsRecurring: true, Category: billing.CategoryEntertainment},
	})
	require.ErrorIs(t, err, billing.ErrInsufficientFunds)

	// 6 x 160 = 960 fits.
	_, err = f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "gym", Amount: amt(160), DueDate: dueInDays(f, 10), IsRecurring: true, Category: billing.CategoryEntertainment},
	})
	require.NoError(t, err)
}

func TestAddBillsBatchIsAtomic(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 1, 100)

	// Second entry blows the allocation; the first must not be persisted.
	_, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "ok", Amount: amt(20), DueDate: dueInDays(f, 10), Category: billing.CategoryOther},
		{Name: "too big", Amount: amt(90), DueDate: dueInDays(f, 10), Category: billing.CategoryOther},
	})
	require.ErrorIs(t, err, billing.ErrInsufficientFunds)

	ids, err := f.engine.GetCycleBills(as(testUser), cycleID)
	require.NoError(t, err)
	require.Empty(t, ids, "failed batch persists nothing")
	require.NotContains(t, f.events.names(), "bill_added")
}

func TestAddBillsOnEndedCycleFails(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 1, 100)
	require.NoError(t, f.engine.AdminEndCycle(as(testAdmin), cycleID))

	_, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "late", Amount: amt(10), DueDate: dueInDays(f, 10), Category: billing.CategoryOther},
	})
	require.ErrorIs(t, err, billing.ErrCycleNotActive)
}

func TestPayBillSameDayRule(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 1, 1000)
	billID := f.addBill(t, cycleID, 100)

	require.ErrorIs(t, f.engine.PayBill(as(testUser), billID), billing.ErrBillNotDueYet)

	bill, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	f.clock.setUnix(bill.DueDate - 3600) // same UTC day, earlier hour
	require.NoError(t, f.engine.PayBill(as(testUser), billID))

	paid, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.Equal(t, f.clock.Now().Unix(), paid.LastPaidDate)

	last := f.token.last()
	require.Equal(t, transfer{from: testCustody, to: testUser, amount: amt(100)}, last)
}

func TestPayBillTwiceFails(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 1, 1000)
	billID := f.addBill(t, cycleID, 100)

	bill, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	f.clock.setUnix(bill.DueDate)
	require.NoError(t, f.engine.PayBill(as(testUser), billID))
	require.ErrorIs(t, f.engine.PayBill(as(testUser), billID), billing.ErrBillAlreadyPaid)
}

func TestRecurringBillAdvancesOnPayment(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 10000)

	ids, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{{
		Name: "gym", Amount: amt(100), DueDate: dueInDays(f, 10),
		IsRecurring: true, RecurrenceCalendar: []uint32{3, 4, 5, 6, 7, 8},
		Category: billing.CategoryEntertainment,
	}})
	require.NoError(t, err)
	billID := ids[0]

	bill, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	firstDue := bill.DueDate

	f.clock.setUnix(firstDue)
	require.NoError(t, f.engine.PayBill(as(testUser), billID))

	advanced, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	require.False(t, advanced.IsPaid, "next occurrence is pending")
	require.Equal(t, firstDue+secondsPerMonth, advanced.DueDate)
	require.Equal(t, firstDue, advanced.LastPaidDate)
}

func TestRecurringBillDoublePayWithin30Days(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 10000)

	ids, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{{
		Name: "gym", Amount: amt(100), DueDate: dueInDays(f, 10),
		IsRecurring: true, Category: billing.CategoryEntertainment,
	}})
	require.NoError(t, err)
	billID := ids[0]

	bill, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	f.clock.setUnix(bill.DueDate)
	require.NoError(t, f.engine.PayBill(as(testUser), billID))

	// AdminPayBill skips the same-day rule, so the 30-day guard is what
	// stops a double payment of the same occurrence.
	require.ErrorIs(t, f.engine.AdminPayBill(as(testAdmin), billID), billing.ErrBillAlreadyPaid)

	// The next occurrence, 30 days on, is payable again.
	f.clock.advance(30 * 24 * time.Hour)
	require.NoError(t, f.engine.AdminPayBill(as(testAdmin), billID))
}

func TestRecurringBillTerminatesNearCycleEnd(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 1, 1000) // ends 30 days out

	ids, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{{
		Name: "gym", Amount: amt(100), DueDate: dueInDays(f, 10),
		IsRecurring: true, Category: billing.CategoryEntertainment,
	}})
	require.NoError(t, err)
	billID := ids[0]

	bill, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	f.clock.setUnix(bill.DueDate)
	require.NoError(t, f.engine.PayBill(as(testUser), billID))

	// due + 30d falls past the cycle end, so the bill is terminally paid.
	final, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	require.True(t, final.IsPaid)
}

func TestAdminPayBillIgnoresDueDay(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 1, 1000)
	billID := f.addBill(t, cycleID, 100)

	require.ErrorIs(t, f.engine.AdminPayBill(as(testUser), billID), billing.ErrUnauthorized)
	require.NoError(t, f.engine.AdminPayBill(as(testAdmin), billID))

	bill, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	require.True(t, bill.IsPaid)
}

func TestSkipBillRecurringAdvancesCalendarMonth(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 10000)

	ids, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{{
		Name: "gym", Amount: amt(100), DueDate: dueInDays(f, 10),
		IsRecurring: true, Category: billing.CategoryEntertainment,
	}})
	require.NoError(t, err)
	billID := ids[0]

	require.NoError(t, f.engine.SkipBill(as(testUser), billID))

	bill, err := f.engine.GetBill(as(testUser), billID)
	require.NoError(t, err)
	// Clock is 2025-03-10 12:00 UTC -> one calendar month later.
	require.Equal(t, time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC).Unix(), bill.LastPaidDate)
	require.Contains(t, f.events.names(), "bill_cancelled")
}

func TestSkipBillNonRecurringDeletes(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 1, 1000)
	billID := f.addBill(t, cycleID, 100)

	require.NoError(t, f.engine.SkipBill(as(testUser), billID))

	_, err := f.engine.GetBill(as(testUser), billID)
	require.ErrorIs(t, err, billing.ErrBillNotFound)

	ids, err := f.engine.GetCycleBills(as(testUser), cycleID)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestMonthlyAdjustmentThrottle(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 10000)
	first := f.addBill(t, cycleID, 100)
	second := f.addBill(t, cycleID, 100)

	require.NoError(t, f.engine.DeleteBill(as(testUser), first))
	require.ErrorIs(t, f.engine.DeleteBill(as(testUser), second), billing.ErrMonthlyAdjustmentLimitReached)
	require.ErrorIs(t, f.engine.SkipBill(as(testUser), second), billing.ErrMonthlyAdjustmentLimitReached)

	// The slot frees up when the calendar month rolls over.
	f.clock.now = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.engine.DeleteBill(as(testUser), second))
}

func TestBatchSkipAndDelete(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 10000)

	ids, err := f.engine.AddBills(as(testUser), cycleID, []BillInput{
		{Name: "one", Amount: amt(50), DueDate: dueInDays(f, 10), Category: billing.CategoryOther},
		{Name: "two", Amount: amt(50), DueDate: dueInDays(f, 10), IsRecurring: true, Category: billing.CategoryOther},
	})
	require.NoError(t, err)

	require.ErrorIs(t, f.engine.SkipBills(as(testUser), nil), billing.ErrInvalidBillAmount)

	require.NoError(t, f.engine.SkipBills(as(testUser), ids))

	// Non-recurring entry was removed, recurring one parked a month ahead.
	_, err = f.engine.GetBill(as(testUser), ids[0])
	require.ErrorIs(t, err, billing.ErrBillNotFound)

	parked, err := f.engine.GetBill(as(testUser), ids[1])
	require.NoError(t, err)
	require.Equal(t, f.clock.Now().Unix()+secondsPerMonth, parked.LastPaidDate)

	// One slot for the whole batch, now consumed.
	require.ErrorIs(t, f.engine.DeleteBills(as(testUser), ids[1:]), billing.ErrMonthlyAdjustmentLimitReached)

	f.clock.now = f.clock.now.AddDate(0, 1, 0)
	require.NoError(t, f.engine.DeleteBills(as(testUser), ids[1:]))
	_, err = f.engine.GetBill(as(testUser), ids[1])
	require.ErrorIs(t, err, billing.ErrBillNotFound)
}

func TestBatchRejectsMixedCycles(t *testing.T) {
	f := newFixture(t)
	cycleA := f.createCycle(t, 6, 10000)
	cycleB := f.createCycle(t, 6, 10000)
	billA := f.addBill(t, cycleA, 100)
	billB := f.addBill(t, cycleB, 100)

	require.ErrorIs(t, f.engine.SkipBills(as(testUser), []uint64{billA, billB}), billing.ErrInvalidDueDate)
	require.ErrorIs(t, f.engine.DeleteBills(as(testUser), []uint64{billA, billB}), billing.ErrInvalidDueDate)
}

func TestBillOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	cycleID := f.createCycle(t, 6, 10000)
	billID := f.addBill(t, cycleID, 100)

	for name, call := range map[string]func() error{
		"get":    func() error { _, err := f.engine.GetBill(as(testOther), billID); return err },
		"pay":    func() error { return f.engine.PayBill(as(testOther), billID) },
		"skip":   func() error { return f.engine.SkipBill(as(testOther), billID) },
		"delete": func() error { return f.engine.DeleteBill(as(testOther), billID) },
	} {
		require.ErrorIs(t, call(), billing.ErrUnauthorized, fmt.Sprintf("%s must be owner-only", name))
	}
}
