package billing

import "github.com/shopspring/decimal"

// Category classifies a bill for reporting purposes.
type Category string

const (
	CategoryHousing        Category = "HOUSING"
	CategoryUtilities      Category = "UTILITIES"
	CategoryTransportation Category = "TRANSPORTATION"
	CategoryFood           Category = "FOOD"
	CategoryHealthcare     Category = "HEALTHCARE"
	CategoryInsurance      Category = "INSURANCE"
	CategoryEntertainment  Category = "ENTERTAINMENT"
	CategoryEducation      Category = "EDUCATION"
	CategoryDebt           Category = "DEBT"
	CategoryOther          Category = "OTHER"
)

// Categories lists every valid bill category.
var Categories = []Category{
	CategoryHousing, CategoryUtilities, CategoryTransportation, CategoryFood,
	CategoryHealthcare, CategoryInsurance, CategoryEntertainment,
	CategoryEducation, CategoryDebt, CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Bill is one payable obligation inside a cycle.
//
// For non-recurring bills IsPaid is a one-way false -> true transition. For
// recurring bills IsPaid cycles false -> true -> false as occurrences are paid
// and the due date advances by 30 days, becoming permanently true once the
// next due date would fall on or after the cycle's end date.
type Bill struct {
	ID          uint64          `json:"id"`
	CycleID     uint64          `json:"cycle_id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     int64           `json:"due_date"` // unix seconds, day-of-month 1..28
	IsPaid      bool            `json:"is_paid"`
	IsRecurring bool            `json:"is_recurring"`
	// RecurrenceCalendar is an advisory tag of the months (1-12) the bill
	// recurs in. Scheduling itself advances DueDate by 30 days per payment.
	RecurrenceCalendar []uint32 `json:"recurrence_calendar,omitempty"`
	// LastPaidDate is the unix time of the most recent payment or skip; zero
	// means the bill has never been paid.
	LastPaidDate int64    `json:"last_paid_date,omitempty"`
	Category     Category `json:"category"`
}

// ProjectedCost is the bill's total claim against the cycle's allocatable
// balance: amount times expected occurrences for recurring bills, the plain
// amount otherwise.
func (b *Bill) ProjectedCost(cycle *BillCycle) decimal.Decimal {
	if b.IsRecurring {
		return b.Amount.Mul(decimal.NewFromInt(cycle.Occurrences()))
	}
	return b.Amount
}
