package httpapi

import (
	"billvault/internal/domain/billing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// gin binds through validator/v10; register the category rule once so DTO
	// tags can use it.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("billcategory", func(fl validator.FieldLevel) bool {
			return billing.Category(fl.Field().String()).Valid()
		})
	}
}

type createCycleRequest struct {
	DurationMonths uint32 `json:"duration_months" binding:"required,min=1,max=12"`
	Amount         string `json:"amount" binding:"required"`
}

type billEntryRequest struct {
	Name               string   `json:"name" binding:"required"`
	Amount             string   `json:"amount" binding:"required"`
	DueDate            int64    `json:"due_date" binding:"required"`
	IsRecurring        bool     `json:"is_recurring"`
	RecurrenceCalendar []uint32 `json:"recurrence_calendar" binding:"omitempty,dive,min=1,max=12"`
	Category           string   `json:"category" binding:"required,billcategory"`
}

type addBillsRequest struct {
	Bills []billEntryRequest `json:"bills" binding:"required,min=1,dive"`
}

type billIDsRequest struct {
	BillIDs []uint64 `json:"bill_ids" binding:"required,min=1"`
}

type transferAdminRequest struct {
	NewAdmin       string `json:"new_admin" binding:"required"`
	ExpirySequence uint64 `json:"expiry_sequence" binding:"required"`
}

type setIdentityRequest struct {
	Identity string `json:"identity" binding:"required"`
}

type setFeePercentageRequest struct {
	BasisPoints uint32 `json:"basis_points" binding:"required"`
}
