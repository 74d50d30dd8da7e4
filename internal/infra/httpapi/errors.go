package httpapi

import (
	"errors"
	"net/http"

	"billvault/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

var statusByError = map[error]int{
	billing.ErrUnauthorized: http.StatusForbidden,
	billing.ErrAdminNotSet:  http.StatusForbidden,

	billing.ErrCycleNotFound: http.StatusNotFound,
	billing.ErrBillNotFound:  http.StatusNotFound,

	billing.ErrInvalidCycleDuration: http.StatusBadRequest,
	billing.ErrInvalidBillAmount:    http.StatusBadRequest,
	billing.ErrInvalidDueDate:       http.StatusBadRequest,
	billing.ErrBillLeadTimeTooShort: http.StatusBadRequest,
	billing.ErrInvalidRecurrence:    http.StatusBadRequest,
	billing.ErrInvalidCategory:      http.StatusBadRequest,
	billing.ErrInvalidFeePercentage: http.StatusBadRequest,
	billing.ErrInvalidTimestamp:     http.StatusBadRequest,

	billing.ErrInsufficientFunds:             http.StatusConflict,
	billing.ErrCycleNotActive:                http.StatusConflict,
	billing.ErrCycleAlreadyEnded:             http.StatusConflict,
	billing.ErrBillAlreadyPaid:               http.StatusConflict,
	billing.ErrMonthlyAdjustmentLimitReached: http.StatusConflict,
	billing.ErrCycleNotEnded:                 http.StatusConflict,
	billing.ErrBillNotDueYet:                 http.StatusConflict,
	billing.ErrNoPendingAdminTransfer:        http.StatusConflict,
	billing.ErrAdminTransferExpired:          http.StatusConflict,
	billing.ErrPendingAdminTransferExists:    http.StatusConflict,
	billing.ErrReentrancy:                    http.StatusConflict,
	billing.ErrAlreadyInitialized:            http.StatusConflict,
}

// respondError translates an engine error into an HTTP response. Unmapped
// errors are infrastructure failures and surface as 500 without leaking
// internals.
func respondError(c *gin.Context, err error) {
	for sentinel, status := range statusByError {
		if errors.Is(err, sentinel) {
			c.JSON(status, gin.H{"error": sentinel.Error()})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
