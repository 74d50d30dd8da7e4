package billing

import "fmt"

// The closed set of engine errors. Every operation either succeeds or fails
// with one of these before any uncommitted state change; callers dispatch with
// errors.Is.

// Authorization errors
var (
	ErrUnauthorized       = fmt.Errorf("caller is not authorized")
	ErrAdminNotSet        = fmt.Errorf("admin is not configured")
	ErrAlreadyInitialized = fmt.Errorf("engine is already initialized")
)

// Cycle-state errors
var (
	ErrCycleNotFound        = fmt.Errorf("cycle not found")
	ErrCycleNotActive       = fmt.Errorf("cycle is not active")
	ErrCycleAlreadyEnded    = fmt.Errorf("cycle has already been ended")
	ErrInvalidCycleDuration = fmt.Errorf("cycle duration must be between 1 and 12 months")
	ErrInsufficientFunds    = fmt.Errorf("insufficient funds")
)

// Bill-state errors
var (
	ErrBillNotFound                  = fmt.Errorf("bill not found")
	ErrBillAlreadyPaid               = fmt.Errorf("bill has already been paid")
	ErrInvalidBillAmount             = fmt.Errorf("bill amount must be positive")
	ErrInvalidDueDate                = fmt.Errorf("invalid due date")
	ErrBillLeadTimeTooShort          = fmt.Errorf("bill due date must be at least 7 days out")
	ErrMonthlyAdjustmentLimitReached = fmt.Errorf("monthly bill adjustment limit reached")
	ErrInvalidRecurrence             = fmt.Errorf("recurrence months must be between 1 and 12")
	ErrInvalidCategory               = fmt.Errorf("unknown bill category")
)

// Timing errors
var (
	ErrCycleNotEnded = fmt.Errorf("cycle end date has not been reached")
	ErrBillNotDueYet = fmt.Errorf("bill is not due today")
)

// Admin-transfer errors
var (
	ErrNoPendingAdminTransfer     = fmt.Errorf("no pending admin transfer")
	ErrAdminTransferExpired       = fmt.Errorf("admin transfer offer has expired")
	ErrPendingAdminTransferExists = fmt.Errorf("an unexpired admin transfer is already pending")
)

// Validation errors
var (
	ErrInvalidFeePercentage  = fmt.Errorf("fee percentage must be between 100 and 500 basis points")
	ErrInvalidTimestamp      = fmt.Errorf("invalid timestamp")
	ErrFeeRecipientNotSet    = fmt.Errorf("fee recipient is not configured")
	ErrSettlementAssetNotSet = fmt.Errorf("settlement asset is not configured")
)

// Concurrency errors
var ErrReentrancy = fmt.Errorf("reentrant call detected")
