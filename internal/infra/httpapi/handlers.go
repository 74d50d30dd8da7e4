package httpapi

import (
	"net/http"
	"strconv"

	"billvault/internal/app"
	"billvault/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Handler exposes the engine's operation surface over HTTP. Authorization is
// not re-checked here: the middleware proves the caller's identity and the
// engine enforces who may do what.
type Handler struct {
	engine *app.Engine
	log    *logrus.Logger
}

func NewHandler(engine *app.Engine, log *logrus.Logger) *Handler {
	return &Handler{engine: engine, log: log}
}

func (h *Handler) identity(c *gin.Context) billing.Identity {
	val, _ := c.Get(identityKey)
	identity, _ := val.(billing.Identity)
	return identity
}

// Admin / fee surface

func (h *Handler) GetAdmin(c *gin.Context) {
	admin, err := h.engine.Admin(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": admin})
}

func (h *Handler) TransferAdmin(c *gin.Context) {
	var req transferAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.TransferAdmin(c.Request.Context(), billing.Identity(req.NewAdmin), req.ExpirySequence); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "pending"})
}

func (h *Handler) AcceptAdminTransfer(c *gin.Context) {
	if err := h.engine.AcceptAdminTransfer(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

func (h *Handler) CancelAdminTransfer(c *gin.Context) {
	if err := h.engine.CancelAdminTransfer(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) GetFeeRecipient(c *gin.Context) {
	recipient, err := h.engine.FeeRecipient(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_recipient": recipient})
}

func (h *Handler) SetFeeRecipient(c *gin.Context) {
	var req setIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.SetFeeRecipient(c.Request.Context(), billing.Identity(req.Identity)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetSettlementAsset(c *gin.Context) {
	asset, err := h.engine.SettlementAsset(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlement_asset": asset})
}

func (h *Handler) SetSettlementAsset(c *gin.Context) {
	var req setIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.SetSettlementAsset(c.Request.Context(), billing.Identity(req.Identity)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetFeePercentage(c *gin.Context) {
	basisPoints, err := h.engine.FeePercentage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_percentage": basisPoints})
}

func (h *Handler) SetFeePercentage(c *gin.Context) {
	var req setFeePercentageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.SetFeePercentage(c.Request.Context(), req.BasisPoints); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Cycle surface

func (h *Handler) CreateCycle(c *gin.Context) {
	var req createCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	owner := h.identity(c)
	cycleID, err := h.engine.CreateCycle(c.Request.Context(), owner, req.DurationMonths, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	h.log.WithFields(logrus.Fields{"cycle_id": cycleID, "owner": owner}).Info("cycle created")
	c.JSON(http.StatusCreated, gin.H{"cycle_id": cycleID})
}

func (h *Handler) GetCycle(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	cycle, err := h.engine.GetCycle(c.Request.Context(), cycleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cycle)
}

func (h *Handler) GetUserCycles(c *gin.Context) {
	cycleIDs, err := h.engine.GetUserCycles(c.Request.Context(), h.identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycle_ids": cycleIDs})
}

func (h *Handler) GetAllCycles(c *gin.Context) {
	cycleIDs, err := h.engine.GetAllCycles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycle_ids": cycleIDs})
}

func (h *Handler) EndCycle(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.EndCycle(c.Request.Context(), cycleID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (h *Handler) AdminEndCycle(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.AdminEndCycle(c.Request.Context(), cycleID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

// Bill surface

func (h *Handler) AddBills(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req addBillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inputs := make([]app.BillInput, len(req.Bills))
	for i, entry := range req.Bills {
		amount, err := decimal.NewFromString(entry.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		inputs[i] = app.BillInput{
			Name:               entry.Name,
			Amount:             amount,
			DueDate:            entry.DueDate,
			IsRecurring:        entry.IsRecurring,
			RecurrenceCalendar: entry.RecurrenceCalendar,
			Category:           billing.Category(entry.Category),
		}
	}

	billIDs, err := h.engine.AddBills(c.Request.Context(), cycleID, inputs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bill_ids": billIDs})
}

func (h *Handler) GetBill(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}
	bill, err := h.engine.GetBill(c.Request.Context(), billID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *Handler) GetCycleBills(c *gin.Context) {
	cycleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	billIDs, err := h.engine.GetCycleBills(c.Request.Context(), cycleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill_ids": billIDs})
}

func (h *Handler) PayBill(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.PayBill(c.Request.Context(), billID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid"})
}

func (h *Handler) AdminPayBill(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.AdminPayBill(c.Request.Context(), billID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid"})
}

func (h *Handler) SkipBill(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.SkipBill(c.Request.Context(), billID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "skipped"})
}

func (h *Handler) DeleteBill(c *gin.Context) {
	billID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.DeleteBill(c.Request.Context(), billID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) SkipBills(c *gin.Context) {
	var req billIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.SkipBills(c.Request.Context(), req.BillIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "skipped"})
}

func (h *Handler) DeleteBills(c *gin.Context) {
	var req billIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.engine.DeleteBills(c.Request.Context(), req.BillIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
