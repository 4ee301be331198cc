package handlers

import (
	"net/http"

	"streampay/internal/domain"

	"github.com/gin-gonic/gin"
)

type TipRequest struct {
	Amount    uint64 `json:"amount"`
	Message   string `json:"message"`
	SuperChat bool   `json:"super_chat"`
}

// SendTip admits a tip from the caller to the room in the path.
func (h *Handler) SendTip(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	var req TipRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	receipt, err := h.Payments.SendTip(c.Request.Context(), caller, c.Param("id"), req.Amount, req.Message, req.SuperChat)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

type AccessFeeRequest struct {
	QualityTier string `json:"quality_tier"`
}

// PayAccessFee purchases a quality tier for the caller.
func (h *Handler) PayAccessFee(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	var req AccessFeeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	tier, err := domain.ParseQualityTier(req.QualityTier)
	if err != nil {
		ledgerError(c, err)
		return
	}

	receipt, err := h.Payments.PayAccessFee(c.Request.Context(), caller, c.Param("id"), tier)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

type SettleRequest struct {
	UserID string `json:"user_id"`
}

// Settle clears a pending queue into a batch receipt. Defaults to the
// caller's own queue; settling another user is allowed (the operation only
// checkpoints their bookkeeping, it moves no value).
func (h *Handler) Settle(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	var req SettleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = caller
	}

	receipt, err := h.Payments.Settle(c.Request.Context(), userID)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
