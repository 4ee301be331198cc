package handlers

import (
	"net/http"

	"streampay/internal/domain"

	"github.com/gin-gonic/gin"
)

type DepositRequest struct {
	Amount uint64 `json:"amount"`
}

// Deposit credits the caller's ledger balance. Custody of the underlying
// value is out of scope; this endpoint is the hook an external funding
// pipeline calls once value has actually moved.
func (h *Handler) Deposit(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	var req DepositRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	user, err := h.Admin.Deposit(c.Request.Context(), caller, req.Amount)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me returns the caller's account.
func (h *Handler) Me(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	user, err := h.Queries.UserState(c.Request.Context(), caller)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdatePreferences replaces the caller's payment preferences.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	var prefs domain.UserPreferences
	if err := c.BindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	user, err := h.Admin.UpdatePreferences(c.Request.Context(), caller, prefs)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
