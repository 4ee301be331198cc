package handlers

import (
	"net/http"

	"streampay/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) RoomStats(c *gin.Context) {
	room, err := h.Queries.RoomStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) PendingTips(c *gin.Context) {
	tips, err := h.Queries.PendingTips(c.Request.Context(), c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": c.Param("id"), "pending_tips": tips})
}

func (h *Handler) PendingAccessFees(c *gin.Context) {
	fees, err := h.Queries.PendingAccessFees(c.Request.Context(), c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": c.Param("id"), "pending_access_fees": fees})
}

func (h *Handler) QualityTierPricing(c *gin.Context) {
	pricing, err := h.Queries.QualityTierPricing(c.Request.Context(), c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": c.Param("id"), "quality_tiers": pricing})
}

func (h *Handler) RoomRevenueBreakdown(c *gin.Context) {
	breakdown, err := h.Queries.RoomRevenueBreakdown(c.Request.Context(), c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

func (h *Handler) UserState(c *gin.Context) {
	user, err := h.Queries.UserState(c.Request.Context(), c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UserPendingTransactions(c *gin.Context) {
	recs, err := h.Queries.UserPendingTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": c.Param("id"), "pending_transactions": recs})
}

func (h *Handler) GlobalStats(c *gin.Context) {
	stats, err := h.Queries.GlobalStats(c.Request.Context())
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UserPaymentSummary is the caller's widget state for one room.
func (h *Handler) UserPaymentSummary(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	summary, err := h.Queries.UserPaymentSummary(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RecommendedTip returns the suggested tip for the caller in a room.
func (h *Handler) RecommendedTip(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	tip, err := h.Queries.RecommendedTip(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": c.Param("id"), "recommended_tip": tip})
}

// CanAffordTier checks the caller's balance against a tier price, e.g.
// GET /rooms/:id/can-afford?tier=high.
func (h *Handler) CanAffordTier(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	tier, err := domain.ParseQualityTier(c.Query("tier"))
	if err != nil {
		ledgerError(c, err)
		return
	}

	affordable, err := h.Queries.CanAffordTier(c.Request.Context(), caller, c.Param("id"), tier)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": c.Param("id"), "quality_tier": tier, "can_afford": affordable})
}
