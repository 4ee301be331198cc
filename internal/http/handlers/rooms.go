package handlers

import (
	"net/http"

	"streampay/internal/domain"

	"github.com/gin-gonic/gin"
)

type CreateRoomRequest struct {
	RoomID   string               `json:"room_id"`
	Settings *domain.RoomSettings `json:"settings"`
}

// CreateRoom provisions a payment pool with the caller as host.
func (h *Handler) CreateRoom(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	var req CreateRoomRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	room, err := h.Admin.CreateRoom(c.Request.Context(), caller, req.RoomID, req.Settings)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// UpdateRoomSettings replaces the room settings wholesale. Host only.
func (h *Handler) UpdateRoomSettings(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	var settings domain.RoomSettings
	if err := c.BindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	roomID := c.Param("id")
	if err := h.Admin.UpdateRoomSettings(c.Request.Context(), caller, roomID, settings); err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "updated": true})
}

type WithdrawRequest struct {
	// decimal string so 128-bit amounts survive JSON
	Amount string `json:"amount"`
}

// WithdrawFunds authorizes a host withdrawal.
func (h *Handler) WithdrawFunds(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		ledgerError(c, domain.ErrUnauthorized)
		return
	}

	var req WithdrawRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	amount, err := domain.ParseUint128(req.Amount)
	if err != nil {
		ledgerError(c, domain.ErrInvalidAmount)
		return
	}

	receipt, err := h.Admin.WithdrawFunds(c.Request.Context(), caller, c.Param("id"), amount)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
