package handlers

import (
	"net/http"

	"streampay/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	UserID string `json:"user_id"`
}

// Auth issues a JWT for an opaque principal id. Verifying that the caller
// actually controls the id (wallet signature, SSO, ...) is the identity
// provider's job and sits in front of this service in production.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.UserID == "" || len(req.UserID) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	token, err := service.GenerateJWT(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user_id": req.UserID,
	})
}
