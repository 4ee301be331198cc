package handlers

import (
	"errors"
	"net/http"

	"streampay/internal/domain"
	"streampay/internal/ledger"
	"streampay/internal/service"

	"github.com/gin-gonic/gin"
)

// HandlerConfig holds configuration for handler
type HandlerConfig struct {
	TrackWithdrawals bool
}

type Handler struct {
	Store    ledger.Store
	Payments *service.PaymentService
	Admin    *service.AdminService
	Queries  *service.QueryService
}

func NewHandler(store ledger.Store, cfg HandlerConfig) *Handler {
	admin := service.NewAdminService(store)
	admin.TrackWithdrawals = cfg.TrackWithdrawals

	return &Handler{
		Store:    store,
		Payments: service.NewPaymentService(store),
		Admin:    admin,
		Queries:  service.NewQueryService(store),
	}
}

// callerID extracts the authenticated principal id set by the JWT
// middleware.
func callerID(c *gin.Context) (string, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ledgerError translates the closed error taxonomy to an HTTP response.
func ledgerError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusPaymentRequired
	case domain.ErrorCode(err) == "internal":
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": domain.ErrorCode(err)})
}
