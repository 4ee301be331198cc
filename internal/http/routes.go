package http

import (
	"os"
	"strconv"
	"time"

	"streampay/internal/config"
	"streampay/internal/http/handlers"
	"streampay/internal/http/middleware"
	"streampay/internal/ledger"
	"streampay/internal/ws"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, store ledger.Store, version string) {
	RegisterRoutesWithConfig(r, store, version, nil)
}

func RegisterRoutesWithConfig(r *gin.Engine, store ledger.Store, version string, cfg *config.Config) {
	hcfg := handlers.HandlerConfig{}
	if cfg != nil {
		hcfg.TrackWithdrawals = cfg.TrackWithdrawals
	}
	h := handlers.NewHandler(store, hcfg)
	healthHandler := handlers.NewHealthHandler(store, version)

	// Payment event feed. Wiring the hub into the payment service keeps
	// broadcast out of the request path handlers.
	hub := ws.NewHub()
	h.Payments.Events = hub

	// read limits from env, with safe defaults
	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Metrics())
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))
	registerAPIRoutes(v1, h, authRateLimit, authRateWindow)

	// Payment event feed for overlay widgets
	r.GET("/ws", h.WS(hub))
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, authRateLimit int, authRateWindow time.Duration) {
	// Auth
	api.POST("/auth", middleware.RedisRateLimit(authRateLimit, authRateWindow), h.Auth)

	// Wallet
	api.GET("/me", middleware.JWT(), h.Me)
	api.POST("/me/deposit", middleware.JWT(), h.Deposit)
	api.PUT("/me/preferences", middleware.JWT(), h.UpdatePreferences)

	// Rooms: provisioning and host administration
	api.POST("/rooms", middleware.JWT(), h.CreateRoom)
	api.PUT("/rooms/:id/settings", middleware.JWT(), h.UpdateRoomSettings)
	api.POST("/rooms/:id/withdraw", middleware.JWT(), h.WithdrawFunds)

	// Payments
	api.POST("/rooms/:id/tip", middleware.JWT(), h.SendTip)
	api.POST("/rooms/:id/access", middleware.JWT(), h.PayAccessFee)
	api.POST("/settle", middleware.JWT(), h.Settle)

	// Room read side
	api.GET("/rooms/:id", h.RoomStats)
	api.GET("/rooms/:id/pending/tips", h.PendingTips)
	api.GET("/rooms/:id/pending/access-fees", h.PendingAccessFees)
	api.GET("/rooms/:id/tiers", h.QualityTierPricing)
	api.GET("/rooms/:id/revenue", h.RoomRevenueBreakdown)

	// Caller-scoped room views
	api.GET("/rooms/:id/summary", middleware.JWT(), h.UserPaymentSummary)
	api.GET("/rooms/:id/recommended-tip", middleware.JWT(), h.RecommendedTip)
	api.GET("/rooms/:id/can-afford", middleware.JWT(), h.CanAffordTier)

	// User read side
	api.GET("/users/:id", h.UserState)
	api.GET("/users/:id/pending", h.UserPendingTransactions)

	// Platform-wide counters
	api.GET("/stats", h.GlobalStats)
}
