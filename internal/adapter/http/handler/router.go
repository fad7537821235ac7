package handler

import (
	"offline-pay/internal/adapter/http/middleware"
	redisStore "offline-pay/internal/adapter/storage/redis"
	"offline-pay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	SyncSvc        ports.SyncService
	ReceiptSvc     ports.ReceiptService
	KeyRegistry    ports.KeyRegistry
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	MaxSyncBatch   int
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := deps.RateLimitRules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes, all device-token authenticated
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallets"), walletHandler.Provision)
		wallets.POST("/preload", rl("preload"), walletHandler.Preload)
		wallets.GET("/:id", rl("wallets"), walletHandler.Balance)
		wallets.GET("/:id/ledger", rl("wallets"), walletHandler.Ledger)
		wallets.DELETE("/:id", rl("wallets"), walletHandler.Deactivate)
	}

	syncHandler := NewSyncHandler(deps.SyncSvc, deps.MaxSyncBatch)
	v1.POST("/sync", rl("sync"), syncHandler.Sync)

	receiptHandler := NewReceiptHandler(deps.ReceiptSvc, deps.KeyRegistry)
	v1.POST("/receipts/verify", rl("receipts"), receiptHandler.Verify)

	return r
}
