package handler

import (
	"vaultmarket/internal/adapter/http/middleware"
	redisStore "vaultmarket/internal/adapter/storage/redis"
	"vaultmarket/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	SettlementSvc  ports.SettlementService
	FeeSvc         ports.FeeService
	WalletSvc      ports.WalletService
	OrderSvc       ports.OrderService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep: verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	checkoutHandler := NewCheckoutHandler(deps.SettlementSvc, deps.FeeSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)
	orderHandler := NewOrderHandler(deps.OrderSvc)

	// --- Public routes ---
	v1.GET("/checkout/estimate", rl("reads"), checkoutHandler.Estimate)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	v1.POST("/checkout", jwtAuth, rl("checkout"), checkoutHandler.Checkout)

	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/balance", rl("reads"), walletHandler.GetBalance)
		wallets.GET("/statement", rl("reads"), walletHandler.GetStatement)
		wallets.POST("/topup", rl("wallets_topup"), walletHandler.Topup)
	}

	orders := v1.Group("/orders", jwtAuth)
	{
		orders.GET("", rl("reads"), orderHandler.ListOrders)
		orders.GET("/:id", rl("reads"), orderHandler.GetOrder)
	}

	return r
}
