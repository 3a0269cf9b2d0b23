package handler

import (
	"relief-disbursement-gateway/internal/adapter/http/middleware"
	redisStore "relief-disbursement-gateway/internal/adapter/storage/redis"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc         ports.AuthService
	DisbursementSvc ports.DisbursementService
	BalanceSvc      ports.BalanceService
	Oracle          ports.BalanceOracle
	HistorySvc      ports.HistoryService
	VendorSvc       ports.VendorService
	VendorRepo      ports.VendorRepository
	LimitStore      ports.CategoryLimitStore
	TokenSvc        ports.TokenService
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit
	r.Use(metrics.Middleware())

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	r.GET("/metrics", metrics.Handler())

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
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

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	disbHandler := NewDisbursementHandler(deps.DisbursementSvc)
	v1.POST("/spend", rl("spend"), disbHandler.AuthorizeSpend)
	v1.POST("/purchases/validate", rl("validate"), disbHandler.ValidatePurchase)

	balanceHandler := NewBalanceHandler(deps.Oracle, deps.BalanceSvc)
	v1.GET("/beneficiaries/:beneficiary/balances", rl("balances"), balanceHandler.GetCategoryBalances)

	historyHandler := NewHistoryHandler(deps.HistorySvc)
	transactions := v1.Group("/transactions")
	{
		transactions.GET("", rl("feed"), historyHandler.Feed)
		transactions.GET("/:id", rl("feed"), historyHandler.Get)
	}

	vendorHandler := NewVendorHandler(deps.VendorSvc, deps.VendorRepo)
	vendors := v1.Group("/vendors")
	{
		vendors.GET("/:id", rl("balances"), vendorHandler.Get)
		vendors.POST("/:id/flags", rl("vendor_flags"), vendorHandler.Flag)
	}

	limitHandler := NewLimitHandler(deps.LimitStore)
	v1.GET("/limits", rl("balances"), limitHandler.List)

	// --- JWT-authenticated routes (administration) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	adminVendors := v1.Group("/vendors", jwtAuth)
	{
		adminVendors.POST("", rl("admin"), vendorHandler.Create)
		adminVendors.PUT("/:id/status", rl("admin"), vendorHandler.Review)
	}

	adminLimits := v1.Group("/limits", jwtAuth)
	{
		adminLimits.PUT("/:category", rl("admin"), limitHandler.Upsert)
		adminLimits.POST("/:category/override", rl("admin"), limitHandler.SetOverride)
	}

	return r
}
