package router

import (
	"fmt"
	"strings"

	"github.com/wasl-next/internal/cache"
	"github.com/wasl-next/internal/config"
	internalhandlers "github.com/wasl-next/internal/http/handlers/internalapi"
	"github.com/wasl-next/internal/http/response"
	"github.com/wasl-next/internal/logger"
	"github.com/wasl-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	internalHandler := internalhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "wasl"
	}
	redisClient := cache.Client()
	internalRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:internal", redisPrefix),
		WindowSeconds: 60,
		MaxRequests:   600,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))

	r.GET("/healthz", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	// 内部集成接口
	apiV1 := r.Group("/api/v1")
	internal := apiV1.Group("/internal")
	internal.Use(InternalAuthMiddleware(cfg.InternalAPI))
	internal.Use(RateLimitMiddleware(redisClient, internalRule, KeyByClientID))
	{
		internal.GET("/orders", internalHandler.ListOrders)
		internal.GET("/orders/:id", internalHandler.GetOrder)
		internal.POST("/orders/:id/status", internalHandler.ChangeOrderStatus)

		internal.GET("/orders/:id/package", internalHandler.GetOrderPackage)
		internal.POST("/orders/:id/package", internalHandler.CreateOrderPackage)
		internal.POST("/orders/:id/package/resend", internalHandler.ResendOrderPackage)

		internal.POST("/orders/:id/profits/distribute", internalHandler.DistributeOrderProfits)
		internal.POST("/orders/:id/profits/reverse", internalHandler.ReverseOrderProfits)

		internal.GET("/users/:id/wallet", internalHandler.GetUserWallet)
		internal.GET("/users/:id/wallet/transactions", internalHandler.ListUserWalletTransactions)
		internal.GET("/wallet/transactions/by-reference/:reference", internalHandler.GetWalletTransactionByReference)
	}

	return r
}
