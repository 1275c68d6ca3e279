// Package router 组装Gin引擎：全局中间件、公开接口与需要认证的接口
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User      *handler.UserHandler
	Book      *handler.BookHandler
	Borrowing *handler.BorrowingHandler
	Payment   *handler.PaymentHandler
}

// New 创建Gin引擎并注册路由
//
//	/ping                              健康检查
//	/metrics                           Prometheus指标
//	/swagger/*any                      API文档（release模式关闭）
//	/api/v1/users/...                  注册/登录/刷新公开，其余需登录
//	/api/v1/books                      查询公开，增删改需管理员
//	/api/v1/borrowings/...             需登录
//	/api/v1/payments                   列表/详情需登录
//	/api/v1/payments/:id/success|cancel 支付回跳，公开，:id只接受会话ID
func New(cfg *config.Config, log *zap.Logger, h *Handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	r.Use(
		logger.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORS(cfg.Server.CORSOrigins),
		middleware.Tracing(),
	)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})

	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	requireAuth := auth.RequireAuth()
	requireAdmin := auth.RequireAdmin()

	users := v1.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.POST("/refresh", h.User.Refresh)
		users.POST("/logout", requireAuth, h.User.Logout)
		users.GET("/me", requireAuth, h.User.Me)
	}

	books := v1.Group("/books")
	{
		books.GET("", h.Book.ListBooks)
		books.GET("/:id", h.Book.GetBook)
		books.POST("", requireAuth, requireAdmin, h.Book.CreateBook)
		books.PUT("/:id", requireAuth, requireAdmin, h.Book.UpdateBook)
		books.DELETE("/:id", requireAuth, requireAdmin, h.Book.DeleteBook)
	}

	borrowings := v1.Group("/borrowings", requireAuth)
	{
		borrowings.POST("", h.Borrowing.CreateBorrowing)
		borrowings.GET("", h.Borrowing.ListBorrowings)
		borrowings.GET("/:id", h.Borrowing.GetBorrowing)
		borrowings.POST("/:id/return", h.Borrowing.ReturnBorrowing)
	}

	payments := v1.Group("/payments")
	{
		// 支付网关回跳地址，不带Token
		payments.GET("/:id/success", h.Payment.Success)
		payments.GET("/:id/cancel", h.Payment.Cancel)

		payments.GET("", requireAuth, h.Payment.ListPayments)
		payments.GET("/:id", requireAuth, h.Payment.GetPayment)
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperrors.ErrNotFound)
	})

	return r
}
