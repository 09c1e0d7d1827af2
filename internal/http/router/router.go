package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arcline/studio-backend/internal/config"
	"github.com/arcline/studio-backend/internal/http/handlers"
	"github.com/arcline/studio-backend/internal/http/middleware"
	"github.com/arcline/studio-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	changeOrderHandler *handlers.ChangeOrderHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/documents", http.Dir(cfg.DocumentStoragePath))

	api := r.Group("/api")

	// WebSocket авторизуется токеном в query-параметре, не через middleware.
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	protected.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		protected.GET("/projects/:id/change-orders", middleware.UUIDValidator("id"), changeOrderHandler.ListByProject)

		protected.POST("/change-orders", changeOrderHandler.Create)
		protected.GET("/change-orders/:id", middleware.UUIDValidator("id"), changeOrderHandler.Get)
		protected.PATCH("/change-orders/:id", middleware.UUIDValidator("id"), changeOrderHandler.Update)
		protected.DELETE("/change-orders/:id", middleware.UUIDValidator("id"), changeOrderHandler.Delete)

		// Действия жизненного цикла
		protected.POST("/change-orders/:id/sign", middleware.UUIDValidator("id"), changeOrderHandler.Sign)
		protected.POST("/change-orders/:id/send", middleware.UUIDValidator("id"), changeOrderHandler.Send)
		protected.POST("/change-orders/:id/resend", middleware.UUIDValidator("id"), changeOrderHandler.Resend)
		protected.POST("/change-orders/:id/approve", middleware.UUIDValidator("id"), changeOrderHandler.Approve)
		protected.POST("/change-orders/:id/reject", middleware.UUIDValidator("id"), changeOrderHandler.Reject)
		protected.POST("/change-orders/:id/void", middleware.UUIDValidator("id"), changeOrderHandler.Void)

		// Документ и история
		protected.GET("/change-orders/:id/document", middleware.UUIDValidator("id"), changeOrderHandler.Document)
		protected.GET("/change-orders/:id/timeline", middleware.UUIDValidator("id"), changeOrderHandler.Timeline)
	}

	return r
}
