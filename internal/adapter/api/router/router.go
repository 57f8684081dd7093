package router

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/handler"
	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/infrastructure/ratelimit"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	limiter ratelimit.Limiter,
	wsHandler *handler.WebSocketHandler,
) {
	throttle := middleware.RateLimit(limiter, ratelimit.ActionAPI)

	SetupHealthRouter(e)
	SetupListingRouter(e, authMiddleware, throttle)
	SetupRentalRouter(e, authMiddleware, throttle)
	SetupPaymentRouter(e, authMiddleware, throttle)
	SetupConversationRouter(e, authMiddleware, throttle)
	SetupNotificationRouter(e, authMiddleware, throttle)
	SetupUserRouter(e, authMiddleware, throttle)
	SetupAdminRouter(e, authMiddleware, adminMiddleware)
	SetupWebSocketRouter(e, authMiddleware, wsHandler)
}
