package router

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/handler"
	"rentalhub/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, throttle echo.MiddlewareFunc) {
	userHandler := handler.GetUserHandler()

	me := e.Group("/v1/users/me")
	me.Use(authMiddleware.Authenticate)
	me.Use(throttle)
	me.GET("", userHandler.GetMe)
	me.PATCH("", userHandler.UpdateProfile)
	me.DELETE("", userHandler.DeleteMe)
	me.POST("/kyc-documents", userHandler.UploadKYCDocument)
	me.POST("/device-tokens", userHandler.RegisterDeviceToken)
	me.DELETE("/device-tokens", userHandler.RemoveDeviceToken)
}
