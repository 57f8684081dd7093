package router

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/handler"
	"rentalhub/internal/adapter/api/middleware"
)

func SetupPaymentRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, throttle echo.MiddlewareFunc) {
	paymentHandler := handler.GetPaymentHandler()

	online := e.Group("/v1/listings")
	online.Use(authMiddleware.Authenticate)
	online.Use(throttle)
	online.POST("/:id/rental/online-payment", paymentHandler.InitiateKhalti)

	payments := e.Group("/v1/payments")
	payments.Use(authMiddleware.Authenticate)
	payments.Use(throttle)
	payments.POST("/khalti/verify", paymentHandler.VerifyKhalti)
}
