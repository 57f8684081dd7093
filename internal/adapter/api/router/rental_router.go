package router

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/handler"
	"rentalhub/internal/adapter/api/middleware"
)

func SetupRentalRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, throttle echo.MiddlewareFunc) {
	rentalHandler := handler.GetRentalHandler()

	renter := e.Group("/v1/listings")
	renter.Use(authMiddleware.Authenticate)
	renter.Use(throttle)
	renter.POST("/:id/rental-requests", rentalHandler.PlaceRentalRequest)
	renter.DELETE("/:id/rental-requests", rentalHandler.CancelRentalRequest)
	renter.POST("/:id/rental/payment-method", rentalHandler.SelectPaymentMethod)
	renter.POST("/:id/rental/return", rentalHandler.RequestReturn)

	owner := e.Group("/v1/my-listings")
	owner.Use(authMiddleware.Authenticate)
	owner.Use(throttle)
	owner.GET("/:id/rental/history", rentalHandler.RentalHistory)
	owner.POST("/:id/rental/approve", rentalHandler.ApproveRentalRequest)
	owner.POST("/:id/rental/reject", rentalHandler.RejectRentalRequest)
	owner.POST("/:id/rental/cash-payment", rentalHandler.CompleteCashPayment)
	owner.POST("/:id/rental/handover", rentalHandler.HandoverProduct)
	owner.POST("/:id/rental/verify-return", rentalHandler.VerifyReturn)

	transactions := e.Group("/v1/transactions")
	transactions.Use(authMiddleware.Authenticate)
	transactions.Use(throttle)
	transactions.GET("", rentalHandler.ListMyTransactions)
}
