package router

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/handler"
	"rentalhub/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	adminHandler := handler.GetAdminHandler()

	listings := e.Group("/v1/admin/listings")
	listings.Use(authMiddleware.Authenticate)
	listings.Use(adminMiddleware.AdminOnly)
	listings.GET("/flagged", adminHandler.ListFlaggedProducts)
	listings.GET("/reported", adminHandler.ListReportedProducts)
	listings.POST("/:id/review", adminHandler.MarkForReview)
	listings.POST("/:id/clear-flags", adminHandler.ClearFlags)
	listings.POST("/:id/verify", adminHandler.VerifyProduct)
	listings.POST("/:id/end-rental", adminHandler.EndRental)
	listings.DELETE("/:id", adminHandler.DeleteProduct)

	users := e.Group("/v1/admin/users")
	users.Use(authMiddleware.Authenticate)
	users.Use(adminMiddleware.AdminOnly)
	users.GET("/kyc/pending", adminHandler.ListPendingKYC)
	users.POST("/:id/flag-count/increment", adminHandler.IncrementFlagCount)
	users.POST("/:id/flag-count/decrement", adminHandler.DecrementFlagCount)
	users.POST("/:id/kyc", adminHandler.ReviewKYC)
	users.DELETE("/:id", adminHandler.DeleteUser)
}
