package router

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/handler"
	"rentalhub/internal/adapter/api/middleware"
)

func SetupListingRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, throttle echo.MiddlewareFunc) {
	listingHandler := handler.GetListingHandler()
	ratingHandler := handler.GetRatingHandler()
	moderationHandler := handler.GetModerationHandler()

	listings := e.Group("/v1/listings")
	listings.GET("", listingHandler.ListListings)
	listings.GET("/:id", listingHandler.GetListing)

	rated := e.Group("/v1/listings")
	rated.Use(authMiddleware.Authenticate)
	rated.Use(throttle)
	rated.PUT("/:id/rating", ratingHandler.UpdateRating)
	rated.POST("/:id/flags", moderationHandler.FlagProduct)

	myListings := e.Group("/v1/my-listings")
	myListings.Use(authMiddleware.Authenticate)
	myListings.Use(throttle)
	myListings.GET("", listingHandler.ListMyListings)
	myListings.POST("", listingHandler.CreateListing)
	myListings.PUT("/:id", listingHandler.UpdateListing)
	myListings.DELETE("/:id", listingHandler.DeleteListing)
	myListings.POST("/:id/images", listingHandler.UploadImage)
	myListings.POST("/:id/appeal", moderationHandler.SubmitAppeal)
}
