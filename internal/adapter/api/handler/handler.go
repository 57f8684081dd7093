package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/domain/entity"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/errors"
)

var (
	listingHandler      *ListingHandler
	rentalHandler       *RentalHandler
	paymentHandler      *PaymentHandler
	ratingHandler       *RatingHandler
	moderationHandler   *ModerationHandler
	adminHandler        *AdminHandler
	conversationHandler *ConversationHandler
	notificationHandler *NotificationHandler
	userHandler         *UserHandler
)

type UseCases struct {
	Listings      *usecase.ListingUseCase
	Rentals       *usecase.RentalUseCase
	Ratings       *usecase.RatingUseCase
	Moderation    *usecase.ModerationUseCase
	Conversations *usecase.ConversationUseCase
	Notifications *usecase.NotificationUseCase
	Users         *usecase.UserUseCase
}

func Setup(uc UseCases) {
	listingHandler = NewListingHandler(uc.Listings)
	rentalHandler = NewRentalHandler(uc.Rentals, uc.Listings)
	paymentHandler = NewPaymentHandler(uc.Rentals)
	ratingHandler = NewRatingHandler(uc.Ratings)
	moderationHandler = NewModerationHandler(uc.Moderation)
	adminHandler = NewAdminHandler(uc.Moderation, uc.Rentals, uc.Users)
	conversationHandler = NewConversationHandler(uc.Conversations, uc.Listings)
	notificationHandler = NewNotificationHandler(uc.Notifications)
	userHandler = NewUserHandler(uc.Users, uc.Moderation)
}

func GetListingHandler() *ListingHandler {
	return listingHandler
}

func GetRentalHandler() *RentalHandler {
	return rentalHandler
}

func GetPaymentHandler() *PaymentHandler {
	return paymentHandler
}

func GetRatingHandler() *RatingHandler {
	return ratingHandler
}

func GetModerationHandler() *ModerationHandler {
	return moderationHandler
}

func GetAdminHandler() *AdminHandler {
	return adminHandler
}

func GetConversationHandler() *ConversationHandler {
	return conversationHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func pathID(c echo.Context) (string, error) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", errors.BadRequest("ID is required", nil)
	}
	return id, nil
}

// ownedListing loads the listing and checks that the caller owns it.
func ownedListing(c echo.Context, listings *usecase.ListingUseCase, listingID string) (*entity.Listing, error) {
	listing, err := listings.GetListing(c.Request().Context(), listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != middleware.UID(c) {
		return nil, errors.Forbidden("Only the owner can manage this product", nil)
	}
	return listing, nil
}
