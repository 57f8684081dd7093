package handler

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/response"
	"rentalhub/pkg/utils"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
	listingUseCase      *usecase.ListingUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase, listingUseCase *usecase.ListingUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
		listingUseCase:      listingUseCase,
	}
}

// RecipientID defaults to the listing owner.
type startConversationRequest struct {
	ListingID   string `json:"listing_id" validate:"required"`
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message" validate:"required,max=2000"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (h *ConversationHandler) StartConversation(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if req.RecipientID == "" {
		listing, err := h.listingUseCase.GetListing(c.Request().Context(), req.ListingID)
		if err != nil {
			return response.Error(c, err)
		}
		req.RecipientID = listing.OwnerID
	}

	result, err := h.conversationUseCase.StartOrGetConversation(c.Request().Context(), req.ListingID, middleware.UID(c), req.RecipientID, req.Message)
	if err != nil {
		return response.Error(c, err)
	}

	if result.Created {
		return response.Created(c, result)
	}
	return response.Success(c, result)
}

func (h *ConversationHandler) ListConversations(c echo.Context) error {
	p := utils.GetPaginationParams(c)

	conversations, total, err := h.conversationUseCase.ListConversations(c.Request().Context(), middleware.UID(c), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, conversations, total, p.Page, p.PageSize)
}

func (h *ConversationHandler) GetMessages(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}
	p := utils.GetPaginationParams(c)

	messages, total, err := h.conversationUseCase.GetMessages(c.Request().Context(), id, middleware.UID(c), p.PageSize, p.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, p.Page, p.PageSize)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.conversationUseCase.SendMessage(c.Request().Context(), id, middleware.UID(c), req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.conversationUseCase.MarkConversationRead(c.Request().Context(), id, middleware.UID(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}
