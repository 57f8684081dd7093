package router

import (
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/handler"
	"rentalhub/internal/adapter/api/middleware"
)

func SetupConversationRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, throttle echo.MiddlewareFunc) {
	conversationHandler := handler.GetConversationHandler()

	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)
	conversations.Use(throttle)
	conversations.POST("", conversationHandler.StartConversation)
	conversations.GET("", conversationHandler.ListConversations)
	conversations.GET("/:id/messages", conversationHandler.GetMessages)
	conversations.POST("/:id/messages", conversationHandler.SendMessage)
	conversations.POST("/:id/read", conversationHandler.MarkRead)
}
