package handler

import (
	"context"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"rentalhub/internal/adapter/api/middleware"
	ws "rentalhub/internal/infrastructure/websocket"
	"rentalhub/internal/usecase"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
	"rentalhub/pkg/response"
)

const watchWriteWait = 10 * time.Second

type WebSocketHandler struct {
	wsManager      *ws.Manager
	listingUseCase *usecase.ListingUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, listingUseCase *usecase.ListingUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		listingUseCase: listingUseCase,
	}
}

// HandleWebSocket opens the caller's push channel for notifications and chat messages.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID := middleware.UID(c)
	if userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(userID, conn)
	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}

// WatchListing streams listing_update frames for one listing until the client disconnects.
func (h *WebSocketHandler) WatchListing(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.listingUseCase.GetListing(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := h.listingUseCase.WatchListing(ctx, id)
	if err != nil {
		logger.Warn("Failed to watch listing %s: %v", id, err)
		return nil
	}

	// Reads only detect the close; watchers send nothing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case listing, ok := <-updates:
			if !ok {
				conn.WriteMessage(gorillaws.CloseMessage, []byte{})
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			frame := ws.Envelope{
				Type:      ws.MessageTypeListingUpdate,
				Data:      listing,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}
			if err := conn.WriteJSON(frame); err != nil {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}
