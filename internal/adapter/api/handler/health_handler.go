package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	storeDriver string
}

var healthHandler *HealthHandler

func NewHealthHandler(storeDriver string) *HealthHandler {
	return &HealthHandler{
		storeDriver: storeDriver,
	}
}

func SetupHealthHandler(storeDriver string) {
	healthHandler = NewHealthHandler(storeDriver)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"store":  h.storeDriver,
		"time":   time.Now().Format(time.RFC3339),
	})
}
