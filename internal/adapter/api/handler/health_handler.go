package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"duochat/internal/infrastructure/websocket"
)

type HealthHandler struct {
	wsManager *websocket.Manager
}

func NewHealthHandler(wsManager *websocket.Manager) *HealthHandler {
	return &HealthHandler{
		wsManager: wsManager,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.wsManager != nil {
		body["connections"] = h.wsManager.ClientCount()
	}
	return c.JSON(http.StatusOK, body)
}
