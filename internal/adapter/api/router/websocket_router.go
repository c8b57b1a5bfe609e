package router

import (
	"github.com/labstack/echo/v4"

	"duochat/internal/adapter/api/handler"
	"duochat/internal/adapter/api/middleware"
)

// SetupWebSocketRouter sets up WebSocket routes. Browsers pass the ID token as
// the "token" query parameter.
func SetupWebSocketRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	wsHandler := handler.GetWebSocketHandler()
	e.GET("/ws/chats", wsHandler.HandleChat, authMiddleware.Authenticate)
}
