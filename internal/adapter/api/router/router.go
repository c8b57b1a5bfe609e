package router

import (
	"github.com/labstack/echo/v4"

	"duochat/internal/adapter/api/middleware"
	"duochat/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *ratelimit.RateLimiter) {
	SetupHealthRouter(e)
	SetupAuthRouter(e, rateLimiter)
	SetupUserRouter(e, authMiddleware)
	SetupChatRouter(e, authMiddleware)
	SetupWebSocketRouter(e, authMiddleware)
}
