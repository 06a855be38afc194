package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/DevPardx/raiz-backend-sub000/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(api fiber.Router) {
	api.Post("/auth/telegram", s.TelegramAuthHandler)

	// Защищенные маршруты. В Fiber v3 обработчик идёт первым, middleware после него.
	api.Get("/auth/me", s.MeHandler, middleware.AuthMiddleware(s.jwtService))
}
