package cloudinary

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для загрузки вложений
func (s *CloudinaryService) SetupRoutes(api fiber.Router, authMiddleware fiber.Handler) {
	// Маршрут для получения параметров загрузки
	api.Get("/upload/params", s.GenerateUploadParams, authMiddleware)
}
