package message

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для сообщений диалога
func (h *Handler) SetupRoutes(conversations fiber.Router) {
	// Маршрут для получения сообщений диалога
	conversations.Get("/:id/messages", h.GetMessages)

	// Маршрут для отправки сообщения
	conversations.Post("/:id/messages", h.SendMessage)
}
