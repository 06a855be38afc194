package conversation

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты для API диалогов
func (h *Handler) SetupRoutes(conversations fiber.Router) {
	// Маршрут для получения всех диалогов пользователя
	conversations.Get("/", h.GetConversations)

	// Маршрут для создания нового диалога
	conversations.Post("/", h.CreateConversation)

	// Маршрут для получения диалога
	conversations.Get("/:id", h.GetConversation)

	// Маршрут для отметки сообщений как прочитанных
	conversations.Patch("/:id/read", h.MarkAsRead)
}
