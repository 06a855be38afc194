package message

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/middleware"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/conversation"
)

// sendMessageRequest – тело запроса POST /conversations/:id/messages
type sendMessageRequest struct {
	Type     string `json:"type" validate:"omitempty,oneof=TEXT IMAGE"`
	Content  string `json:"content" validate:"max=5000"`
	ImageURL string `json:"image_url"`
}

// Handler обрабатывает REST запросы к сообщениям
type Handler struct {
	service  *MessageService
	validate *validator.Validate
}

// NewHandler создает новый экземпляр Handler
func NewHandler(service *MessageService, validate *validator.Validate) *Handler {
	return &Handler{service: service, validate: validate}
}

// GetMessages возвращает историю сообщений диалога
func (h *Handler) GetMessages(c fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	conversationID, err := conversation.ConversationIDParam(c)
	if err != nil {
		return err
	}

	page, limit := conversation.PageParams(c)
	result, err := h.service.GetConversationMessages(c.Context(), identity.UserID, conversationID, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// SendMessage отправляет новое сообщение
func (h *Handler) SendMessage(c fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	conversationID, err := conversation.ConversationIDParam(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperr.BadRequest(apperr.KeyInvalidRequest)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperr.BadRequest(apperr.KeyInvalidRequest)
	}

	msg, err := h.service.SendMessage(c.Context(), identity.UserID, conversationID, SendMessageInput{
		Type:     models.MessageType(req.Type),
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
