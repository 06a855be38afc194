package conversation

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/i18n"
	"github.com/DevPardx/raiz-backend-sub000/internal/middleware"
)

// createConversationRequest – тело запроса POST /conversations
type createConversationRequest struct {
	PropertyID string `json:"property_id" validate:"required,uuid"`
	SellerID   string `json:"seller_id" validate:"required,uuid"`
}

// Handler обрабатывает REST запросы к диалогам
type Handler struct {
	service    *ConversationService
	translator *i18n.Translator
	validate   *validator.Validate
}

// NewHandler создает новый экземпляр Handler
func NewHandler(service *ConversationService, translator *i18n.Translator, validate *validator.Validate) *Handler {
	return &Handler{service: service, translator: translator, validate: validate}
}

// CreateConversation создает новый диалог с продавцом объекта
func (h *Handler) CreateConversation(c fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req createConversationRequest
	if err := c.Bind().Body(&req); err != nil {
		return apperr.BadRequest(apperr.KeyInvalidRequest)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperr.BadRequest(apperr.KeyInvalidRequest)
	}

	conv, err := h.service.CreateConversation(c.Context(), identity.UserID,
		uuid.MustParse(req.PropertyID), uuid.MustParse(req.SellerID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(conv)
}

// GetConversations возвращает список диалогов пользователя
func (h *Handler) GetConversations(c fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	page, limit := PageParams(c)
	result, err := h.service.GetUserConversations(c.Context(), identity.UserID, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetConversation возвращает диалог по ID
func (h *Handler) GetConversation(c fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	conversationID, err := ConversationIDParam(c)
	if err != nil {
		return err
	}

	conv, err := h.service.GetConversationByID(c.Context(), identity.UserID, conversationID)
	if err != nil {
		return err
	}
	return c.JSON(conv)
}

// MarkAsRead отмечает сообщения собеседника прочитанными
func (h *Handler) MarkAsRead(c fiber.Ctx) error {
	identity, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	conversationID, err := ConversationIDParam(c)
	if err != nil {
		return err
	}

	marked, err := h.service.MarkMessagesAsRead(c.Context(), identity.UserID, conversationID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": h.translator.T(c.Get(fiber.HeaderAcceptLanguage), apperr.KeyMessagesMarkedRead),
		"count":   marked,
	})
}

// ConversationIDParam разбирает параметр :id маршрута
func ConversationIDParam(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.BadRequest(apperr.KeyInvalidConversationID)
	}
	return id, nil
}

// PageParams читает page и limit из строки запроса; некорректные значения заменяются нулём
// и затем нормализуются сервисом
func PageParams(c fiber.Ctx) (int, int) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "0"))
	return page, limit
}
