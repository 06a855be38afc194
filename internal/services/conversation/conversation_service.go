package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/store"
)

// Notifier получает события об изменении состояния прочтения
type Notifier interface {
	NotifyMessagesRead(conv *models.Conversation, readerID uuid.UUID, count int)
}

type noopNotifier struct{}

func (noopNotifier) NotifyMessagesRead(*models.Conversation, uuid.UUID, int) {}

// ConversationService управляет диалогами: создание, доступ участников и счётчики непрочитанных
type ConversationService struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	properties    store.PropertyLookup
	users         store.UserDirectory
	notifier      Notifier
	log           logrus.FieldLogger
	now           func() time.Time
}

// NewConversationService создает новый экземпляр ConversationService
func NewConversationService(
	conversations store.ConversationStore,
	messages store.MessageStore,
	properties store.PropertyLookup,
	users store.UserDirectory,
	notifier Notifier,
	log logrus.FieldLogger,
) *ConversationService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		properties:    properties,
		users:         users,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

// CreateConversation открывает диалог покупателя requesterID с продавцом объекта propertyID
func (s *ConversationService) CreateConversation(ctx context.Context, requesterID, propertyID, sellerID uuid.UUID) (*models.Conversation, error) {
	property, err := s.properties.GetPropertyByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	// Нельзя писать по собственному объявлению, независимо от переданного sellerID
	if property.OwnerUserID == requesterID {
		return nil, apperr.Forbidden(apperr.KeyOwnProperty)
	}
	if property.OwnerUserID != sellerID {
		return nil, apperr.Forbidden(apperr.KeySellerMismatch)
	}

	existing, err := s.conversations.FindConversation(ctx, propertyID, requesterID, sellerID)
	if err != nil {
		return nil, apperr.Wrap(err, "find conversation")
	}
	if existing != nil {
		return nil, apperr.Conflict(apperr.KeyConversationExists)
	}

	conv := &models.Conversation{
		PropertyID: propertyID,
		BuyerID:    requesterID,
		SellerID:   sellerID,
	}
	if err := s.conversations.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"property_id":     propertyID,
		"buyer_id":        requesterID,
		"seller_id":       sellerID,
	}).Info("Создан новый диалог")

	conv.Property = property.Summary()
	s.attachParticipants(ctx, conv)
	return conv.WithUnreadFor(requesterID), nil
}

// GetUserConversations возвращает страницу диалогов, где пользователь покупатель или продавец
func (s *ConversationService) GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) (*models.ConversationPage, error) {
	page, limit = models.NormalizePage(page, limit, models.DefaultConversationLimit)

	conversations, total, err := s.conversations.ListUserConversations(ctx, userID, limit, models.Offset(page, limit))
	if err != nil {
		return nil, apperr.Wrap(err, "list conversations")
	}

	for _, conv := range conversations {
		conv.WithUnreadFor(userID)
		s.attachParticipants(ctx, conv)
		s.attachProperty(ctx, conv)
	}

	return &models.ConversationPage{
		Data:       conversations,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// GetConversationByID возвращает диалог, если пользователь его участник
func (s *ConversationService) GetConversationByID(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	s.attachParticipants(ctx, conv)
	s.attachProperty(ctx, conv)
	return conv.WithUnreadFor(userID), nil
}

// Authorize проверяет, что пользователь участник диалога, без загрузки карточек
func (s *ConversationService) Authorize(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return conv.WithUnreadFor(userID), nil
}

// MarkMessagesAsRead отмечает прочитанными сообщения собеседника и обнуляет счётчик пользователя.
// Если непрочитанных нет, запись в хранилище не выполняется.
func (s *ConversationService) MarkMessagesAsRead(ctx context.Context, userID, conversationID uuid.UUID) (int, error) {
	conv, err := s.authorize(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}
	role, _ := models.RoleOf(conv, userID)

	unread, err := s.messages.ListUnreadMessageIDs(ctx, conversationID, userID)
	if err != nil {
		return 0, apperr.Wrap(err, "list unread messages")
	}
	if len(unread) == 0 {
		return 0, nil
	}

	marked, err := s.messages.MarkConversationRead(ctx, conversationID, userID, role, s.now())
	if err != nil {
		return 0, apperr.Wrap(err, "mark conversation read")
	}

	if marked > 0 {
		s.log.WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"reader_id":       userID,
			"marked":          marked,
		}).Debug("Сообщения отмечены как прочитанные")
		s.notifier.NotifyMessagesRead(conv, userID, marked)
	}
	return marked, nil
}

// ReconcileUnreadCounts пересчитывает счётчики непрочитанных по сообщениям
func (s *ConversationService) ReconcileUnreadCounts(ctx context.Context) (int, error) {
	fixed, err := s.conversations.ReconcileUnreadCounts(ctx)
	if err != nil {
		return fixed, apperr.Wrap(err, "reconcile unread counts")
	}
	return fixed, nil
}

func (s *ConversationService) authorize(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, apperr.Forbidden(apperr.KeyConversationForbidden)
	}
	return conv, nil
}

// attachParticipants получает данные о покупателе и продавце
func (s *ConversationService) attachParticipants(ctx context.Context, conv *models.Conversation) {
	conv.Buyer = s.userSummary(ctx, conv.BuyerID)
	conv.Seller = s.userSummary(ctx, conv.SellerID)
}

func (s *ConversationService) attachProperty(ctx context.Context, conv *models.Conversation) {
	property, err := s.properties.GetPropertyByID(ctx, conv.PropertyID)
	if err != nil {
		s.log.WithError(err).WithField("property_id", conv.PropertyID).Warn("Ошибка получения данных объекта")
		return
	}
	conv.Property = property.Summary()
}

func (s *ConversationService) userSummary(ctx context.Context, userID uuid.UUID) *models.UserSummary {
	user, err := s.users.GetUserSummary(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Ошибка получения данных пользователя")
		return nil
	}
	return user
}
