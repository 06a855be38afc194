package message

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/store"
)

// MaxContentLength – максимальная длина текста сообщения в символах
const MaxContentLength = 5000

// ImageFolder – папка хранилища изображений для вложений чата
const ImageFolder = "conversations"

// ImageUploader перезаливает изображения во внешнее хранилище
type ImageUploader interface {
	UploadImage(ctx context.Context, data, folder string) (string, error)
}

// Authorizer проверяет доступ пользователя к диалогу
type Authorizer interface {
	GetConversationByID(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error)
	Authorize(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error)
}

// Notifier доставляет события о новых сообщениях подключённым участникам
type Notifier interface {
	NotifyNewMessage(conv *models.Conversation, msg *models.Message)
}

type noopNotifier struct{}

func (noopNotifier) NotifyNewMessage(*models.Conversation, *models.Message) {}

// SendMessageInput – данные нового сообщения
type SendMessageInput struct {
	Type     models.MessageType
	Content  string
	ImageURL string
}

// MessageService отправляет сообщения и отдаёт историю диалога
type MessageService struct {
	conversations Authorizer
	messages      store.MessageStore
	users         store.UserDirectory
	images        ImageUploader
	notifier      Notifier
	imageFolder   string
	log           logrus.FieldLogger
	now           func() time.Time
}

// NewMessageService создает новый экземпляр MessageService
func NewMessageService(
	conversations Authorizer,
	messages store.MessageStore,
	users store.UserDirectory,
	images ImageUploader,
	notifier Notifier,
	log logrus.FieldLogger,
) *MessageService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		images:        images,
		notifier:      notifier,
		imageFolder:   ImageFolder,
		log:           log,
		now:           time.Now,
	}
}

// UseImageFolder задаёт папку хранилища для вложений; пустое значение оставляет папку по умолчанию
func (s *MessageService) UseImageFolder(folder string) *MessageService {
	if folder != "" {
		s.imageFolder = folder
	}
	return s
}

// SendMessage создает сообщение от senderID, обновляет превью диалога и счётчик получателя
func (s *MessageService) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, in SendMessageInput) (*models.Message, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	conv, err := s.conversations.Authorize(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	// Получатель – собеседник отправителя
	recipient := models.RoleSeller
	if senderID == conv.SellerID {
		recipient = models.RoleBuyer
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        in.Content,
		Type:           in.Type,
		Status:         models.MessageStatusSent,
		IsRead:         false,
		CreatedAt:      s.now(),
	}
	if in.Type == models.MessageTypeImage && in.ImageURL != "" {
		imageURL := s.rehostImage(ctx, in.ImageURL)
		msg.ImageURL = &imageURL
	}

	updated, err := s.messages.CreateMessage(ctx, msg, msg.Preview(), recipient)
	if err != nil {
		return nil, apperr.Wrap(err, "create message")
	}

	msg.Sender = s.userSummary(ctx, senderID)

	s.log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"message_id":      msg.ID,
		"sender_id":       senderID,
		"type":            msg.Type,
	}).Debug("Сообщение отправлено")

	s.notifier.NotifyNewMessage(updated, msg)
	return msg, nil
}

// GetConversationMessages возвращает страницу истории в хронологическом порядке
func (s *MessageService) GetConversationMessages(ctx context.Context, userID, conversationID uuid.UUID, page, limit int) (*models.MessagePage, error) {
	conv, err := s.conversations.GetConversationByID(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	page, limit = models.NormalizePage(page, limit, models.DefaultMessageLimit)
	messages, total, err := s.messages.ListMessages(ctx, conversationID, limit, models.Offset(page, limit))
	if err != nil {
		return nil, apperr.Wrap(err, "list messages")
	}

	// Хранилище отдаёт от новых к старым, клиенту страница нужна от старых к новым
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	senders := make(map[uuid.UUID]*models.UserSummary, 2)
	for _, msg := range messages {
		sender, ok := senders[msg.SenderID]
		if !ok {
			sender = s.userSummary(ctx, msg.SenderID)
			senders[msg.SenderID] = sender
		}
		msg.Sender = sender
	}

	return &models.MessagePage{
		Data:         messages,
		Pagination:   models.NewPagination(page, limit, total),
		Conversation: conv,
	}, nil
}

// rehostImage загружает изображение во внешнее хранилище.
// Ошибка загрузки не прерывает отправку: сохраняется исходная ссылка.
func (s *MessageService) rehostImage(ctx context.Context, source string) string {
	if s.images == nil {
		return source
	}
	url, err := s.images.UploadImage(ctx, source, s.imageFolder)
	if err != nil {
		s.log.WithError(err).Warn("Не удалось загрузить изображение, сохраняем исходную ссылку")
		return source
	}
	return url
}

func (s *MessageService) userSummary(ctx context.Context, userID uuid.UUID) *models.UserSummary {
	user, err := s.users.GetUserSummary(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("Ошибка получения данных пользователя")
		return nil
	}
	return user
}

func validateInput(in *SendMessageInput) error {
	if in.Type == "" {
		in.Type = models.MessageTypeText
	}
	if !in.Type.Valid() {
		return apperr.BadRequest(apperr.KeyInvalidMessageType)
	}

	in.Content = strings.TrimSpace(in.Content)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	switch in.Type {
	case models.MessageTypeText:
		if in.Content == "" {
			return apperr.BadRequest(apperr.KeyEmptyContent)
		}
	case models.MessageTypeImage:
		if in.ImageURL == "" {
			return apperr.BadRequest(apperr.KeyImageURLRequired)
		}
	}

	if utf8.RuneCountInString(in.Content) > MaxContentLength {
		return apperr.BadRequest(apperr.KeyContentTooLong)
	}
	return nil
}
