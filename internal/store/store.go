// Package store описывает интерфейсы доступа к данным сервиса сообщений.
// Реализации: postgres (pgx) и memory (тесты, локальный запуск).
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DevPardx/raiz-backend-sub000/internal/models"
)

// ConversationStore хранит диалоги
type ConversationStore interface {
	// CreateConversation сохраняет новый диалог. Нарушение уникальности
	// (property, buyer, seller) возвращает apperr KindConflict.
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	// GetConversationByID возвращает apperr KindNotFound, если диалога нет
	GetConversationByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	// FindConversation возвращает nil, nil, если диалога нет
	FindConversation(ctx context.Context, propertyID, buyerID, sellerID uuid.UUID) (*models.Conversation, error)
	// ListUserConversations возвращает диалоги пользователя и общее их количество.
	// Порядок: last_message_at DESC NULLS LAST, created_at DESC.
	ListUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Conversation, int, error)
	// ReconcileUnreadCounts пересчитывает счётчики непрочитанных по таблице сообщений
	// и возвращает количество исправленных диалогов
	ReconcileUnreadCounts(ctx context.Context) (int, error)
}

// MessageStore хранит сообщения. Операции записи атомарно обновляют диалог.
type MessageStore interface {
	// CreateMessage в одной транзакции сохраняет сообщение, обновляет превью диалога
	// и увеличивает на 1 счётчик получателя. Возвращает обновлённый диалог.
	CreateMessage(ctx context.Context, msg *models.Message, preview string, recipient models.ParticipantRole) (*models.Conversation, error)
	// ListMessages возвращает страницу сообщений от новых к старым и общее количество
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, int, error)
	// ListUnreadMessageIDs возвращает непрочитанные сообщения, отправленные не readerID
	ListUnreadMessageIDs(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error)
	// MarkConversationRead в одной транзакции отмечает прочитанными все сообщения собеседника
	// и, если хоть одно изменилось, обнуляет счётчик читателя. Возвращает число отмеченных.
	MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID, reader models.ParticipantRole, at time.Time) (int, error)
}

// PropertyLookup читает объекты недвижимости из сервиса объявлений
type PropertyLookup interface {
	// GetPropertyByID возвращает apperr KindNotFound, если объекта нет
	GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

// UserDirectory отдаёт краткие данные пользователей для карточек диалогов
type UserDirectory interface {
	// GetUserSummary возвращает nil, nil, если пользователь не найден
	GetUserSummary(ctx context.Context, id uuid.UUID) (*models.UserSummary, error)
}

// UserAccounts создаёт пользователей при входе через Telegram
type UserAccounts interface {
	UpsertTelegramUser(ctx context.Context, tg models.TelegramUser) (uuid.UUID, error)
}
