package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
)

const messageColumns = `id, conversation_id, sender_id, content, type, image_url, status, is_read, read_at, created_at`

// Счётчик обновляется выражением col = col + N, а не записью значения из памяти,
// поэтому параллельные отправки не теряют инкременты.
const bumpConversationQuery = `
	UPDATE conversations
	SET last_message = $2,
	    last_message_at = $3,
	    updated_at = $3,
	    buyer_unread_count = buyer_unread_count + $4,
	    seller_unread_count = seller_unread_count + $5
	WHERE id = $1
	RETURNING ` + conversationColumns

const (
	resetBuyerUnreadQuery  = `UPDATE conversations SET buyer_unread_count = 0, updated_at = $2 WHERE id = $1`
	resetSellerUnreadQuery = `UPDATE conversations SET seller_unread_count = 0, updated_at = $2 WHERE id = $1`
)

// MessageStore хранит сообщения в таблице messages
type MessageStore struct {
	pool *pgxpool.Pool
}

// NewMessageStore создает новый экземпляр MessageStore
func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// CreateMessage сохраняет сообщение и обновляет диалог в одной транзакции.
// Диалог обновляется первым: блокировка его строки упорядочивает отправку
// относительно MarkConversationRead.
func (s *MessageStore) CreateMessage(ctx context.Context, msg *models.Message, preview string, recipient models.ParticipantRole) (*models.Conversation, error) {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	buyerInc, sellerInc := 0, 0
	switch recipient {
	case models.RoleBuyer:
		buyerInc = 1
	case models.RoleSeller:
		sellerInc = 1
	}

	// Начинаем транзакцию
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin send")
	}
	defer tx.Rollback(ctx)

	var conv models.Conversation
	err = tx.QueryRow(ctx, bumpConversationQuery,
		msg.ConversationID, preview, msg.CreatedAt, buyerInc, sellerInc,
	).Scan(conversationDest(&conv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.KeyConversationNotFound)
		}
		return nil, errors.Wrap(err, "update conversation preview")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, type, image_url, status, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, string(msg.Type), msg.ImageURL,
		string(msg.Status), msg.IsRead, msg.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "insert message")
	}

	// Фиксируем транзакцию
	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit send")
	}
	return &conv, nil
}

// ListMessages возвращает сообщения диалога от новых к старым
func (s *MessageStore) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID,
	).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count messages")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "select messages")
	}
	defer rows.Close()

	messages := make([]*models.Message, 0, limit)
	for rows.Next() {
		var msg models.Message
		var msgType, status string
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.Content,
			&msgType,
			&msg.ImageURL,
			&status,
			&msg.IsRead,
			&msg.ReadAt,
			&msg.CreatedAt,
		); err != nil {
			return nil, 0, errors.Wrap(err, "scan message")
		}
		msg.Type = models.MessageType(msgType)
		msg.Status = models.MessageStatus(status)
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate messages")
	}
	return messages, total, nil
}

// ListUnreadMessageIDs возвращает непрочитанные сообщения собеседника
func (s *MessageStore) ListUnreadMessageIDs(ctx context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM messages
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT is_read
	`, conversationID, readerID)
	if err != nil {
		return nil, errors.Wrap(err, "select unread messages")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, errors.Wrap(err, "collect unread messages")
	}
	return ids, nil
}

// MarkConversationRead отмечает сообщения собеседника прочитанными и обнуляет счётчик читателя.
// Строка диалога блокируется до обновления сообщений: отправка, начавшаяся раньше,
// будет видна и отмечена, начавшаяся позже дождётся коммита и увеличит уже обнулённый счётчик.
func (s *MessageStore) MarkConversationRead(ctx context.Context, conversationID, readerID uuid.UUID, reader models.ParticipantRole, at time.Time) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "begin mark read")
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM conversations WHERE id = $1 FOR UPDATE`, conversationID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound(apperr.KeyConversationNotFound)
		}
		return 0, errors.Wrap(err, "lock conversation")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE messages
		SET is_read = true, status = 'READ', read_at = $3
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT is_read
	`, conversationID, readerID, at)
	if err != nil {
		return 0, errors.Wrap(err, "mark messages read")
	}

	marked := int(tag.RowsAffected())
	if marked == 0 {
		return 0, nil
	}

	resetQuery := resetSellerUnreadQuery
	if reader == models.RoleBuyer {
		resetQuery = resetBuyerUnreadQuery
	}
	if _, err := tx.Exec(ctx, resetQuery, conversationID, at); err != nil {
		return 0, errors.Wrap(err, "reset unread counter")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit mark read")
	}
	return marked, nil
}
