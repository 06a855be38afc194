// Package postgres реализует хранилища на PostgreSQL через пул pgx.
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
)

const uniqueViolation = "23505"

const conversationColumns = `id, property_id, buyer_id, seller_id, last_message, last_message_at,
	buyer_unread_count, seller_unread_count, created_at, updated_at`

// ConversationStore хранит диалоги в таблице conversations
type ConversationStore struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

// NewConversationStore создает новый экземпляр ConversationStore
func NewConversationStore(pool *pgxpool.Pool, log logrus.FieldLogger) *ConversationStore {
	return &ConversationStore{pool: pool, log: log}
}

// CreateConversation сохраняет новый диалог
func (s *ConversationStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, property_id, buyer_id, seller_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+conversationColumns,
		conv.ID, conv.PropertyID, conv.BuyerID, conv.SellerID,
	).Scan(conversationDest(conv)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Conflict(apperr.KeyConversationExists)
		}
		return errors.Wrap(err, "insert conversation")
	}
	return nil
}

// GetConversationByID возвращает диалог по ID
func (s *ConversationStore) GetConversationByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id).
		Scan(conversationDest(&conv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.KeyConversationNotFound)
		}
		return nil, errors.Wrap(err, "select conversation")
	}
	return &conv, nil
}

// FindConversation ищет диалог по тройке (объект, покупатель, продавец)
func (s *ConversationStore) FindConversation(ctx context.Context, propertyID, buyerID, sellerID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE property_id = $1 AND buyer_id = $2 AND seller_id = $3
	`, propertyID, buyerID, sellerID).Scan(conversationDest(&conv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find conversation")
	}
	return &conv, nil
}

// ListUserConversations возвращает страницу диалогов пользователя
func (s *ConversationStore) ListUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Conversation, int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM conversations WHERE buyer_id = $1 OR seller_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count conversations")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "select conversations")
	}
	defer rows.Close()

	conversations := make([]*models.Conversation, 0, limit)
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(conversationDest(&conv)...); err != nil {
			return nil, 0, errors.Wrap(err, "scan conversation")
		}
		conversations = append(conversations, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate conversations")
	}

	return conversations, total, nil
}

// ReconcileUnreadCounts находит диалоги с расхождением счётчиков и пересчитывает каждый
// под блокировкой строки, чтобы не затереть инкремент параллельной отправки.
func (s *ConversationStore) ReconcileUnreadCounts(ctx context.Context) (int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id AND NOT m.is_read
		GROUP BY c.id
		HAVING c.buyer_unread_count <> COUNT(m.id) FILTER (WHERE m.sender_id = c.seller_id)
		    OR c.seller_unread_count <> COUNT(m.id) FILTER (WHERE m.sender_id = c.buyer_id)
	`)
	if err != nil {
		return 0, errors.Wrap(err, "select drifted conversations")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return 0, errors.Wrap(err, "collect drifted conversations")
	}

	fixed := 0
	for _, id := range ids {
		changed, err := s.reconcileOne(ctx, id)
		if err != nil {
			return fixed, err
		}
		if changed {
			fixed++
		}
	}
	return fixed, nil
}

func (s *ConversationStore) reconcileOne(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, errors.Wrap(err, "begin reconcile")
	}
	defer tx.Rollback(ctx)

	var buyerID, sellerID uuid.UUID
	var buyerCount, sellerCount int
	err = tx.QueryRow(ctx, `
		SELECT buyer_id, seller_id, buyer_unread_count, seller_unread_count
		FROM conversations WHERE id = $1 FOR UPDATE
	`, id).Scan(&buyerID, &sellerID, &buyerCount, &sellerCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrap(err, "lock conversation")
	}

	var buyerActual, sellerActual int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE sender_id = $2),
		       COUNT(*) FILTER (WHERE sender_id = $3)
		FROM messages
		WHERE conversation_id = $1 AND NOT is_read
	`, id, sellerID, buyerID).Scan(&buyerActual, &sellerActual)
	if err != nil {
		return false, errors.Wrap(err, "count unread messages")
	}

	if buyerActual == buyerCount && sellerActual == sellerCount {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversations
		SET buyer_unread_count = $2, seller_unread_count = $3
		WHERE id = $1
	`, id, buyerActual, sellerActual)
	if err != nil {
		return false, errors.Wrap(err, "update unread counters")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "commit reconcile")
	}

	s.log.WithFields(logrus.Fields{
		"conversation_id": id,
		"buyer_unread":    buyerActual,
		"seller_unread":   sellerActual,
		"buyer_cached":    buyerCount,
		"seller_cached":   sellerCount,
	}).Warn("Исправлен рассинхронизированный счётчик непрочитанных")
	return true, nil
}

func conversationDest(c *models.Conversation) []any {
	return []any{
		&c.ID,
		&c.PropertyID,
		&c.BuyerID,
		&c.SellerID,
		&c.LastMessage,
		&c.LastMessageAt,
		&c.BuyerUnreadCount,
		&c.SellerUnreadCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}
