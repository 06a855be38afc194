package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
)

// DirectoryStore читает пользователей и объекты недвижимости, принадлежащие соседним сервисам
type DirectoryStore struct {
	pool *pgxpool.Pool
}

// NewDirectoryStore создает новый экземпляр DirectoryStore
func NewDirectoryStore(pool *pgxpool.Pool) *DirectoryStore {
	return &DirectoryStore{pool: pool}
}

// GetPropertyByID возвращает объект недвижимости
func (s *DirectoryStore) GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, COALESCE(city, ''), COALESCE(price, 0),
		       COALESCE(main_image, ''), status, created_at
		FROM properties
		WHERE id = $1
	`, id).Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Title,
		&p.City,
		&p.Price,
		&p.MainImage,
		&p.Status,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.KeyPropertyNotFound)
		}
		return nil, errors.Wrap(err, "select property")
	}
	return &p, nil
}

// GetUserSummary получает базовую информацию о пользователе
func (s *DirectoryStore) GetUserSummary(ctx context.Context, id uuid.UUID) (*models.UserSummary, error) {
	var user models.UserSummary
	err := s.pool.QueryRow(ctx, `
		SELECT id, COALESCE(username, ''), COALESCE(first_name, ''),
		       COALESCE(last_name, ''), COALESCE(avatar_url, '')
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "select user")
	}
	return &user, nil
}

// UpsertTelegramUser создает нового пользователя через Telegram или обновляет существующего
func (s *DirectoryStore) UpsertTelegramUser(ctx context.Context, tg models.TelegramUser) (uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "begin upsert telegram user")
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT user_id FROM telegram_users WHERE telegram_id = $1`, tg.TelegramID).Scan(&userID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Создаем запись в users
		err = tx.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, username, avatar_url, last_login_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
			RETURNING id
		`, tg.FirstName, tg.LastName, tg.Username, tg.PhotoURL).Scan(&userID)
		if err != nil {
			return uuid.Nil, errors.Wrap(err, "insert user")
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO telegram_users (user_id, telegram_id, username, first_name, last_name, photo_url, is_premium, language_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, userID, tg.TelegramID, tg.Username, tg.FirstName, tg.LastName, tg.PhotoURL, tg.IsPremium, tg.LanguageCode)
		if err != nil {
			return uuid.Nil, errors.Wrap(err, "insert telegram user")
		}
	case err != nil:
		return uuid.Nil, errors.Wrap(err, "select telegram user")
	default:
		// Обновляем время входа и данные профиля Telegram
		_, err = tx.Exec(ctx, `UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1`, userID)
		if err != nil {
			return uuid.Nil, errors.Wrap(err, "update last login")
		}

		_, err = tx.Exec(ctx, `
			UPDATE telegram_users
			SET username = $1, first_name = $2, last_name = $3, photo_url = $4,
				is_premium = $5, language_code = $6, updated_at = CURRENT_TIMESTAMP
			WHERE telegram_id = $7
		`, tg.Username, tg.FirstName, tg.LastName, tg.PhotoURL, tg.IsPremium, tg.LanguageCode, tg.TelegramID)
		if err != nil {
			return uuid.Nil, errors.Wrap(err, "update telegram user")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, errors.Wrap(err, "commit upsert telegram user")
	}
	return userID, nil
}
