package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Таблицы users и properties принадлежат сервисам пользователей и объявлений.
// Здесь они создаются только если их ещё нет, чтобы сервис поднимался на пустой базе.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	username TEXT,
	first_name TEXT,
	last_name TEXT,
	avatar_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS telegram_users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	telegram_id BIGINT NOT NULL UNIQUE,
	username TEXT,
	first_name TEXT,
	last_name TEXT,
	photo_url TEXT,
	is_premium BOOLEAN NOT NULL DEFAULT false,
	language_code TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS properties (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	city TEXT,
	price BIGINT,
	main_image TEXT,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS conversations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	property_id UUID NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
	buyer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	seller_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	last_message TEXT,
	last_message_at TIMESTAMPTZ,
	buyer_unread_count INTEGER NOT NULL DEFAULT 0 CHECK (buyer_unread_count >= 0),
	seller_unread_count INTEGER NOT NULL DEFAULT 0 CHECK (seller_unread_count >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT conversations_property_buyer_seller_key UNIQUE (property_id, buyer_id, seller_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'TEXT' CHECK (type IN ('TEXT', 'IMAGE')),
	image_url TEXT,
	status TEXT NOT NULL DEFAULT 'SENT' CHECK (status IN ('SENT', 'DELIVERED', 'READ')),
	is_read BOOLEAN NOT NULL DEFAULT false,
	read_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT messages_read_state_check CHECK (
		(is_read AND status = 'READ' AND read_at IS NOT NULL) OR
		(NOT is_read AND status <> 'READ' AND read_at IS NULL)
	)
);

CREATE INDEX IF NOT EXISTS idx_conversations_buyer ON conversations(buyer_id);
CREATE INDEX IF NOT EXISTS idx_conversations_seller ON conversations(seller_id);
CREATE INDEX IF NOT EXISTS idx_conversations_last_message_at ON conversations(last_message_at DESC NULLS LAST, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages(conversation_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(conversation_id, sender_id) WHERE NOT is_read;
`

// InitializeSchema создает таблицы диалогов и сообщений, если их нет
func InitializeSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ошибка при создании схемы: %w", err)
	}
	return nil
}
