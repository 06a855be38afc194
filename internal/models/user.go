package models

import "github.com/google/uuid"

// UserSummary представляет минимальную информацию о пользователе для API
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// Identity – аутентифицированный пользователь, от имени которого выполняется запрос
type Identity struct {
	UserID uuid.UUID
	Role   string
}

// TelegramUser представляет данные пользователя из Telegram
type TelegramUser struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	PhotoURL     string
	IsPremium    bool
	LanguageCode string
}
