package models

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantRole определяет роль участника в диалоге
type ParticipantRole string

const (
	RoleBuyer  ParticipantRole = "buyer"
	RoleSeller ParticipantRole = "seller"
)

// Conversation представляет диалог покупателя и продавца по конкретному объекту
type Conversation struct {
	ID                uuid.UUID  `json:"id"`
	PropertyID        uuid.UUID  `json:"property_id"`
	BuyerID           uuid.UUID  `json:"buyer_id"`
	SellerID          uuid.UUID  `json:"seller_id"`
	LastMessage       *string    `json:"last_message"`
	LastMessageAt     *time.Time `json:"last_message_at"`
	BuyerUnreadCount  int        `json:"-"`
	SellerUnreadCount int        `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	Buyer       *UserSummary     `json:"buyer,omitempty"`
	Seller      *UserSummary     `json:"seller,omitempty"`
	Property    *PropertySummary `json:"property,omitempty"`
	UnreadCount int              `json:"unread_count"`
}

// RoleOf возвращает роль пользователя в диалоге
func RoleOf(conv *Conversation, userID uuid.UUID) (ParticipantRole, bool) {
	switch userID {
	case conv.BuyerID:
		return RoleBuyer, true
	case conv.SellerID:
		return RoleSeller, true
	}
	return "", false
}

// IsParticipant проверяет, является ли пользователь участником диалога
func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	_, ok := RoleOf(c, userID)
	return ok
}

// OtherParticipant возвращает ID собеседника
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if userID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

// UnreadCountFor возвращает счётчик непрочитанных, принадлежащий роли пользователя.
// Для покупателя это buyer_unread_count, для всех остальных seller_unread_count.
func UnreadCountFor(conv *Conversation, userID uuid.UUID) int {
	if conv.BuyerID == userID {
		return conv.BuyerUnreadCount
	}
	return conv.SellerUnreadCount
}

// WithUnreadFor заполняет поле UnreadCount для конкретного пользователя
func (c *Conversation) WithUnreadFor(userID uuid.UUID) *Conversation {
	c.UnreadCount = UnreadCountFor(c, userID)
	return c
}

// ConversationPage – страница списка диалогов
type ConversationPage struct {
	Data       []*Conversation `json:"data"`
	Pagination Pagination      `json:"pagination"`
}
