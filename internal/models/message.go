package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType определяет тип сообщения
type MessageType string

const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeImage MessageType = "IMAGE"
)

// Valid проверяет, что тип сообщения известен
func (t MessageType) Valid() bool {
	return t == MessageTypeText || t == MessageTypeImage
}

// MessageStatus определяет статус доставки сообщения
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusRead      MessageStatus = "READ"
)

// ImagePreview подставляется в превью диалога вместо текста для изображений
const ImagePreview = "Image"

// Message представляет сообщение в диалоге
type Message struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	SenderID       uuid.UUID     `json:"sender_id"`
	Content        string        `json:"content"`
	Type           MessageType   `json:"type"`
	ImageURL       *string       `json:"image_url,omitempty"`
	Status         MessageStatus `json:"status"`
	IsRead         bool          `json:"is_read"`
	ReadAt         *time.Time    `json:"read_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`

	// Дополнительные поля для API
	Sender *UserSummary `json:"sender,omitempty"`
}

// Preview возвращает текст превью диалога для сообщения
func (m *Message) Preview() string {
	if m.Type == MessageTypeImage {
		return ImagePreview
	}
	return m.Content
}

// MarkRead переводит сообщение в состояние READ
func (m *Message) MarkRead(at time.Time) {
	m.IsRead = true
	m.Status = MessageStatusRead
	m.ReadAt = &at
}

// MessagePage – страница истории сообщений в хронологическом порядке
type MessagePage struct {
	Data         []*Message    `json:"data"`
	Pagination   Pagination    `json:"pagination"`
	Conversation *Conversation `json:"conversation"`
}
