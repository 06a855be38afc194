package websocket

import (
	"encoding/json"

	"github.com/google/uuid"
)

// EventType определяет тип события WebSocket
type EventType string

// Входящие события
const (
	EventJoinConversation  EventType = "join_conversation"
	EventLeaveConversation EventType = "leave_conversation"
	EventSendMessage       EventType = "send_message"
	EventTypingStart       EventType = "typing_start"
	EventTypingStop        EventType = "typing_stop"
)

// Исходящие события
const (
	EventConnected          EventType = "connected"
	EventJoinedConversation EventType = "joined_conversation"
	EventNewMessage         EventType = "new_message"
	EventUserTyping         EventType = "user_typing"
	EventUserStoppedTyping  EventType = "user_stopped_typing"
	EventMessagesRead       EventType = "messages_read"
	EventUnreadCount        EventType = "unread_count"
	EventError              EventType = "error"
)

// Event – конверт сообщения WebSocket
type Event struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent упаковывает данные в конверт
func NewEvent(eventType EventType, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: eventType, Data: raw}, nil
}

// conversationRef – данные событий, ссылающихся на диалог
type conversationRef struct {
	ConversationID string `json:"conversation_id"`
}

type sendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	Type           string `json:"type"`
	ImageURL       string `json:"image_url,omitempty"`
}

type typingPayload struct {
	UserID         uuid.UUID `json:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type connectedPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

type joinedPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

type messagesReadPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	Count          int       `json:"count"`
}

type unreadCountPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Count          int       `json:"count"`
}

type errorPayload struct {
	Message string `json:"message"`
}
