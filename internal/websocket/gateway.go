package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/i18n"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/message"
)

// Время на обработку одного входящего события
const handleTimeout = 15 * time.Second

// ConversationAuthorizer проверяет участие пользователя в диалоге
type ConversationAuthorizer interface {
	Authorize(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error)
}

// MessageSender создаёт сообщения
type MessageSender interface {
	SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, in message.SendMessageInput) (*models.Message, error)
}

// Gateway разбирает события клиентов и вызывает сервисы диалогов и сообщений.
// Рассылку новых сообщений выполняет Manager как уведомитель сервиса сообщений.
type Gateway struct {
	manager       *Manager
	conversations ConversationAuthorizer
	messages      MessageSender
	translator    *i18n.Translator
	log           logrus.FieldLogger
}

// NewGateway создает новый экземпляр Gateway
func NewGateway(manager *Manager, conversations ConversationAuthorizer, messages MessageSender, translator *i18n.Translator, log logrus.FieldLogger) *Gateway {
	return &Gateway{
		manager:       manager,
		conversations: conversations,
		messages:      messages,
		translator:    translator,
		log:           log,
	}
}

// Connect регистрирует клиента и подтверждает подключение
func (g *Gateway) Connect(c *Client) {
	g.manager.AddClient(c)
	g.emit(c, EventConnected, connectedPayload{UserID: c.UserID})
}

// Serve подключает клиента и запускает обработку его соединения
func (g *Gateway) Serve(c *Client) {
	g.Connect(c)
	c.Run(g.manager, g)
}

// HandleEvent обрабатывает входящий кадр. Ошибки отправляются клиенту и не разрывают соединение.
func (g *Gateway) HandleEvent(c *Client, raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		g.log.WithError(err).WithField("client_id", c.ID).Debug("Некорректный кадр WebSocket")
		return
	}

	ctx, cancel := context.WithTimeout(g.manager.Context(), handleTimeout)
	defer cancel()

	switch event.Event {
	case EventJoinConversation:
		g.join(ctx, c, event.Data)
	case EventLeaveConversation:
		if id, ok := conversationIDFrom(event.Data); ok {
			g.manager.LeaveRoom(id, c.ID)
		}
	case EventSendMessage:
		g.sendMessage(ctx, c, event.Data)
	case EventTypingStart:
		g.typing(c, event.Data, EventUserTyping)
	case EventTypingStop:
		g.typing(c, event.Data, EventUserStoppedTyping)
	default:
		g.log.WithField("event", event.Event).Debug("Необработанный тип события")
	}
}

func (g *Gateway) join(ctx context.Context, c *Client, data json.RawMessage) {
	conversationID, ok := conversationIDFrom(data)
	if !ok {
		g.emitError(c, apperr.KeyCannotJoin)
		return
	}

	if _, err := g.conversations.Authorize(ctx, c.UserID, conversationID); err != nil {
		g.log.WithError(err).WithFields(logrus.Fields{
			"user_id":         c.UserID,
			"conversation_id": conversationID,
		}).Debug("Отказ в подключении к диалогу")
		g.emitError(c, apperr.KeyCannotJoin)
		return
	}

	g.manager.JoinRoom(conversationID, c.ID)
	g.emit(c, EventJoinedConversation, joinedPayload{ConversationID: conversationID})
}

func (g *Gateway) sendMessage(ctx context.Context, c *Client, data json.RawMessage) {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.emitError(c, apperr.KeySendFailed)
		return
	}
	conversationID, err := uuid.Parse(payload.ConversationID)
	if err != nil {
		g.emitError(c, apperr.KeySendFailed)
		return
	}

	_, err = g.messages.SendMessage(ctx, c.UserID, conversationID, message.SendMessageInput{
		Type:     models.MessageType(payload.Type),
		Content:  payload.Content,
		ImageURL: payload.ImageURL,
	})
	if err != nil {
		entry := g.log.WithError(err).WithFields(logrus.Fields{
			"user_id":         c.UserID,
			"conversation_id": conversationID,
		})
		if apperr.Is(err, apperr.KindInternal) {
			entry.Error("Ошибка отправки сообщения через WebSocket")
		} else {
			entry.Debug("Сообщение отклонено")
		}
		g.emitError(c, apperr.KeySendFailed)
	}
}

// typing пересылает сигнал набора текста остальным участникам комнаты.
// Клиент, не подключившийся к диалогу, сигналы отправлять не может.
func (g *Gateway) typing(c *Client, data json.RawMessage, outbound EventType) {
	conversationID, ok := conversationIDFrom(data)
	if !ok || !g.manager.InRoom(conversationID, c.ID) {
		return
	}

	event, err := NewEvent(outbound, typingPayload{UserID: c.UserID, ConversationID: conversationID})
	if err != nil {
		return
	}
	g.manager.BroadcastToRoom(conversationID, event, c.ID)
}

func (g *Gateway) emit(c *Client, eventType EventType, data any) {
	event, err := NewEvent(eventType, data)
	if err != nil {
		g.log.WithError(err).WithField("event", eventType).Error("Ошибка сериализации события")
		return
	}
	g.manager.SendToClient(c, event)
}

func (g *Gateway) emitError(c *Client, key string) {
	g.emit(c, EventError, errorPayload{Message: g.translator.T(c.Lang, key)})
}

func conversationIDFrom(data json.RawMessage) (uuid.UUID, bool) {
	var ref conversationRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(ref.ConversationID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
