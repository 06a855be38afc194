package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevPardx/raiz-backend-sub000/internal/i18n"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/conversation"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/message"
	"github.com/DevPardx/raiz-backend-sub000/internal/store/memory"
)

type fixture struct {
	manager       *Manager
	gateway       *Gateway
	conversations *conversation.ConversationService
	messages      *message.MessageService
	conv          *models.Conversation
	buyer         uuid.UUID
	seller        uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	st := memory.New()

	f := &fixture{buyer: uuid.New(), seller: uuid.New()}
	property := uuid.New()
	st.AddUser(models.UserSummary{ID: f.buyer, FirstName: "Борис"})
	st.AddUser(models.UserSummary{ID: f.seller, FirstName: "Светлана"})
	st.AddProperty(models.Property{ID: property, OwnerUserID: f.seller, Title: "Студия", Status: "active"})

	f.manager = NewManager(log)
	f.conversations = conversation.NewConversationService(st, st, st, st, f.manager, log)
	f.messages = message.NewMessageService(f.conversations, st, st, nil, f.manager, log)
	f.gateway = NewGateway(f.manager, f.conversations, f.messages, i18n.New("en"), log)

	conv, err := f.conversations.CreateConversation(context.Background(), f.buyer, property, f.seller)
	require.NoError(t, err)
	f.conv = conv

	t.Cleanup(f.manager.Shutdown)
	return f
}

// connect подключает клиента без сетевого соединения и пропускает событие connected
func (f *fixture) connect(t *testing.T, userID uuid.UUID) *Client {
	t.Helper()
	c := NewClient(userID, "en", nil)
	f.gateway.Connect(c)
	event := nextEvent(t, c)
	require.Equal(t, EventConnected, event.Event)
	return c
}

func (f *fixture) join(t *testing.T, c *Client) {
	t.Helper()
	f.dispatch(t, c, EventJoinConversation, map[string]string{"conversation_id": f.conv.ID.String()})
	event := nextEvent(t, c)
	require.Equal(t, EventJoinedConversation, event.Event)
}

func (f *fixture) dispatch(t *testing.T, c *Client, eventType EventType, data any) {
	t.Helper()
	event, err := NewEvent(eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	f.gateway.HandleEvent(c, raw)
}

func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected event: %s", raw)
	default:
	}
}

func decodeData[T any](t *testing.T, event Event) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(event.Data, &out))
	return out
}

func TestConnectSendsIdentity(t *testing.T) {
	f := newFixture(t)
	c := NewClient(f.buyer, "en", nil)
	f.gateway.Connect(c)

	event := nextEvent(t, c)
	assert.Equal(t, EventConnected, event.Event)
	assert.Equal(t, f.buyer, decodeData[connectedPayload](t, event).UserID)
}

func TestJoinConversation(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)

	f.join(t, buyer)
	assert.True(t, f.manager.InRoom(f.conv.ID, buyer.ID))
}

func TestJoinConversationRejected(t *testing.T) {
	f := newFixture(t)
	stranger := f.connect(t, uuid.New())

	f.dispatch(t, stranger, EventJoinConversation, map[string]string{"conversation_id": f.conv.ID.String()})
	event := nextEvent(t, stranger)
	assert.Equal(t, EventError, event.Event)
	assert.Equal(t, "Cannot join conversation", decodeData[errorPayload](t, event).Message)
	assert.False(t, f.manager.InRoom(f.conv.ID, stranger.ID))

	f.dispatch(t, stranger, EventJoinConversation, map[string]string{"conversation_id": uuid.NewString()})
	event = nextEvent(t, stranger)
	assert.Equal(t, "Cannot join conversation", decodeData[errorPayload](t, event).Message)

	f.dispatch(t, stranger, EventJoinConversation, map[string]string{"conversation_id": "garbage"})
	event = nextEvent(t, stranger)
	assert.Equal(t, EventError, event.Event)
}

func TestErrorsDefaultToEnglishWithoutAcceptLanguage(t *testing.T) {
	f := newFixture(t)
	log, _ := test.NewNullLogger()
	gateway := NewGateway(f.manager, f.conversations, f.messages, i18n.New(""), log)

	stranger := NewClient(uuid.New(), "", nil)
	gateway.Connect(stranger)
	require.Equal(t, EventConnected, nextEvent(t, stranger).Event)

	event, err := NewEvent(EventJoinConversation, map[string]string{"conversation_id": f.conv.ID.String()})
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	gateway.HandleEvent(stranger, raw)

	reply := nextEvent(t, stranger)
	require.Equal(t, EventError, reply.Event)
	assert.Equal(t, "Cannot join conversation", decodeData[errorPayload](t, reply).Message)

	event, err = NewEvent(EventSendMessage, map[string]string{"conversation_id": f.conv.ID.String(), "content": "Hi"})
	require.NoError(t, err)
	raw, err = json.Marshal(event)
	require.NoError(t, err)
	gateway.HandleEvent(stranger, raw)

	reply = nextEvent(t, stranger)
	require.Equal(t, EventError, reply.Event)
	assert.Equal(t, "Failed to send message", decodeData[errorPayload](t, reply).Message)
}

func TestSendMessageBroadcastsToRoom(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)
	seller := f.connect(t, f.seller)
	f.join(t, buyer)
	f.join(t, seller)

	f.dispatch(t, buyer, EventSendMessage, map[string]string{
		"conversation_id": f.conv.ID.String(),
		"content":         "Hi",
		"type":            "TEXT",
	})

	// Отправитель тоже получает своё сообщение
	event := nextEvent(t, buyer)
	require.Equal(t, EventNewMessage, event.Event)
	msg := decodeData[models.Message](t, event)
	assert.Equal(t, "Hi", msg.Content)
	assert.Equal(t, f.buyer, msg.SenderID)
	assertNoEvent(t, buyer)

	event = nextEvent(t, seller)
	require.Equal(t, EventNewMessage, event.Event)
	assert.Equal(t, msg.ID, decodeData[models.Message](t, event).ID)

	event = nextEvent(t, seller)
	require.Equal(t, EventUnreadCount, event.Event)
	unread := decodeData[unreadCountPayload](t, event)
	assert.Equal(t, f.conv.ID, unread.ConversationID)
	assert.Equal(t, 1, unread.Count)
}

func TestSendMessageReachesRecipientOutsideRoom(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)
	seller := f.connect(t, f.seller)
	f.join(t, buyer)

	f.dispatch(t, buyer, EventSendMessage, map[string]string{
		"conversation_id": f.conv.ID.String(),
		"content":         "Есть парковка?",
	})

	// Продавец не в комнате: приходит только счётчик
	event := nextEvent(t, seller)
	assert.Equal(t, EventUnreadCount, event.Event)
	assertNoEvent(t, seller)
}

func TestSendMessageFailureGoesToCallerOnly(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)
	seller := f.connect(t, f.seller)
	stranger := f.connect(t, uuid.New())
	f.join(t, buyer)
	f.join(t, seller)

	f.dispatch(t, stranger, EventSendMessage, map[string]string{
		"conversation_id": f.conv.ID.String(),
		"content":         "spam",
	})
	event := nextEvent(t, stranger)
	assert.Equal(t, EventError, event.Event)
	assert.Equal(t, "Failed to send message", decodeData[errorPayload](t, event).Message)

	f.dispatch(t, buyer, EventSendMessage, map[string]string{
		"conversation_id": f.conv.ID.String(),
		"content":         "",
	})
	event = nextEvent(t, buyer)
	assert.Equal(t, "Failed to send message", decodeData[errorPayload](t, event).Message)

	assertNoEvent(t, seller)
	assertNoEvent(t, buyer)
}

func TestTypingGoesToOtherMembers(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)
	seller := f.connect(t, f.seller)
	f.join(t, buyer)
	f.join(t, seller)

	ref := map[string]string{"conversation_id": f.conv.ID.String()}

	f.dispatch(t, buyer, EventTypingStart, ref)
	event := nextEvent(t, seller)
	assert.Equal(t, EventUserTyping, event.Event)
	payload := decodeData[typingPayload](t, event)
	assert.Equal(t, f.buyer, payload.UserID)
	assert.Equal(t, f.conv.ID, payload.ConversationID)
	assertNoEvent(t, buyer)

	f.dispatch(t, buyer, EventTypingStop, ref)
	event = nextEvent(t, seller)
	assert.Equal(t, EventUserStoppedTyping, event.Event)
	assertNoEvent(t, buyer)
}

func TestTypingIgnoredBeforeJoin(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)
	seller := f.connect(t, f.seller)
	f.join(t, seller)

	f.dispatch(t, buyer, EventTypingStart, map[string]string{"conversation_id": f.conv.ID.String()})
	assertNoEvent(t, seller)
	assertNoEvent(t, buyer)
}

func TestLeaveConversation(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)
	seller := f.connect(t, f.seller)
	f.join(t, buyer)
	f.join(t, seller)

	f.dispatch(t, seller, EventLeaveConversation, map[string]string{"conversation_id": f.conv.ID.String()})
	assert.False(t, f.manager.InRoom(f.conv.ID, seller.ID))

	f.dispatch(t, buyer, EventTypingStart, map[string]string{"conversation_id": f.conv.ID.String()})
	assertNoEvent(t, seller)
}

func TestMessagesReadNotifiesRoom(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)
	f.join(t, buyer)

	_, err := f.messages.SendMessage(context.Background(), f.buyer, f.conv.ID, message.SendMessageInput{Content: "Hi"})
	require.NoError(t, err)
	require.Equal(t, EventNewMessage, nextEvent(t, buyer).Event)

	marked, err := f.conversations.MarkMessagesAsRead(context.Background(), f.seller, f.conv.ID)
	require.NoError(t, err)
	require.Equal(t, 1, marked)

	event := nextEvent(t, buyer)
	require.Equal(t, EventMessagesRead, event.Event)
	payload := decodeData[messagesReadPayload](t, event)
	assert.Equal(t, f.seller, payload.UserID)
	assert.Equal(t, 1, payload.Count)
}

func TestMalformedFrameIsIgnored(t *testing.T) {
	f := newFixture(t)
	buyer := f.connect(t, f.buyer)

	f.gateway.HandleEvent(buyer, []byte("{not json"))
	f.gateway.HandleEvent(buyer, []byte(`{"event":"dance"}`))
	assertNoEvent(t, buyer)
}
