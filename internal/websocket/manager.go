package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DevPardx/raiz-backend-sub000/internal/models"
)

// Manager представляет центральный менеджер для всех WebSocket соединений и комнат диалогов
type Manager struct {
	mu          sync.RWMutex
	clients     map[uuid.UUID]*Client
	userClients map[uuid.UUID]map[uuid.UUID]bool // userID -> map[clientID]bool
	rooms       map[uuid.UUID]map[uuid.UUID]bool // conversationID -> map[clientID]bool
	clientRooms map[uuid.UUID]map[uuid.UUID]bool // clientID -> map[conversationID]bool
	log         logrus.FieldLogger
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewManager создает новый экземпляр Manager
func NewManager(log logrus.FieldLogger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]bool),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]bool),
		clientRooms: make(map[uuid.UUID]map[uuid.UUID]bool),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Context отменяется при остановке менеджера
func (m *Manager) Context() context.Context {
	return m.ctx
}

// AddClient регистрирует нового клиента
func (m *Manager) AddClient(client *Client) {
	m.mu.Lock()
	m.clients[client.ID] = client
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"client_id": client.ID, "user_id": client.UserID}).Debug("WebSocket клиент подключён")
}

// RemoveClient удаляет клиента вместе со всеми его подписками
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.mu.Lock()
	client, exists := m.clients[clientID]
	if !exists {
		m.mu.Unlock()
		return
	}

	if clients, ok := m.userClients[client.UserID]; ok {
		delete(clients, clientID)
		// Если это был последний клиент пользователя, удаляем запись пользователя
		if len(clients) == 0 {
			delete(m.userClients, client.UserID)
		}
	}
	for conversationID := range m.clientRooms[clientID] {
		m.leaveLocked(conversationID, clientID)
	}
	delete(m.clientRooms, clientID)
	delete(m.clients, clientID)
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"client_id": clientID, "user_id": client.UserID}).Debug("WebSocket клиент отключён")
}

// JoinRoom подписывает клиента на события диалога
func (m *Manager) JoinRoom(conversationID, clientID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[clientID]; !ok {
		return
	}
	if _, ok := m.rooms[conversationID]; !ok {
		m.rooms[conversationID] = make(map[uuid.UUID]bool)
	}
	m.rooms[conversationID][clientID] = true
	if _, ok := m.clientRooms[clientID]; !ok {
		m.clientRooms[clientID] = make(map[uuid.UUID]bool)
	}
	m.clientRooms[clientID][conversationID] = true
}

// LeaveRoom отписывает клиента от диалога
func (m *Manager) LeaveRoom(conversationID, clientID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.leaveLocked(conversationID, clientID)
	if rooms, ok := m.clientRooms[clientID]; ok {
		delete(rooms, conversationID)
	}
}

func (m *Manager) leaveLocked(conversationID, clientID uuid.UUID) {
	if members, ok := m.rooms[conversationID]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(m.rooms, conversationID)
		}
	}
}

// InRoom проверяет, подписан ли клиент на диалог
func (m *Manager) InRoom(conversationID, clientID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[conversationID][clientID]
}

// BroadcastToRoom отправляет событие всем подписчикам диалога, кроме exclude
func (m *Manager) BroadcastToRoom(conversationID uuid.UUID, event Event, exclude uuid.UUID) {
	m.mu.RLock()
	targets := make([]*Client, 0, len(m.rooms[conversationID]))
	for clientID := range m.rooms[conversationID] {
		if clientID == exclude {
			continue
		}
		if client, ok := m.clients[clientID]; ok {
			targets = append(targets, client)
		}
	}
	m.mu.RUnlock()

	m.deliver(targets, event)
}

// SendToUser отправляет событие всем соединениям конкретного пользователя
func (m *Manager) SendToUser(userID uuid.UUID, event Event) {
	m.mu.RLock()
	targets := make([]*Client, 0, len(m.userClients[userID]))
	for clientID := range m.userClients[userID] {
		if client, ok := m.clients[clientID]; ok {
			targets = append(targets, client)
		}
	}
	m.mu.RUnlock()

	// Пользователь не онлайн, но сообщение все равно сохранено в БД
	m.deliver(targets, event)
}

// SendToClient отправляет событие одному соединению
func (m *Manager) SendToClient(client *Client, event Event) {
	m.deliver([]*Client{client}, event)
}

func (m *Manager) deliver(targets []*Client, event Event) {
	if len(targets) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		m.log.WithError(err).WithField("event", event.Event).Error("Ошибка сериализации события")
		return
	}

	for _, client := range targets {
		if !client.enqueue(payload) {
			// Канал заполнен, клиент слишком медленный - закрываем соединение
			m.log.WithField("client_id", client.ID).Warn("Буфер отправки переполнен, соединение закрыто")
			m.RemoveClient(client.ID)
			client.close()
		}
	}
}

// NotifyNewMessage рассылает новое сообщение комнате диалога и обновляет счётчик получателя
func (m *Manager) NotifyNewMessage(conv *models.Conversation, msg *models.Message) {
	event, err := NewEvent(EventNewMessage, msg)
	if err != nil {
		m.log.WithError(err).Error("Ошибка сериализации сообщения")
		return
	}
	m.BroadcastToRoom(conv.ID, event, uuid.Nil)

	recipient := conv.OtherParticipant(msg.SenderID)
	m.sendUnreadCount(recipient, conv.ID, models.UnreadCountFor(conv, recipient))
}

// NotifyMessagesRead сообщает комнате о прочтении и обнуляет счётчик на остальных устройствах читателя
func (m *Manager) NotifyMessagesRead(conv *models.Conversation, readerID uuid.UUID, count int) {
	event, err := NewEvent(EventMessagesRead, messagesReadPayload{
		ConversationID: conv.ID,
		UserID:         readerID,
		Count:          count,
	})
	if err != nil {
		return
	}
	m.BroadcastToRoom(conv.ID, event, uuid.Nil)
	m.sendUnreadCount(readerID, conv.ID, 0)
}

func (m *Manager) sendUnreadCount(userID, conversationID uuid.UUID, count int) {
	event, err := NewEvent(EventUnreadCount, unreadCountPayload{ConversationID: conversationID, Count: count})
	if err != nil {
		return
	}
	m.SendToUser(userID, event)
}

// Shutdown корректно завершает работу менеджера WebSocket
func (m *Manager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[uuid.UUID]*Client)
	m.userClients = make(map[uuid.UUID]map[uuid.UUID]bool)
	m.rooms = make(map[uuid.UUID]map[uuid.UUID]bool)
	m.clientRooms = make(map[uuid.UUID]map[uuid.UUID]bool)
	m.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
	m.log.WithField("clients", len(clients)).Info("WebSocket менеджер остановлен")
}
