// Package memory реализует хранилища в памяти процесса.
// Каждая составная операция выполняется под одним мьютексом, что даёт ту же
// атомарность, что и транзакция в PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
)

// Store хранит диалоги, сообщения, объекты и пользователей в памяти
type Store struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*models.Conversation
	messages      map[uuid.UUID][]*models.Message // conversationID -> сообщения в порядке создания
	properties    map[uuid.UUID]*models.Property
	users         map[uuid.UUID]*models.UserSummary
	telegramUsers map[int64]uuid.UUID
	now           func() time.Time
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		conversations: make(map[uuid.UUID]*models.Conversation),
		messages:      make(map[uuid.UUID][]*models.Message),
		properties:    make(map[uuid.UUID]*models.Property),
		users:         make(map[uuid.UUID]*models.UserSummary),
		telegramUsers: make(map[int64]uuid.UUID),
		now:           time.Now,
	}
}

// AddProperty добавляет объект недвижимости
func (s *Store) AddProperty(p models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[p.ID] = &p
}

// AddUser добавляет пользователя
func (s *Store) AddUser(u models.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// CreateConversation сохраняет новый диалог
func (s *Store) CreateConversation(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.conversations {
		if existing.PropertyID == conv.PropertyID && existing.BuyerID == conv.BuyerID && existing.SellerID == conv.SellerID {
			return apperr.Conflict(apperr.KeyConversationExists)
		}
	}

	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	now := s.now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	s.conversations[conv.ID] = cloneConversation(conv)
	return nil
}

// GetConversationByID возвращает диалог по ID
func (s *Store) GetConversationByID(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, apperr.NotFound(apperr.KeyConversationNotFound)
	}
	return cloneConversation(conv), nil
}

// FindConversation ищет диалог по тройке (объект, покупатель, продавец)
func (s *Store) FindConversation(_ context.Context, propertyID, buyerID, sellerID uuid.UUID) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conv := range s.conversations {
		if conv.PropertyID == propertyID && conv.BuyerID == buyerID && conv.SellerID == sellerID {
			return cloneConversation(conv), nil
		}
	}
	return nil, nil
}

// ListUserConversations возвращает страницу диалогов пользователя
func (s *Store) ListUserConversations(_ context.Context, userID uuid.UUID, limit, offset int) ([]*models.Conversation, int, error) {
	s.mu.RLock()
	var all []*models.Conversation
	for _, conv := range s.conversations {
		if conv.BuyerID == userID || conv.SellerID == userID {
			all = append(all, cloneConversation(conv))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		switch {
		case a.LastMessageAt != nil && b.LastMessageAt == nil:
			return true
		case a.LastMessageAt == nil && b.LastMessageAt != nil:
			return false
		case a.LastMessageAt != nil && !a.LastMessageAt.Equal(*b.LastMessageAt):
			return a.LastMessageAt.After(*b.LastMessageAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return paginate(all, limit, offset), len(all), nil
}

// CreateMessage сохраняет сообщение и обновляет диалог под одной блокировкой
func (s *Store) CreateMessage(_ context.Context, msg *models.Message, preview string, recipient models.ParticipantRole) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return nil, apperr.NotFound(apperr.KeyConversationNotFound)
	}

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.messages[conv.ID] = append(s.messages[conv.ID], cloneMessage(msg))

	at := msg.CreatedAt
	conv.LastMessage = &preview
	conv.LastMessageAt = &at
	conv.UpdatedAt = at
	switch recipient {
	case models.RoleBuyer:
		conv.BuyerUnreadCount++
	case models.RoleSeller:
		conv.SellerUnreadCount++
	}

	return cloneConversation(conv), nil
}

// ListMessages возвращает сообщения диалога от новых к старым
func (s *Store) ListMessages(_ context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[conversationID]
	newestFirst := make([]*models.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, cloneMessage(stored[i]))
	}
	return paginate(newestFirst, limit, offset), len(stored), nil
}

// ListUnreadMessageIDs возвращает непрочитанные сообщения собеседника
func (s *Store) ListUnreadMessageIDs(_ context.Context, conversationID, readerID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uuid.UUID
	for _, msg := range s.messages[conversationID] {
		if !msg.IsRead && msg.SenderID != readerID {
			ids = append(ids, msg.ID)
		}
	}
	return ids, nil
}

// MarkConversationRead отмечает сообщения собеседника прочитанными и обнуляет счётчик читателя
func (s *Store) MarkConversationRead(_ context.Context, conversationID, readerID uuid.UUID, reader models.ParticipantRole, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return 0, apperr.NotFound(apperr.KeyConversationNotFound)
	}

	marked := 0
	for _, msg := range s.messages[conversationID] {
		if !msg.IsRead && msg.SenderID != readerID {
			msg.MarkRead(at)
			marked++
		}
	}
	if marked == 0 {
		return 0, nil
	}

	if reader == models.RoleBuyer {
		conv.BuyerUnreadCount = 0
	} else {
		conv.SellerUnreadCount = 0
	}
	conv.UpdatedAt = at
	return marked, nil
}

// ReconcileUnreadCounts пересчитывает счётчики по сообщениям
func (s *Store) ReconcileUnreadCounts(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fixed := 0
	for id, conv := range s.conversations {
		buyerUnread, sellerUnread := 0, 0
		for _, msg := range s.messages[id] {
			if msg.IsRead {
				continue
			}
			switch msg.SenderID {
			case conv.SellerID:
				buyerUnread++
			case conv.BuyerID:
				sellerUnread++
			}
		}
		if conv.BuyerUnreadCount != buyerUnread || conv.SellerUnreadCount != sellerUnread {
			conv.BuyerUnreadCount = buyerUnread
			conv.SellerUnreadCount = sellerUnread
			fixed++
		}
	}
	return fixed, nil
}

// SetUnreadCounts перезаписывает счётчики диалога. Используется для имитации рассинхронизации.
func (s *Store) SetUnreadCounts(conversationID uuid.UUID, buyer, seller int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.conversations[conversationID]; ok {
		conv.BuyerUnreadCount = buyer
		conv.SellerUnreadCount = seller
	}
}

// GetPropertyByID возвращает объект недвижимости
func (s *Store) GetPropertyByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[id]
	if !ok {
		return nil, apperr.NotFound(apperr.KeyPropertyNotFound)
	}
	cp := *p
	return &cp, nil
}

// GetUserSummary возвращает краткие данные пользователя
func (s *Store) GetUserSummary(_ context.Context, id uuid.UUID) (*models.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// UpsertTelegramUser создаёт пользователя для Telegram ID или возвращает существующего
func (s *Store) UpsertTelegramUser(_ context.Context, tg models.TelegramUser) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.telegramUsers[tg.TelegramID]
	if !ok {
		id = uuid.New()
		s.telegramUsers[tg.TelegramID] = id
	}
	s.users[id] = &models.UserSummary{
		ID:        id,
		Username:  tg.Username,
		FirstName: tg.FirstName,
		LastName:  tg.LastName,
		AvatarURL: tg.PhotoURL,
	}
	return id, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	cp := *c
	if c.LastMessage != nil {
		v := *c.LastMessage
		cp.LastMessage = &v
	}
	if c.LastMessageAt != nil {
		v := *c.LastMessageAt
		cp.LastMessageAt = &v
	}
	return &cp
}

func cloneMessage(m *models.Message) *models.Message {
	cp := *m
	if m.ImageURL != nil {
		v := *m.ImageURL
		cp.ImageURL = &v
	}
	if m.ReadAt != nil {
		v := *m.ReadAt
		cp.ReadAt = &v
	}
	return &cp
}
