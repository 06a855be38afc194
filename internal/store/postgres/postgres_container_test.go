//go:build container
// +build container

package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/db"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/conversation"
	"github.com/DevPardx/raiz-backend-sub000/internal/services/message"
	"github.com/DevPardx/raiz-backend-sub000/internal/store/postgres"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "raiz",
				"POSTGRES_PASSWORD": "raiz",
				"POSTGRES_DB":       "raiz",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://raiz:raiz@%s:%s/raiz?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.InitializeSchema(ctx, pool))
	return pool
}

type pgFixture struct {
	pool          *pgxpool.Pool
	conversations *conversation.ConversationService
	messages      *message.MessageService
	buyer         uuid.UUID
	seller        uuid.UUID
	property      uuid.UUID
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	ctx := context.Background()
	pool := startPostgres(t)
	log, _ := test.NewNullLogger()

	f := &pgFixture{pool: pool}
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO users (first_name) VALUES ('Борис') RETURNING id`).Scan(&f.buyer))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO users (first_name) VALUES ('Светлана') RETURNING id`).Scan(&f.seller))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO properties (user_id, title, city, price) VALUES ($1, 'Дом у озера', 'Казань', 9500000) RETURNING id`,
		f.seller).Scan(&f.property))

	conversations := postgres.NewConversationStore(pool, log)
	messages := postgres.NewMessageStore(pool)
	directory := postgres.NewDirectoryStore(pool)

	f.conversations = conversation.NewConversationService(conversations, messages, directory, directory, nil, log)
	f.messages = message.NewMessageService(f.conversations, messages, directory, nil, nil, log)
	return f
}

func TestPostgresConversationLifecycle(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.CreateConversation(ctx, f.buyer, f.property, f.seller)
	require.NoError(t, err)
	require.NotNil(t, conv.Property)
	assert.Equal(t, "Казань", conv.Property.City)

	_, err = f.conversations.CreateConversation(ctx, f.buyer, f.property, f.seller)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.messages.SendMessage(ctx, f.buyer, conv.ID, message.SendMessageInput{Content: "Hi"})
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, f.seller, conv.ID, message.SendMessageInput{Content: "Добрый день"})
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, f.buyer, conv.ID, message.SendMessageInput{
		Type:     models.MessageTypeImage,
		ImageURL: "https://example.com/a.jpg",
	})
	require.NoError(t, err)

	sellerView, err := f.conversations.GetConversationByID(ctx, f.seller, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sellerView.UnreadCount)
	assert.Equal(t, models.ImagePreview, *sellerView.LastMessage)

	history, err := f.messages.GetConversationMessages(ctx, f.seller, conv.ID, 1, 50)
	require.NoError(t, err)
	require.Len(t, history.Data, 3)
	assert.Equal(t, "Hi", history.Data[0].Content)
	assert.Equal(t, models.MessageTypeImage, history.Data[2].Type)

	marked, err := f.conversations.MarkMessagesAsRead(ctx, f.seller, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	buyerView, err := f.conversations.GetConversationByID(ctx, f.buyer, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, buyerView.UnreadCount)

	list, err := f.conversations.GetUserConversations(ctx, f.seller, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, 0, list.Data[0].UnreadCount)
}

func TestPostgresConcurrentSendsAndReads(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.CreateConversation(ctx, f.buyer, f.property, f.seller)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.messages.SendMessage(ctx, f.buyer, conv.ID, message.SendMessageInput{Content: fmt.Sprintf("msg %d", i)})
			assert.NoError(t, err)
		}(i)
		if i%4 == 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.conversations.MarkMessagesAsRead(ctx, f.seller, conv.ID)
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	// Счётчик совпадает с числом непрочитанных сообщений без сверки
	var unread int
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = $1 AND NOT is_read`, conv.ID).Scan(&unread))
	sellerView, err := f.conversations.GetConversationByID(ctx, f.seller, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, unread, sellerView.UnreadCount)

	fixed, err := f.conversations.ReconcileUnreadCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, fixed)
}

func TestPostgresReconcileFixesDrift(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	conv, err := f.conversations.CreateConversation(ctx, f.buyer, f.property, f.seller)
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, f.buyer, conv.ID, message.SendMessageInput{Content: "Hi"})
	require.NoError(t, err)

	_, err = f.pool.Exec(ctx, `UPDATE conversations SET seller_unread_count = 5, buyer_unread_count = 2 WHERE id = $1`, conv.ID)
	require.NoError(t, err)

	fixed, err := f.conversations.ReconcileUnreadCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	sellerView, err := f.conversations.GetConversationByID(ctx, f.seller, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sellerView.UnreadCount)
	buyerView, err := f.conversations.GetConversationByID(ctx, f.buyer, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, buyerView.UnreadCount)
}

func TestPostgresTelegramUpsert(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	directory := postgres.NewDirectoryStore(pool)

	first, err := directory.UpsertTelegramUser(ctx, models.TelegramUser{TelegramID: 42, FirstName: "Иван", Username: "ivan"})
	require.NoError(t, err)
	second, err := directory.UpsertTelegramUser(ctx, models.TelegramUser{TelegramID: 42, FirstName: "Иван", Username: "ivan_new"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	user, err := directory.GetUserSummary(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Иван", user.FirstName)

	missing, err := directory.GetUserSummary(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = directory.GetPropertyByID(ctx, uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
