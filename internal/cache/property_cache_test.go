package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/store/memory"
)

type countingLookup struct {
	*memory.Store
	calls int
}

func (l *countingLookup) GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	l.calls++
	return l.Store.GetPropertyByID(ctx, id)
}

// unreachableClient указывает на порт, где Redis заведомо не слушает
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPropertyCacheFallsBackWhenRedisIsDown(t *testing.T) {
	st := memory.New()
	property := models.Property{ID: uuid.New(), OwnerUserID: uuid.New(), Title: "Лофт", Status: "active"}
	st.AddProperty(property)
	lookup := &countingLookup{Store: st}

	log, _ := test.NewNullLogger()
	c := NewPropertyCache(unreachableClient(t), lookup, time.Minute, log)

	got, err := c.GetPropertyByID(context.Background(), property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Лофт", got.Title)
	assert.Equal(t, 1, lookup.calls)

	_, err = c.GetPropertyByID(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestConnectFailsOnUnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Connect(ctx, "redis://127.0.0.1:1/0?dial_timeout=50ms&max_retries=-1")
	assert.Error(t, err)

	_, err = Connect(ctx, "not a url")
	assert.Error(t, err)
}
