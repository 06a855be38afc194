//go:build container
// +build container

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/DevPardx/raiz-backend-sub000/internal/models"
	"github.com/DevPardx/raiz-backend-sub000/internal/store/memory"
)

func TestPropertyCacheWithRedis(t *testing.T) {
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client, err := Connect(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	st := memory.New()
	property := models.Property{ID: uuid.New(), OwnerUserID: uuid.New(), Title: "Таунхаус", Price: 12000000, Status: "active"}
	st.AddProperty(property)
	lookup := &countingLookup{Store: st}

	log, _ := test.NewNullLogger()
	c := NewPropertyCache(client, lookup, time.Second, log)

	for i := 0; i < 3; i++ {
		got, err := c.GetPropertyByID(ctx, property.ID)
		require.NoError(t, err)
		assert.Equal(t, property.OwnerUserID, got.OwnerUserID)
		assert.Equal(t, int64(12000000), got.Price)
	}
	assert.Equal(t, 1, lookup.calls)

	ttl, err := client.TTL(ctx, propertyKeyPrefix+property.ID.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, int64(ttl), int64(0))

	// Запись истекает по TTL, следующий запрос идёт в источник
	time.Sleep(1500 * time.Millisecond)
	_, err = c.GetPropertyByID(ctx, property.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, lookup.calls)
}
