package cart

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGormSlotStorageUpserts(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:cart_slots_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CartSlot{}))

	storage := NewGormSlotStorage(conn)
	ctx := context.Background()

	_, ok, err := storage.Load(ctx, "sess:cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Save(ctx, "sess:cart", "[]"))
	require.NoError(t, storage.Save(ctx, "sess:cart", `[{"product_id":"P1"}]`))

	value, ok, err := storage.Load(ctx, "sess:cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"product_id":"P1"}]`, value)

	var count int64
	require.NoError(t, conn.Model(&models.CartSlot{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGormSlotStorageDeletesStaleSlots(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:cart_slots_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CartSlot{}))

	storage := NewGormSlotStorage(conn)
	ctx := context.Background()
	require.NoError(t, storage.Save(ctx, "old:cart", "[]"))
	require.NoError(t, storage.Save(ctx, "fresh:cart", "[]"))

	stale := time.Now().UTC().Add(-72 * time.Hour)
	require.NoError(t, conn.Model(&models.CartSlot{}).Where("slot_key = ?", "old:cart").UpdateColumn("updated_at", stale).Error)

	deleted, err := storage.DeleteOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, ok, err := storage.Load(ctx, "old:cart")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = storage.Load(ctx, "fresh:cart")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisSlotStorageNamespacesKeys(t *testing.T) {
	fake := &fakeSlotStore{data: map[string]string{}}
	storage, err := NewRedisSlotStorage(fake, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := storage.Load(ctx, "sess:cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Save(ctx, "sess:cart", "[]"))
	assert.Equal(t, "[]", fake.data["sf:cart:sess:cart"])
	assert.Equal(t, time.Hour, fake.lastTTL)

	value, ok, err := storage.Load(ctx, "sess:cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)

	_, err = NewRedisSlotStorage(nil, 0)
	assert.Error(t, err)
}

type fakeSlotStore struct {
	data    map[string]string
	lastTTL time.Duration
}

func (f *fakeSlotStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (f *fakeSlotStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.lastTTL = ttl
	return nil
}

func (f *fakeSlotStore) CartSlotKey(slotKey string) string {
	return "sf:cart:" + slotKey
}
