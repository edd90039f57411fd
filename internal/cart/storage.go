package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SlotStorage is a string-keyed durable slot holding serialized cart contents.
type SlotStorage interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
}

// SlotKey builds the logical slot key for a client session.
func SlotKey(sessionID, slot string) string {
	return sessionID + ":" + slot
}

// RedisSlotStorage keeps slots in redis under the cart namespace.
type RedisSlotStorage struct {
	client redis.SlotStore
	ttl    time.Duration
}

// NewRedisSlotStorage builds slot storage over redis. A zero ttl keeps slots forever.
func NewRedisSlotStorage(client redis.SlotStore, ttl time.Duration) (*RedisSlotStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisSlotStorage{client: client, ttl: ttl}, nil
}

func (s *RedisSlotStorage) Load(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.client.CartSlotKey(key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisSlotStorage) Save(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.client.CartSlotKey(key), value, s.ttl)
}

// GormSlotStorage keeps slots in the cart_slots table.
type GormSlotStorage struct {
	db *gorm.DB
}

// NewGormSlotStorage builds slot storage over the shared database.
func NewGormSlotStorage(db *gorm.DB) *GormSlotStorage {
	return &GormSlotStorage{db: db}
}

func (s *GormSlotStorage) Load(ctx context.Context, key string) (string, bool, error) {
	var slot models.CartSlot
	err := s.db.WithContext(ctx).Where("slot_key = ?", key).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return slot.Value, true, nil
}

func (s *GormSlotStorage) Save(ctx context.Context, key, value string) error {
	slot := models.CartSlot{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&slot).
		Error
}

// DeleteOlderThan removes slots last written before cutoff.
func (s *GormSlotStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&models.CartSlot{})
	return res.RowsAffected, res.Error
}

// MemorySlotStorage keeps slots in process memory.
type MemorySlotStorage struct {
	mu    sync.RWMutex
	slots map[string]string
}

func NewMemorySlotStorage() *MemorySlotStorage {
	return &MemorySlotStorage{slots: map[string]string{}}
}

func (s *MemorySlotStorage) Load(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[key]
	return value, ok, nil
}

func (s *MemorySlotStorage) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}
