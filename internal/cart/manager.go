package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type managedStore struct {
	store      *Store
	lastAccess time.Time
}

// Manager hands out one Store per client session, opening it from storage on
// first access and reusing it afterwards.
type Manager struct {
	mu      sync.Mutex
	stores  map[string]*managedStore
	storage SlotStorage
	cfg     config.CartConfig
	logg    *logger.Logger
	metrics mutationRecorder
	now     func() time.Time
}

// NewManager builds a session cart manager.
func NewManager(storage SlotStorage, cfg config.CartConfig, logg *logger.Logger, metrics mutationRecorder) (*Manager, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart slot storage required")
	}
	if strings.TrimSpace(cfg.StorageKey) == "" {
		return nil, fmt.Errorf("cart storage key required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Manager{
		stores:  map[string]*managedStore{},
		storage: storage,
		cfg:     cfg,
		logg:    logg,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// Get returns the cart of the given session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.stores[sessionID]; ok {
		entry.lastAccess = m.now()
		return entry.store, nil
	}

	keys := SlotKeys{Primary: SlotKey(sessionID, m.cfg.StorageKey)}
	if m.cfg.LegacyKey != "" {
		keys.Legacy = SlotKey(sessionID, m.cfg.LegacyKey)
	}
	store, err := Open(m.logg.WithSessionID(ctx, sessionID), m.storage, keys, m.logg, m.metrics)
	if err != nil {
		return nil, err
	}
	m.stores[sessionID] = &managedStore{store: store, lastAccess: m.now()}
	return store, nil
}

// Sweep forgets stores idle for longer than maxIdle. Their contents stay in
// storage and are reopened on the next access.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	evicted := 0
	for id, entry := range m.stores {
		if entry.lastAccess.Before(cutoff) {
			delete(m.stores, id)
			evicted++
		}
	}
	return evicted
}
