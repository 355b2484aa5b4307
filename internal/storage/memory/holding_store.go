package memory

import (
	"context"
	"sort"
	"sync"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

type holdingKey struct {
	accountID string
	assetID   string
}

// HoldingStore is an in-memory implementation of storage.HoldingStore.
type HoldingStore struct {
	mu   sync.RWMutex
	data map[holdingKey]*domain.Holding
}

// NewHoldingStore creates a new in-memory holding store.
func NewHoldingStore() *HoldingStore {
	return &HoldingStore{
		data: make(map[holdingKey]*domain.Holding),
	}
}

// Compile-time interface check.
var _ storage.HoldingStore = (*HoldingStore)(nil)

// Get retrieves a holding. Returns ErrNotFound if absent.
func (s *HoldingStore) Get(_ context.Context, accountID, assetID string) (*domain.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.data[holdingKey{accountID, assetID}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *h
	return &cp, nil
}

// GetByAccountID retrieves all holdings of an account, ordered by asset_id ASC.
func (s *HoldingStore) GetByAccountID(_ context.Context, accountID string) ([]*domain.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Holding
	for _, h := range s.data {
		if h.AccountID == accountID {
			cp := *h
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AssetID < result[j].AssetID
	})

	return result, nil
}

// Upsert atomically increments a holding's quantity, creating it if absent.
func (s *HoldingStore) Upsert(_ context.Context, accountID, assetID string, deltaQuantity, nowMs int64) error {
	if accountID == "" || assetID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(accountID, assetID, deltaQuantity, nowMs)
	return nil
}

// upsertLocked is the lock-free variant used by SettlementApplier.
func (s *HoldingStore) upsertLocked(accountID, assetID string, deltaQuantity, nowMs int64) {
	key := holdingKey{accountID, assetID}
	h, exists := s.data[key]
	if !exists {
		s.data[key] = &domain.Holding{
			AccountID:   accountID,
			AssetID:     assetID,
			Quantity:    deltaQuantity,
			UpdatedAtMs: nowMs,
		}
		return
	}
	h.Quantity += deltaQuantity
	h.UpdatedAtMs = nowMs
}
