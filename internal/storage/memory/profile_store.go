package memory

import (
	"context"
	"sort"
	"sync"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// BotProfileStore is an in-memory implementation of storage.BotProfileStore.
type BotProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*domain.BotProfile // keyed by profile_id
	runtimes map[string]*domain.BotRuntime
}

// NewBotProfileStore creates a new in-memory bot profile store.
func NewBotProfileStore() *BotProfileStore {
	return &BotProfileStore{
		profiles: make(map[string]*domain.BotProfile),
		runtimes: make(map[string]*domain.BotRuntime),
	}
}

// Compile-time interface check.
var _ storage.BotProfileStore = (*BotProfileStore)(nil)

// Insert adds a new profile with zeroed runtime state.
func (s *BotProfileStore) Insert(_ context.Context, p *domain.BotProfile) error {
	if p == nil || p.ProfileID == "" || p.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[p.ProfileID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *p
	s.profiles[p.ProfileID] = &cp
	s.runtimes[p.ProfileID] = &domain.BotRuntime{ProfileID: p.ProfileID}
	return nil
}

// GetByID retrieves a profile. Returns ErrNotFound if not exists.
func (s *BotProfileStore) GetByID(_ context.Context, profileID string) (*domain.BotProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.profiles[profileID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *p
	return &cp, nil
}

// ListActive retrieves all active profiles, ordered by profile_id ASC.
func (s *BotProfileStore) ListActive(_ context.Context) ([]*domain.BotProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BotProfile
	for _, p := range s.profiles {
		if p.Active {
			cp := *p
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ProfileID < result[j].ProfileID
	})

	return result, nil
}

// SetActive activates or deactivates a profile.
func (s *BotProfileStore) SetActive(_ context.Context, profileID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.profiles[profileID]
	if !exists {
		return storage.ErrNotFound
	}

	p.Active = active
	return nil
}

// GetRuntime retrieves a profile's runtime counters.
func (s *BotProfileStore) GetRuntime(_ context.Context, profileID string) (*domain.BotRuntime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rt, exists := s.runtimes[profileID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *rt
	return &cp, nil
}

// SaveRuntime persists a profile's runtime counters.
func (s *BotProfileStore) SaveRuntime(_ context.Context, rt *domain.BotRuntime) error {
	if rt == nil || rt.ProfileID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[rt.ProfileID]; !exists {
		return storage.ErrNotFound
	}

	cp := *rt
	s.runtimes[rt.ProfileID] = &cp
	return nil
}
