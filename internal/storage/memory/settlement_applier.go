package memory

import (
	"context"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/storage"
)

// SettlementApplier applies a claim settlement across the in-memory stores.
// It validates everything before mutating anything, so a failed Apply leaves
// all three stores untouched. Store mutexes are taken in a fixed order
// (accounts, holdings, claims) to keep appliers deadlock-free.
type SettlementApplier struct {
	accounts *AccountStore
	holdings *HoldingStore
	claims   *ClaimStore
}

// NewSettlementApplier creates a settlement applier over the given stores.
func NewSettlementApplier(accounts *AccountStore, holdings *HoldingStore, claims *ClaimStore) *SettlementApplier {
	return &SettlementApplier{
		accounts: accounts,
		holdings: holdings,
		claims:   claims,
	}
}

// Compile-time interface check.
var _ storage.SettlementApplier = (*SettlementApplier)(nil)

// Apply commits the settlement: holdings deltas, audit rows, checkpoint reset.
func (a *SettlementApplier) Apply(_ context.Context, s *domain.Settlement) error {
	if s == nil || s.AccountID == "" {
		return storage.ErrInvalidInput
	}

	a.accounts.mu.Lock()
	defer a.accounts.mu.Unlock()
	a.holdings.mu.Lock()
	defer a.holdings.mu.Unlock()
	a.claims.mu.Lock()
	defer a.claims.mu.Unlock()

	// Validation pass: nothing may have been mutated if we bail here.
	if _, exists := a.accounts.data[s.AccountID]; !exists {
		return storage.ErrNotFound
	}
	for _, c := range s.Claims {
		if c == nil || c.ClaimID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := a.claims.data[c.ClaimID]; exists {
			return storage.ErrDuplicateKey
		}
	}
	for _, leg := range s.Legs {
		if leg.TargetAssetID == "" {
			return storage.ErrInvalidInput
		}
	}

	// Apply pass: cannot fail.
	for _, leg := range s.Legs {
		a.holdings.upsertLocked(s.AccountID, leg.TargetAssetID, leg.Units, s.ClaimedAtMs)
	}
	for _, c := range s.Claims {
		if err := a.claims.appendLocked(c); err != nil {
			return err
		}
	}
	return a.accounts.saveCheckpointLocked(s.AccountID, s.Checkpoint)
}
