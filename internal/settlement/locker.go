package settlement

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when the per-account settlement lock could not
// be acquired within the bounded wait. It is transient; callers retry with
// backoff rather than dropping the claim.
var ErrLockTimeout = errors.New("settlement lock acquisition timed out")

// AccountLocker serializes settlements per account. Unrelated accounts never
// contend. Acquisition is bounded: a settlement attempt surfaces
// ErrLockTimeout instead of hanging.
//
// The lock table keeps one semaphore per account ever settled and is never
// pruned. That is a few dozen bytes per account; revisit with an idle-entry
// sweep only if the account population becomes unbounded.
type AccountLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewAccountLocker creates an empty locker.
func NewAccountLocker() *AccountLocker {
	return &AccountLocker{
		locks: make(map[string]chan struct{}),
	}
}

func (l *AccountLocker) sem(accountID string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.locks[accountID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[accountID] = sem
	}
	return sem
}

// Acquire takes the account's exclusive lock, waiting at most timeout.
// The returned release function must be called exactly once.
func (l *AccountLocker) Acquire(ctx context.Context, accountID string, timeout time.Duration) (func(), error) {
	sem := l.sem(accountID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-timer.C:
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
