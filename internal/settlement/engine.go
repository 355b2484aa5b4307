// Package settlement implements claim settlement: converting an account's
// accrued units into concrete holdings under a per-account exclusive lock,
// with an append-only audit trail and an atomic checkpoint reset.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"vesting-engine/internal/accrual"
	"vesting-engine/internal/domain"
	"vesting-engine/internal/observability"
	"vesting-engine/internal/storage"
)

// Engine performs claim settlements. Projections are lock-free reads;
// Settle serializes per account and never partially applies.
type Engine struct {
	accounts    storage.AccountStore
	applier     storage.SettlementApplier
	auditMirror storage.ClaimStore
	locker      *AccountLocker
	now         func() time.Time
	lockTimeout time.Duration
	lockRetries uint64
	logger      *log.Logger
	metrics     *observability.Metrics
}

// Options contains configuration for creating an Engine.
type Options struct {
	AccountStore storage.AccountStore
	Applier      storage.SettlementApplier
	// AuditMirror, when set, receives a best-effort copy of every audit row
	// after the settlement commits (e.g. the ClickHouse reporting sink).
	// Mirror failures are logged, never propagated.
	AuditMirror storage.ClaimStore
	Locker      *AccountLocker // shared across engines driving the same stores; nil creates one
	Now          func() time.Time
	LockTimeout  time.Duration // default 2s
	LockRetries  uint64        // additional acquisition attempts after a timeout, default 3
	Logger       *log.Logger
	Metrics      *observability.Metrics // optional
}

// New creates a new settlement engine.
func New(opts Options) *Engine {
	locker := opts.Locker
	if locker == nil {
		locker = NewAccountLocker()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	lockTimeout := opts.LockTimeout
	if lockTimeout == 0 {
		lockTimeout = 2 * time.Second
	}

	lockRetries := opts.LockRetries
	if lockRetries == 0 {
		lockRetries = 3
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Engine{
		accounts:    opts.AccountStore,
		applier:     opts.Applier,
		auditMirror: opts.AuditMirror,
		locker:      locker,
		now:         now,
		lockTimeout: lockTimeout,
		lockRetries: lockRetries,
		logger:      logger,
		metrics:     opts.Metrics,
	}
}

// Project returns the account and its up-to-the-instant projected checkpoint
// without taking the lock or mutating anything. Safe under unlimited
// concurrency.
func (e *Engine) Project(ctx context.Context, accountID string) (*domain.VestingAccount, domain.Checkpoint, error) {
	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, domain.Checkpoint{}, fmt.Errorf("load account %s: %w", accountID, err)
	}
	cp, err := accrual.Project(acct, e.now().UnixMilli())
	return acct, cp, err
}

// Settle claims the account's full accrued balance and distributes it across
// the account's splits (or the default asset), capping the number of distinct
// targets at maxTargets (<= 0 means unlimited).
//
// The returned settlement has no legs when there was nothing to claim; that
// is a no-op, not an error. A settlement that loses the per-account race
// observes the winner's reset checkpoint and settles zero.
func (e *Engine) Settle(ctx context.Context, accountID string, maxTargets int) (*domain.Settlement, error) {
	start := time.Now()

	release, err := e.acquire(ctx, accountID)
	if err != nil {
		return nil, err
	}
	defer release()

	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		e.countError("store")
		return nil, fmt.Errorf("load account %s: %w", accountID, err)
	}

	nowMs := e.now().UnixMilli()
	if acct.Checkpoint.LastAccruedAtMs > nowMs {
		e.logger.Printf("[settlement] clock rollback on account %s: checkpoint %d ahead of now %d, clamping",
			accountID, acct.Checkpoint.LastAccruedAtMs, nowMs)
		if e.metrics != nil {
			e.metrics.ClockRollbacks.Inc()
		}
	}

	cp, _, err := accrual.Advance(acct.Checkpoint, acct.RatePerHour, acct.CapLimit, nowMs)
	if err != nil {
		e.countError("config")
		return nil, fmt.Errorf("advance accrual for %s: %w", accountID, err)
	}

	if cp.AccumulatedUnits == 0 {
		if e.metrics != nil {
			e.metrics.ZeroClaims.Inc()
		}
		return &domain.Settlement{AccountID: accountID, ClaimedAtMs: nowMs}, nil
	}

	claimed := cp.AccumulatedUnits
	legs := Distribute(claimed, acct.Splits, acct.DefaultAssetID, maxTargets)

	s := &domain.Settlement{
		AccountID:   accountID,
		Checkpoint:  domain.Checkpoint{LastAccruedAtMs: nowMs},
		ClaimedAtMs: nowMs,
	}
	for _, leg := range legs {
		if leg.Units == 0 {
			continue
		}
		s.Legs = append(s.Legs, leg)
		s.Claims = append(s.Claims, &domain.VestingClaim{
			ClaimID:       uuid.NewString(),
			AccountID:     accountID,
			TargetAssetID: leg.TargetAssetID,
			UnitsClaimed:  leg.Units,
			ClaimedAtMs:   nowMs,
		})
	}

	if err := e.applier.Apply(ctx, s); err != nil {
		e.countError("store")
		return nil, fmt.Errorf("apply settlement for %s: %w", accountID, err)
	}

	if e.auditMirror != nil {
		for _, c := range s.Claims {
			if err := e.auditMirror.Append(ctx, c); err != nil {
				e.logger.Printf("[settlement] audit mirror append failed for claim %s: %v", c.ClaimID, err)
			}
		}
	}

	if e.metrics != nil {
		e.metrics.ClaimsSettled.Inc()
		e.metrics.UnitsClaimed.Add(float64(claimed))
		e.metrics.SettlementLatency.Observe(time.Since(start).Seconds())
	}
	e.logger.Printf("[settlement] account %s claimed %d units across %d targets", accountID, claimed, len(s.Legs))

	return s, nil
}

// SweepCheckpoints advances and persists every account's checkpoint. Run
// periodically so that a process restart loses no accrual progress. Accounts
// whose lock is busy are skipped; the next sweep picks them up.
func (e *Engine) SweepCheckpoints(ctx context.Context) (int, error) {
	ids, err := e.accounts.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	swept := 0
	for _, id := range ids {
		if err := e.sweepOne(ctx, id); err != nil {
			if errors.Is(err, ErrLockTimeout) {
				continue
			}
			if e.metrics != nil {
				e.metrics.CheckpointSweepFails.Inc()
			}
			e.logger.Printf("[settlement] checkpoint sweep failed for account %s: %v", id, err)
			continue
		}
		swept++
	}

	if e.metrics != nil {
		e.metrics.CheckpointSweeps.Inc()
	}
	return swept, nil
}

func (e *Engine) sweepOne(ctx context.Context, accountID string) error {
	release, err := e.locker.Acquire(ctx, accountID, e.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	cp, _, err := accrual.Advance(acct.Checkpoint, acct.RatePerHour, acct.CapLimit, e.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("advance accrual: %w", err)
	}

	if err := e.accounts.SaveCheckpoint(ctx, accountID, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// acquire takes the per-account lock with bounded waits, retrying timed-out
// attempts under exponential backoff before surfacing ErrLockTimeout.
func (e *Engine) acquire(ctx context.Context, accountID string) (func(), error) {
	var release func()

	op := func() error {
		r, err := e.locker.Acquire(ctx, accountID, e.lockTimeout)
		if err != nil {
			if errors.Is(err, ErrLockTimeout) {
				if e.metrics != nil {
					e.metrics.LockTimeouts.Inc()
				}
				return err
			}
			return backoff.Permanent(err)
		}
		release = r
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), e.lockRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("acquire settlement lock for %s: %w", accountID, err)
	}
	return release, nil
}

func (e *Engine) countError(kind string) {
	if e.metrics != nil {
		e.metrics.SettlementErrors.WithLabelValues(kind).Inc()
	}
}
