package domain

// Checkpoint is the persisted accrual state of a vesting account.
// It fully determines all future accrual: feeding a checkpoint plus a
// later timestamp back into the accrual clock is reproducible regardless
// of how often the clock was sampled in between.
type Checkpoint struct {
	AccumulatedUnits int64 // whole units accrued and not yet claimed, 0 <= AccumulatedUnits <= CapLimit
	ResidualMs       int64 // fractional progress toward the next unit, 0 <= ResidualMs < unit interval
	LastAccruedAtMs  int64 // unix ms of the last checkpoint; 0 means accrual has never run
}

// VestingSplit is a weighted claim target. Weights are relative and need
// not sum to 1; they are normalized over the splits included in a claim.
type VestingSplit struct {
	TargetAssetID string
	Weight        float64
}

// VestingAccount is the per-holder vesting aggregate.
// Mutated only by claim settlement (and the periodic checkpoint sweep);
// accrual projections are read-only. Never deleted, only zeroed on claim.
type VestingAccount struct {
	AccountID string

	Checkpoint Checkpoint

	RatePerHour float64 // units earned per hour, > 0
	CapLimit    int64   // maximum AccumulatedUnits, > 0

	// Splits describe how a claim fans out across target assets.
	// Empty means the whole claim goes to DefaultAssetID.
	Splits         []VestingSplit
	DefaultAssetID string

	CreatedAtMs int64
}
