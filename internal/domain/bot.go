package domain

// BotProfile is the static policy of one autonomous agent. Profiles are
// created administratively and treated as immutable at runtime; the mutable
// counters live in BotRuntime.
type BotProfile struct {
	ProfileID string
	AccountID string // the vesting account this agent drives (non-owning)
	Active    bool

	// Claim policy
	ClaimThreshold     float64 // fraction of cap that triggers a claim, 0 < threshold <= 1
	MaxTargetsPerClaim int     // cap on distinct targets per claim; <= 0 means unlimited

	// Pacing
	MinCooldownMs int64
	MaxCooldownMs int64

	// Active hours, half-open [start, end) on the local clock in whole hours.
	// start == end means always active; the window may wrap past midnight.
	ActiveHourStart int
	ActiveHourEnd   int

	// Daily quotas, reset once per local calendar day.
	MaxDailyActions int
	MaxDailyVolume  int64

	// Trade policy. Zero TradeAssetID disables the trade branch.
	TradeAssetID string
	TradeSide    OrderSide
	TradeMinQty  int64
	TradeMaxQty  int64
}

// BotRuntime is the persisted mutable state of one agent. It is owned by the
// agent's own scheduling loop; nothing else writes it. Persisting it per tick
// means a process restart does not reset daily quotas or cut cooldowns short.
type BotRuntime struct {
	ProfileID        string
	ActionsToday     int
	VolumeToday      int64
	LastResetDate    string // local calendar date, YYYY-MM-DD
	NextEligibleAtMs int64
	UpdatedAtMs      int64
}
