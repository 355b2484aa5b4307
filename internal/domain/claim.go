package domain

// VestingClaim is one audit ledger row of a claim settlement.
// A settlement writes one row per target asset that received units.
// Rows are append-only and never mutated or deleted.
type VestingClaim struct {
	ClaimID       string // uuid
	AccountID     string
	TargetAssetID string
	UnitsClaimed  int64
	ClaimedAtMs   int64
}

// SettlementLeg is the portion of a settlement applied to one target asset.
type SettlementLeg struct {
	TargetAssetID string
	Units         int64
}

// Settlement is the full, atomic outcome of one claim: the holdings deltas,
// the audit rows, and the checkpoint reset. A store applies all of it in a
// single transaction or none of it.
type Settlement struct {
	AccountID   string
	Legs        []SettlementLeg
	Claims      []*VestingClaim
	Checkpoint  Checkpoint // post-claim checkpoint (zeroed, LastAccruedAtMs = claim time)
	ClaimedAtMs int64
}

// TotalUnits returns the sum of units across all legs. It always equals the
// accumulated balance at the instant of the claim.
func (s *Settlement) TotalUnits() int64 {
	var total int64
	for _, leg := range s.Legs {
		total += leg.Units
	}
	return total
}
