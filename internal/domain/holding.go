package domain

// Holding is a concrete asset position owned by an account.
// Claim settlement is the only writer in this system; the trading engine
// that also produces holdings lives outside the core.
type Holding struct {
	AccountID   string
	AssetID     string
	Quantity    int64
	UpdatedAtMs int64
}
