// Package trading is the hand-off boundary to the external trading engine.
// The core fires orders and forgets them; matching, fills, and the holdings
// the trading engine produces are outside this system.
package trading

import (
	"context"

	"vesting-engine/internal/domain"
)

// Submitter delivers an order to the external trading engine.
type Submitter interface {
	SubmitOrder(ctx context.Context, order *domain.OrderRequest) error
}
