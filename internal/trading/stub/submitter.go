package stub

import (
	"context"
	"sync"

	"vesting-engine/internal/domain"
)

// Submitter implements trading.Submitter for testing. It records every
// submitted order.
type Submitter struct {
	mu     sync.Mutex
	orders []*domain.OrderRequest

	// Err, when set, is returned by every submission.
	Err error
}

// NewSubmitter creates a new stub submitter.
func NewSubmitter() *Submitter {
	return &Submitter{}
}

// SubmitOrder records the order.
func (s *Submitter) SubmitOrder(_ context.Context, order *domain.OrderRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	cp := *order
	s.orders = append(s.orders, &cp)
	return nil
}

// Orders returns a copy of all recorded orders.
func (s *Submitter) Orders() []*domain.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.OrderRequest, len(s.orders))
	copy(out, s.orders)
	return out
}
