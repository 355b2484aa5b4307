package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vesting-engine/internal/domain"
)

// WSSubmitterConfig configures the WebSocket order submitter.
type WSSubmitterConfig struct {
	// WriteTimeout is the deadline for writing one order frame.
	WriteTimeout time.Duration
	// ReconnectDelay is the wait before redialing after a write failure.
	ReconnectDelay time.Duration
}

// DefaultWSSubmitterConfig returns default submitter configuration.
func DefaultWSSubmitterConfig() WSSubmitterConfig {
	return WSSubmitterConfig{
		WriteTimeout:   10 * time.Second,
		ReconnectDelay: 1 * time.Second,
	}
}

// WSSubmitter delivers orders to the trading engine over a WebSocket
// connection. Writes are serialized; a failed write drops the connection and
// the next submission redials. Orders are fire-and-forget: no acknowledgement
// is awaited.
type WSSubmitter struct {
	endpoint string
	config   WSSubmitterConfig

	mu       sync.Mutex
	conn     *websocket.Conn
	lastDial time.Time
}

// NewWSSubmitter creates a submitter for the given endpoint. The connection
// is established lazily on first submission.
func NewWSSubmitter(endpoint string, config *WSSubmitterConfig) *WSSubmitter {
	cfg := DefaultWSSubmitterConfig()
	if config != nil {
		cfg = *config
	}
	return &WSSubmitter{
		endpoint: endpoint,
		config:   cfg,
	}
}

// Compile-time interface check.
var _ Submitter = (*WSSubmitter)(nil)

// SubmitOrder writes one order frame to the trading engine.
func (s *WSSubmitter) SubmitOrder(ctx context.Context, order *domain.OrderRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConn(ctx); err != nil {
		return err
	}

	deadline := time.Now().Add(s.config.WriteTimeout)
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		s.dropConn()
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(order); err != nil {
		s.dropConn()
		return fmt.Errorf("submit order %s: %w", order.OrderID, err)
	}
	return nil
}

// Close shuts down the connection if one is open.
func (s *WSSubmitter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *WSSubmitter) ensureConn(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	// Pace redials after a dropped connection.
	if wait := s.config.ReconnectDelay - time.Since(s.lastDial); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.lastDial = time.Now()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial trading engine %s: %w", s.endpoint, err)
	}
	s.conn = conn
	return nil
}

func (s *WSSubmitter) dropConn() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}
