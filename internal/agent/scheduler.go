// Package agent implements the autonomous agent scheduler: a population of
// bot profiles, each an independently scheduled actor that claims accrued
// vesting units and places trades under its own cooldown, active-hours, and
// daily-quota constraints.
package agent

import (
	"context"
	"hash/fnv"
	"log"
	"math/rand"
	"sync"
	"time"

	"vesting-engine/internal/domain"
	"vesting-engine/internal/observability"
	"vesting-engine/internal/settlement"
	"vesting-engine/internal/storage"
	"vesting-engine/internal/trading"
)

// Options contains configuration for creating a Scheduler.
type Options struct {
	ProfileStore storage.BotProfileStore
	Engine       *settlement.Engine
	Submitter    trading.Submitter

	// Now supplies wall-clock time; defaults to time.Now.
	Now func() time.Time
	// Location is the local clock for active hours and daily rollover.
	// Defaults to time.Local.
	Location *time.Location
	// NewRand builds the per-agent random source. The default seeds from a
	// hash of the profile ID, so each agent's draws are independent and
	// reproducible.
	NewRand func(profileID string) *rand.Rand

	// TickRetry is the delay before retrying after a failed tick. Default 5s.
	TickRetry time.Duration
	// RefreshInterval is how often the population is reconciled against the
	// profile store. Default 1m.
	RefreshInterval time.Duration

	Logger  *log.Logger
	Metrics *observability.Metrics // optional
}

// Scheduler manages the agent population. Each active profile runs in its own
// goroutine; one agent's failure never affects another's schedule.
type Scheduler struct {
	profiles  storage.BotProfileStore
	engine    *settlement.Engine
	submitter trading.Submitter

	now             func() time.Time
	location        *time.Location
	newRand         func(profileID string) *rand.Rand
	tickRetry       time.Duration
	refreshInterval time.Duration
	logger          *log.Logger
	metrics         *observability.Metrics

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new agent scheduler.
func New(opts Options) *Scheduler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	location := opts.Location
	if location == nil {
		location = time.Local
	}

	newRand := opts.NewRand
	if newRand == nil {
		newRand = seededRand
	}

	tickRetry := opts.TickRetry
	if tickRetry == 0 {
		tickRetry = 5 * time.Second
	}

	refreshInterval := opts.RefreshInterval
	if refreshInterval == 0 {
		refreshInterval = time.Minute
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Scheduler{
		profiles:        opts.ProfileStore,
		engine:          opts.Engine,
		submitter:       opts.Submitter,
		now:             now,
		location:        location,
		newRand:         newRand,
		tickRetry:       tickRetry,
		refreshInterval: refreshInterval,
		logger:          logger,
		metrics:         opts.Metrics,
		running:         make(map[string]context.CancelFunc),
	}
}

// Run starts all active agents and keeps the population reconciled with the
// profile store until ctx is cancelled. Shutdown waits for in-flight ticks,
// so a settlement that already holds its account lock always completes.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Println("[scheduler] starting agent population...")

	if err := s.reconcile(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("[scheduler] stopping, waiting for in-flight ticks...")
			s.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			if err := s.reconcile(ctx); err != nil {
				s.logger.Printf("[scheduler] reconcile failed: %v", err)
			}
		}
	}
}

// reconcile starts agents for newly active profiles and stops agents whose
// profiles were deactivated. A deactivated agent simply stops being
// scheduled; its in-flight tick still runs to completion.
func (s *Scheduler) reconcile(ctx context.Context) error {
	active, err := s.profiles.ListActive(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]*domain.BotProfile, len(active))
	for _, p := range active {
		want[p.ProfileID] = p
	}

	for id, cancel := range s.running {
		if _, ok := want[id]; !ok {
			s.logger.Printf("[scheduler] deactivating agent %s", id)
			cancel()
			delete(s.running, id)
		}
	}

	for id, p := range want {
		if _, ok := s.running[id]; ok {
			continue
		}
		agentCtx, cancel := context.WithCancel(ctx)
		s.running[id] = cancel
		s.wg.Add(1)
		go s.runAgent(agentCtx, p)
	}

	if s.metrics != nil {
		s.metrics.ActiveAgents.Set(float64(len(s.running)))
	}
	return nil
}

// runAgent is one agent's scheduling loop.
func (s *Scheduler) runAgent(ctx context.Context, p *domain.BotProfile) {
	defer s.wg.Done()

	r := &runner{
		profile: p,
		rng:     s.newRand(p.ProfileID),
		s:       s,
	}
	s.logger.Printf("[scheduler] agent %s started (account %s)", p.ProfileID, p.AccountID)

	for {
		wait := r.tick(ctx)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Printf("[scheduler] agent %s stopped", p.ProfileID)
			return
		case <-timer.C:
		}
	}
}

// seededRand derives a deterministic per-agent source from the profile ID.
func seededRand(profileID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(profileID))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
