package agent

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"vesting-engine/internal/domain"
)

// runner is one scheduled agent: a bot profile plus its private random
// source. Only the runner's own loop touches its runtime counters.
type runner struct {
	profile *domain.BotProfile
	rng     *rand.Rand
	s       *Scheduler
}

// tick runs one scheduling pass and returns how long to sleep before the
// next one. Any failure is logged and retried on the next pass; it never
// propagates to other agents.
func (r *runner) tick(ctx context.Context) time.Duration {
	p := r.profile
	s := r.s

	if s.metrics != nil {
		s.metrics.AgentTicks.Inc()
	}

	now := s.now().In(s.location)
	nowMs := now.UnixMilli()

	rt, err := s.profiles.GetRuntime(ctx, p.ProfileID)
	if err != nil {
		return r.fail("load runtime", err)
	}

	// Daily quota rollover, persisted before anything is counted against
	// the new day.
	if today := localDate(now); rt.LastResetDate != today {
		rt.ActionsToday = 0
		rt.VolumeToday = 0
		rt.LastResetDate = today
		rt.UpdatedAtMs = nowMs
		if err := s.profiles.SaveRuntime(ctx, rt); err != nil {
			return r.fail("persist quota rollover", err)
		}
	}

	if !withinActiveHours(now, p.ActiveHourStart, p.ActiveHourEnd) {
		return nextWindowOpen(now, p.ActiveHourStart).Sub(now)
	}

	if nowMs < rt.NextEligibleAtMs {
		return time.Duration(rt.NextEligibleAtMs-nowMs) * time.Millisecond
	}

	// Evaluate. The projection is a pure read; it takes no lock.
	acct, cp, err := s.engine.Project(ctx, p.AccountID)
	if err != nil {
		return r.fail("project accrual", err)
	}

	if r.shouldClaim(acct, cp, rt) {
		// Once started, a claim runs to completion even if this agent is
		// deactivated or the scheduler shuts down mid-settlement.
		settled, err := s.engine.Settle(context.WithoutCancel(ctx), p.AccountID, p.MaxTargetsPerClaim)
		if err != nil {
			// Transient (lock timeout, store) failures retry on the next
			// tick without consuming quota or entering cooldown.
			return r.fail("settle claim", err)
		}
		if units := settled.TotalUnits(); units > 0 {
			rt.ActionsToday++
			rt.VolumeToday += units
			rt.UpdatedAtMs = nowMs
			// The settlement is committed, so the quota consumption is
			// persisted on its own right away. A crash between Settle and
			// this save is the one window where the action goes uncounted.
			if err := s.profiles.SaveRuntime(context.WithoutCancel(ctx), rt); err != nil {
				return r.fail("persist quota after claim", err)
			}
			if s.metrics != nil {
				s.metrics.AgentActions.WithLabelValues("claim").Inc()
			}
			s.logger.Printf("[agent %s] claimed %d units for account %s", p.ProfileID, units, p.AccountID)
		}
	} else if r.shouldTrade(rt) {
		qty := r.drawTradeQuantity(rt)
		if qty > 0 {
			order := &domain.OrderRequest{
				OrderID:       uuid.NewString(),
				AccountID:     p.AccountID,
				AssetID:       p.TradeAssetID,
				Side:          p.TradeSide,
				Quantity:      qty,
				SubmittedAtMs: nowMs,
			}
			if err := s.submitter.SubmitOrder(ctx, order); err != nil {
				return r.fail("submit order", err)
			}
			rt.ActionsToday++
			rt.VolumeToday += qty
			rt.UpdatedAtMs = nowMs
			// Same as the claim branch: the order is already out, count it
			// before anything else can fail.
			if err := s.profiles.SaveRuntime(context.WithoutCancel(ctx), rt); err != nil {
				return r.fail("persist quota after trade", err)
			}
			if s.metrics != nil {
				s.metrics.AgentActions.WithLabelValues("trade").Inc()
				s.metrics.OrdersSubmitted.Inc()
			}
			s.logger.Printf("[agent %s] submitted %s %d %s for account %s",
				p.ProfileID, order.Side, qty, order.AssetID, p.AccountID)
		}
	}

	// Cooldown is drawn after every evaluation, acted or not. Persisting
	// NextEligibleAtMs means restarts honor it.
	cooldownMs := r.drawCooldown()
	rt.NextEligibleAtMs = nowMs + cooldownMs
	rt.UpdatedAtMs = nowMs
	if err := s.profiles.SaveRuntime(ctx, rt); err != nil {
		return r.fail("persist runtime", err)
	}

	return time.Duration(cooldownMs) * time.Millisecond
}

func (r *runner) fail(stage string, err error) time.Duration {
	r.s.logger.Printf("[agent %s] %s: %v", r.profile.ProfileID, stage, err)
	if r.s.metrics != nil {
		r.s.metrics.AgentTickErrors.Inc()
	}
	return r.s.tickRetry
}

// shouldClaim reports whether the projected accrual crossed the claim
// threshold and the daily quotas still allow an action.
func (r *runner) shouldClaim(acct *domain.VestingAccount, cp domain.Checkpoint, rt *domain.BotRuntime) bool {
	p := r.profile
	if acct.CapLimit <= 0 || cp.AccumulatedUnits == 0 {
		return false
	}
	if float64(cp.AccumulatedUnits)/float64(acct.CapLimit) < p.ClaimThreshold {
		return false
	}
	return r.quotasAllow(rt)
}

func (r *runner) shouldTrade(rt *domain.BotRuntime) bool {
	return r.profile.TradeAssetID != "" && r.quotasAllow(rt)
}

// quotasAllow checks both daily quotas. Non-positive limits mean unlimited.
func (r *runner) quotasAllow(rt *domain.BotRuntime) bool {
	p := r.profile
	if p.MaxDailyActions > 0 && rt.ActionsToday >= p.MaxDailyActions {
		return false
	}
	if p.MaxDailyVolume > 0 && rt.VolumeToday >= p.MaxDailyVolume {
		return false
	}
	return true
}

// drawCooldown draws uniformly from [MinCooldownMs, MaxCooldownMs] using the
// agent's own seeded source, so schedules are independent across agents and
// reproducible in tests.
func (r *runner) drawCooldown() int64 {
	p := r.profile
	min, max := p.MinCooldownMs, p.MaxCooldownMs
	if min < 0 {
		min = 0
	}
	if max <= min {
		return min
	}
	return min + r.rng.Int63n(max-min+1)
}

// drawTradeQuantity draws an order size within the trade policy bounds,
// capped by the remaining daily volume.
func (r *runner) drawTradeQuantity(rt *domain.BotRuntime) int64 {
	p := r.profile
	min, max := p.TradeMinQty, p.TradeMaxQty
	if min <= 0 {
		min = 1
	}
	qty := min
	if max > min {
		qty = min + r.rng.Int63n(max-min+1)
	}
	if p.MaxDailyVolume > 0 {
		if remaining := p.MaxDailyVolume - rt.VolumeToday; qty > remaining {
			qty = remaining
		}
	}
	if qty < 0 {
		qty = 0
	}
	return qty
}
