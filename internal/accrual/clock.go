// Package accrual implements the vesting accrual clock: pure, deterministic
// advancement of an account checkpoint over wall-clock time.
//
// All arithmetic is int64 milliseconds. The unit interval (time to earn one
// whole unit at a given rate) is quantized to whole milliseconds so that
// splitting an elapsed interval into any number of consecutive calls yields
// the same final checkpoint as a single call spanning the combined interval.
package accrual

import (
	"errors"
	"fmt"
	"math"

	"vesting-engine/internal/domain"
)

// ErrConfigInvalid is returned for a non-positive rate or cap. It is fatal
// for account setup; accounts with invalid configuration never accrue.
var ErrConfigInvalid = errors.New("invalid accrual configuration")

const msPerHour = 3_600_000

// UnitIntervalMs returns the wall-clock milliseconds needed to earn one whole
// unit at the given rate, rounded to the nearest millisecond.
func UnitIntervalMs(ratePerHour float64) (int64, error) {
	if err := validateRate(ratePerHour); err != nil {
		return 0, err
	}
	interval := int64(math.Round(msPerHour / ratePerHour))
	if interval < 1 {
		return 0, fmt.Errorf("%w: rate %v exceeds one unit per millisecond", ErrConfigInvalid, ratePerHour)
	}
	return interval, nil
}

// ValidateConfig rejects account configuration that can never accrue
// correctly. Returns ErrConfigInvalid for a non-positive rate or cap.
func ValidateConfig(ratePerHour float64, capLimit int64) error {
	if _, err := UnitIntervalMs(ratePerHour); err != nil {
		return err
	}
	if capLimit <= 0 {
		return fmt.Errorf("%w: cap limit %d must be positive", ErrConfigInvalid, capLimit)
	}
	return nil
}

func validateRate(ratePerHour float64) error {
	if ratePerHour <= 0 || math.IsInf(ratePerHour, 0) || math.IsNaN(ratePerHour) {
		return fmt.Errorf("%w: rate per hour %v must be positive and finite", ErrConfigInvalid, ratePerHour)
	}
	return nil
}

// Advance projects the checkpoint forward to nowMs and returns the new
// checkpoint plus the whole units earned by this call.
//
// Rules:
//   - A zero LastAccruedAtMs means accrual has never run; it is treated as
//     nowMs (zero elapsed time).
//   - Clock rollback clamps elapsed time to zero. It is not an error; the
//     caller may log it.
//   - At the cap the clock freezes: elapsed time is discarded and the
//     residual is zeroed rather than banked, so idling at the cap does not
//     grow unbounded residual. The same rule applies when the cap is hit
//     mid-computation: units beyond the cap and partial progress past it
//     are discarded.
func Advance(cp domain.Checkpoint, ratePerHour float64, capLimit int64, nowMs int64) (domain.Checkpoint, int64, error) {
	if err := ValidateConfig(ratePerHour, capLimit); err != nil {
		return cp, 0, err
	}
	intervalMs, err := UnitIntervalMs(ratePerHour)
	if err != nil {
		return cp, 0, err
	}

	last := cp.LastAccruedAtMs
	if last == 0 {
		last = nowMs
	}
	elapsedMs := nowMs - last
	if elapsedMs < 0 {
		elapsedMs = 0
	}

	// Frozen at cap: discard elapsed time and residual.
	if cp.AccumulatedUnits >= capLimit {
		return domain.Checkpoint{
			AccumulatedUnits: cp.AccumulatedUnits,
			ResidualMs:       0,
			LastAccruedAtMs:  nowMs,
		}, 0, nil
	}

	totalMs := elapsedMs + cp.ResidualMs
	earned := totalMs / intervalMs
	residual := totalMs % intervalMs

	accumulated := cp.AccumulatedUnits + earned
	if accumulated >= capLimit {
		// Cap hit mid-computation: excess units and partial progress past
		// the cap are discarded.
		earned = capLimit - cp.AccumulatedUnits
		accumulated = capLimit
		residual = 0
	}

	return domain.Checkpoint{
		AccumulatedUnits: accumulated,
		ResidualMs:       residual,
		LastAccruedAtMs:  nowMs,
	}, earned, nil
}

// Project returns the account's up-to-the-instant checkpoint without
// mutating anything. It is the read path used by projections and by agent
// evaluation ticks.
func Project(acct *domain.VestingAccount, nowMs int64) (domain.Checkpoint, error) {
	cp, _, err := Advance(acct.Checkpoint, acct.RatePerHour, acct.CapLimit, nowMs)
	return cp, err
}
