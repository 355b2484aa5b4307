package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vesting-engine/internal/domain"
)

// Seed is the optional bootstrap dataset: vesting accounts and agent
// profiles created at startup if they do not already exist. Intended for
// memory mode and local demos.
type Seed struct {
	Accounts []SeedAccount `yaml:"accounts"`
	Profiles []SeedProfile `yaml:"profiles"`
}

// SeedAccount is the YAML shape of one vesting account.
type SeedAccount struct {
	AccountID      string  `yaml:"account_id"`
	RatePerHour    float64 `yaml:"rate_per_hour"`
	CapLimit       int64   `yaml:"cap_limit"`
	DefaultAssetID string  `yaml:"default_asset_id"`
	Splits         []struct {
		TargetAssetID string  `yaml:"target_asset_id"`
		Weight        float64 `yaml:"weight"`
	} `yaml:"splits"`
}

// SeedProfile is the YAML shape of one agent profile.
type SeedProfile struct {
	ProfileID          string  `yaml:"profile_id"`
	AccountID          string  `yaml:"account_id"`
	Active             *bool   `yaml:"active"` // nil means active
	ClaimThreshold     float64 `yaml:"claim_threshold"`
	MaxTargetsPerClaim int     `yaml:"max_targets_per_claim"`
	MinCooldownMs      int64   `yaml:"min_cooldown_ms"`
	MaxCooldownMs      int64   `yaml:"max_cooldown_ms"`
	ActiveHourStart    int     `yaml:"active_hour_start"`
	ActiveHourEnd      int     `yaml:"active_hour_end"`
	MaxDailyActions    int     `yaml:"max_daily_actions"`
	MaxDailyVolume     int64   `yaml:"max_daily_volume"`
	TradeAssetID       string  `yaml:"trade_asset_id"`
	TradeSide          string  `yaml:"trade_side"`
	TradeMinQty        int64   `yaml:"trade_min_qty"`
	TradeMaxQty        int64   `yaml:"trade_max_qty"`
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Account converts the YAML shape to a domain account.
func (a SeedAccount) Account(nowMs int64) *domain.VestingAccount {
	acct := &domain.VestingAccount{
		AccountID:      a.AccountID,
		RatePerHour:    a.RatePerHour,
		CapLimit:       a.CapLimit,
		DefaultAssetID: a.DefaultAssetID,
		CreatedAtMs:    nowMs,
	}
	for _, s := range a.Splits {
		acct.Splits = append(acct.Splits, domain.VestingSplit{
			TargetAssetID: s.TargetAssetID,
			Weight:        s.Weight,
		})
	}
	return acct
}

// Profile converts the YAML shape to a domain profile.
func (p SeedProfile) Profile() *domain.BotProfile {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return &domain.BotProfile{
		ProfileID:          p.ProfileID,
		AccountID:          p.AccountID,
		Active:             active,
		ClaimThreshold:     p.ClaimThreshold,
		MaxTargetsPerClaim: p.MaxTargetsPerClaim,
		MinCooldownMs:      p.MinCooldownMs,
		MaxCooldownMs:      p.MaxCooldownMs,
		ActiveHourStart:    p.ActiveHourStart,
		ActiveHourEnd:      p.ActiveHourEnd,
		MaxDailyActions:    p.MaxDailyActions,
		MaxDailyVolume:     p.MaxDailyVolume,
		TradeAssetID:       p.TradeAssetID,
		TradeSide:          domain.OrderSide(p.TradeSide),
		TradeMinQty:        p.TradeMinQty,
		TradeMaxQty:        p.TradeMaxQty,
	}
}
