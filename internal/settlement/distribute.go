package settlement

import (
	"math"
	"sort"

	"vesting-engine/internal/domain"
)

// Distribute fans accumulated units out across claim targets.
//
// Targets are processed in stable order (target_asset_id ascending) so the
// distribution is deterministic. Each target receives the floor of its
// proportional share; the flooring leftover goes to the last target in the
// stable order, so the distributed total always equals units exactly.
//
// With no usable splits, the whole amount goes to defaultAssetID.
//
// When maxTargets > 0 and more splits exist than the cap allows, the
// lowest-weight splits are folded into the next-lowest surviving split
// before distribution, so no weight (and therefore no units) is lost.
func Distribute(units int64, splits []domain.VestingSplit, defaultAssetID string, maxTargets int) []domain.SettlementLeg {
	if units <= 0 {
		return nil
	}

	usable := make([]domain.VestingSplit, 0, len(splits))
	for _, s := range splits {
		if s.Weight > 0 && s.TargetAssetID != "" {
			usable = append(usable, s)
		}
	}

	if len(usable) == 0 {
		return []domain.SettlementLeg{{TargetAssetID: defaultAssetID, Units: units}}
	}

	usable = foldToLimit(usable, maxTargets)

	// Stable distribution order.
	sort.Slice(usable, func(i, j int) bool {
		return usable[i].TargetAssetID < usable[j].TargetAssetID
	})

	var totalWeight float64
	for _, s := range usable {
		totalWeight += s.Weight
	}

	legs := make([]domain.SettlementLeg, len(usable))
	var distributed int64
	for i, s := range usable {
		var share int64
		if i == len(usable)-1 {
			// Flooring leftover is assigned to the last target.
			share = units - distributed
		} else {
			// Multiply before dividing: keeps exact-ratio cases exact.
			share = int64(math.Floor(float64(units) * s.Weight / totalWeight))
			if remaining := units - distributed; share > remaining {
				share = remaining
			}
		}
		legs[i] = domain.SettlementLeg{TargetAssetID: s.TargetAssetID, Units: share}
		distributed += share
	}

	return legs
}

// foldToLimit reduces the split set to at most maxTargets entries by folding
// the lowest-weight split into the next-lowest remaining one. Ties break on
// target_asset_id so folding is deterministic. maxTargets <= 0 means
// unlimited.
func foldToLimit(splits []domain.VestingSplit, maxTargets int) []domain.VestingSplit {
	if maxTargets <= 0 || len(splits) <= maxTargets {
		return splits
	}

	folded := append([]domain.VestingSplit(nil), splits...)
	sort.Slice(folded, func(i, j int) bool {
		if folded[i].Weight != folded[j].Weight {
			return folded[i].Weight < folded[j].Weight
		}
		return folded[i].TargetAssetID < folded[j].TargetAssetID
	})

	for len(folded) > maxTargets {
		folded[1].Weight += folded[0].Weight
		folded = folded[1:]
		// Re-establish weight order after the merge.
		sort.Slice(folded, func(i, j int) bool {
			if folded[i].Weight != folded[j].Weight {
				return folded[i].Weight < folded[j].Weight
			}
			return folded[i].TargetAssetID < folded[j].TargetAssetID
		})
	}

	return folded
}
