package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vesting-engine/internal/domain"
)

func legUnits(legs []domain.SettlementLeg) map[string]int64 {
	m := make(map[string]int64, len(legs))
	for _, leg := range legs {
		m[leg.TargetAssetID] = leg.Units
	}
	return m
}

func sumUnits(legs []domain.SettlementLeg) int64 {
	var total int64
	for _, leg := range legs {
		total += leg.Units
	}
	return total
}

func TestDistribute_ExactRatio(t *testing.T) {
	// 100 units split 60/40: no flooring remainder.
	legs := Distribute(100, []domain.VestingSplit{
		{TargetAssetID: "Y", Weight: 40},
		{TargetAssetID: "X", Weight: 60},
	}, "GOLD", 0)

	require.Len(t, legs, 2)
	assert.Equal(t, "X", legs[0].TargetAssetID, "stable order is target_asset_id ascending")
	assert.Equal(t, int64(60), legs[0].Units)
	assert.Equal(t, "Y", legs[1].TargetAssetID)
	assert.Equal(t, int64(40), legs[1].Units)
}

func TestDistribute_RemainderToLastTarget(t *testing.T) {
	// 101 units split 60/40: floors are 60 and 40, the leftover unit goes
	// to the last target in stable order.
	legs := Distribute(101, []domain.VestingSplit{
		{TargetAssetID: "X", Weight: 60},
		{TargetAssetID: "Y", Weight: 40},
	}, "GOLD", 0)

	units := legUnits(legs)
	assert.Equal(t, int64(60), units["X"])
	assert.Equal(t, int64(41), units["Y"])
}

func TestDistribute_EmptySplitsUseDefault(t *testing.T) {
	legs := Distribute(55, nil, "GOLD", 0)

	require.Len(t, legs, 1)
	assert.Equal(t, "GOLD", legs[0].TargetAssetID)
	assert.Equal(t, int64(55), legs[0].Units)
}

func TestDistribute_NonPositiveWeightsIgnored(t *testing.T) {
	legs := Distribute(10, []domain.VestingSplit{
		{TargetAssetID: "X", Weight: 0},
		{TargetAssetID: "Y", Weight: -3},
	}, "GOLD", 0)

	require.Len(t, legs, 1)
	assert.Equal(t, "GOLD", legs[0].TargetAssetID)
}

func TestDistribute_ZeroUnits(t *testing.T) {
	assert.Nil(t, Distribute(0, []domain.VestingSplit{{TargetAssetID: "X", Weight: 1}}, "GOLD", 0))
}

func TestDistribute_NoLeakage(t *testing.T) {
	// The distributed total must equal the claimed amount exactly for any
	// weight shape.
	tests := []struct {
		name   string
		units  int64
		splits []domain.VestingSplit
	}{
		{"three uneven", 1000, []domain.VestingSplit{
			{TargetAssetID: "A", Weight: 1},
			{TargetAssetID: "B", Weight: 2},
			{TargetAssetID: "C", Weight: 4},
		}},
		{"sevenths", 100, []domain.VestingSplit{
			{TargetAssetID: "A", Weight: 1},
			{TargetAssetID: "B", Weight: 1},
			{TargetAssetID: "C", Weight: 1},
			{TargetAssetID: "D", Weight: 1},
			{TargetAssetID: "E", Weight: 1},
			{TargetAssetID: "F", Weight: 1},
			{TargetAssetID: "G", Weight: 1},
		}},
		{"tiny weights", 7, []domain.VestingSplit{
			{TargetAssetID: "A", Weight: 0.0001},
			{TargetAssetID: "B", Weight: 0.0002},
		}},
		{"one unit many targets", 1, []domain.VestingSplit{
			{TargetAssetID: "A", Weight: 10},
			{TargetAssetID: "B", Weight: 10},
			{TargetAssetID: "C", Weight: 10},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legs := Distribute(tt.units, tt.splits, "GOLD", 0)
			assert.Equal(t, tt.units, sumUnits(legs))
			for _, leg := range legs {
				assert.GreaterOrEqual(t, leg.Units, int64(0))
			}
		})
	}
}

func TestDistribute_FoldUnderTargetCap(t *testing.T) {
	splits := []domain.VestingSplit{
		{TargetAssetID: "A", Weight: 10},
		{TargetAssetID: "B", Weight: 20},
		{TargetAssetID: "C", Weight: 30},
		{TargetAssetID: "D", Weight: 40},
	}

	legs := Distribute(100, splits, "GOLD", 2)

	// A folds into B (10+20=30), then B folds into C (30+30=60),
	// leaving C=60 and D=40.
	require.Len(t, legs, 2)
	units := legUnits(legs)
	assert.Equal(t, int64(60), units["C"])
	assert.Equal(t, int64(40), units["D"])
	assert.Equal(t, int64(100), sumUnits(legs))
}

func TestDistribute_FoldCapNoLeakage(t *testing.T) {
	splits := []domain.VestingSplit{
		{TargetAssetID: "A", Weight: 3},
		{TargetAssetID: "B", Weight: 1},
		{TargetAssetID: "C", Weight: 7},
		{TargetAssetID: "D", Weight: 2},
		{TargetAssetID: "E", Weight: 5},
	}

	for _, maxTargets := range []int{1, 2, 3, 4, 5, 0} {
		legs := Distribute(997, splits, "GOLD", maxTargets)
		assert.Equal(t, int64(997), sumUnits(legs), "maxTargets=%d", maxTargets)
		if maxTargets > 0 {
			assert.LessOrEqual(t, len(legs), maxTargets, "maxTargets=%d", maxTargets)
		}
	}
}
