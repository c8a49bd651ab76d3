package services

import (
	"math/rand/v2"
	"sort"
	"testing"

	"streameconomy/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewerTiers() []entities.ViewerTier {
	return []entities.ViewerTier{
		{ID: 1, StreamerID: 9, Rank: 0, Name: "Bronze", Threshold: 0, Active: true},
		{ID: 2, StreamerID: 9, Rank: 1, Name: "Silver", Threshold: 1000, Active: true},
		{ID: 3, StreamerID: 9, Rank: 2, Name: "Gold", Threshold: 5000, Active: true},
	}
}

func TestResolveTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value int64
		want  string
	}{
		{name: "zero points", value: 0, want: "Bronze"},
		{name: "just below silver", value: 999, want: "Bronze"},
		{name: "exactly silver", value: 1000, want: "Silver"},
		{name: "between silver and gold", value: 4999, want: "Silver"},
		{name: "exactly gold", value: 5000, want: "Gold"},
		{name: "far above gold", value: 1_000_000, want: "Gold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tier, ok := ResolveTier(tt.value, viewerTiers())
			require.True(t, ok)
			assert.Equal(t, tt.want, tier.Name)
		})
	}
}

func TestResolveTier_EmptyList(t *testing.T) {
	t.Parallel()

	_, ok := ResolveTier[entities.ViewerTier](100, nil)
	assert.False(t, ok)
}

func TestResolveTier_BelowEveryThreshold(t *testing.T) {
	t.Parallel()

	tiers := []entities.StreamerTier{
		{ID: 1, Rank: 0, Name: "Warmup", ThresholdMinutes: 10},
		{ID: 2, Rank: 1, Name: "Live", ThresholdMinutes: 60},
	}
	tier, ok := ResolveTier(5, tiers)
	require.True(t, ok)
	assert.Equal(t, "Warmup", tier.Name)
}

func TestResolveTier_EqualThresholdsPickHigherRank(t *testing.T) {
	t.Parallel()

	tiers := []entities.ViewerTier{
		{ID: 1, Rank: 0, Name: "Base", Threshold: 0},
		{ID: 2, Rank: 1, Name: "Fan", Threshold: 100},
		{ID: 3, Rank: 2, Name: "Superfan", Threshold: 100},
	}
	tier, ok := ResolveTier(100, tiers)
	require.True(t, ok)
	assert.Equal(t, "Superfan", tier.Name)
}

func TestResolveTier_Monotonic(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 200; round++ {
		size := 1 + r.IntN(8)
		thresholds := make([]int64, size)
		for i := 1; i < size; i++ {
			thresholds[i] = r.Int64N(10_000)
		}
		sort.Slice(thresholds, func(i, j int) bool { return thresholds[i] < thresholds[j] })

		tiers := make([]entities.ViewerTier, size)
		for i, threshold := range thresholds {
			tiers[i] = entities.ViewerTier{ID: int64(i + 1), Rank: i, Threshold: threshold}
		}

		for probe := 0; probe < 50; probe++ {
			v1 := r.Int64N(12_000)
			v2 := v1 + r.Int64N(3_000)
			low, _ := ResolveTier(v1, tiers)
			high, _ := ResolveTier(v2, tiers)
			assert.LessOrEqual(t, low.Rank, high.Rank, "values %d <= %d over %v", v1, v2, thresholds)
		}
	}
}

func TestIsPromotion(t *testing.T) {
	t.Parallel()

	tiers := viewerTiers()
	bronze, silver := int64(1), int64(2)

	assert.True(t, isPromotion(tiers, heldRank(tiers, &bronze), tiers[1]))
	assert.False(t, isPromotion(tiers, heldRank(tiers, &silver), tiers[0]))
	assert.False(t, isPromotion(tiers, nil, tiers[0]), "assigning the baseline is not a level up")
	assert.True(t, isPromotion(tiers, nil, tiers[2]))

	missing := int64(99)
	assert.Nil(t, heldRank(tiers, &missing))

	aboveAll := tiers[len(tiers)-1].Rank + 1
	assert.False(t, isPromotion(tiers, &aboveAll, tiers[1]), "moving down from a retired tier is not a level up")
}
