package services

import "streameconomy/domain/entities"

// ResolveTier returns the tier that applies to value. tiers must be sorted
// ascending by rank. The last tier whose threshold is at most value wins, so
// equal thresholds resolve to the higher rank. A value below every threshold
// resolves to the first tier. ok is false for an empty list.
func ResolveTier[T entities.Tier](value int64, tiers []T) (resolved T, ok bool) {
	if len(tiers) == 0 {
		return resolved, false
	}

	resolved = tiers[0]
	for _, tier := range tiers {
		if tier.TierThreshold() <= value {
			resolved = tier
		}
	}
	return resolved, true
}

// findTier returns the tier with the given id, if present
func findTier[T entities.Tier](tiers []T, tierID *int64) (T, bool) {
	var zero T
	if tierID == nil {
		return zero, false
	}
	for _, tier := range tiers {
		if tier.TierID() == *tierID {
			return tier, true
		}
	}
	return zero, false
}

// heldRank returns the rank of the tier with the given id, or nil when the
// id is unset or not in tiers
func heldRank[T entities.Tier](tiers []T, tierID *int64) *int {
	tier, found := findTier(tiers, tierID)
	if !found {
		return nil
	}
	rank := tier.TierRank()
	return &rank
}

// isPromotion reports whether moving to next is a level up from a tier of
// rank held. A nil held rank counts as the baseline.
func isPromotion[T entities.Tier](tiers []T, held *int, next T) bool {
	if held == nil {
		return next.TierRank() > tiers[0].TierRank()
	}
	return next.TierRank() > *held
}
