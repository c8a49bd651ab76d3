package entities

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RouletteSector is one payout on the wheel. Weight is the number of equally
// likely slots the sector occupies.
type RouletteSector struct {
	Coins  int64
	Weight int
}

// RouletteWheel is an ordered sector table expanded into slots so that a
// uniform draw over slot indices yields the weighted distribution.
type RouletteWheel struct {
	Sectors []RouletteSector
	slots   []int
}

// NewRouletteWheel builds a wheel from a sector table
func NewRouletteWheel(sectors []RouletteSector) (*RouletteWheel, error) {
	if len(sectors) == 0 {
		return nil, errors.New("roulette wheel needs at least one sector")
	}

	var slots []int
	for i, sector := range sectors {
		if sector.Coins < 0 {
			return nil, fmt.Errorf("sector %d has a negative payout", i)
		}
		if sector.Weight <= 0 {
			return nil, fmt.Errorf("sector %d must have a positive weight", i)
		}
		for w := 0; w < sector.Weight; w++ {
			slots = append(slots, i)
		}
	}

	return &RouletteWheel{Sectors: sectors, slots: slots}, nil
}

// ParseRouletteSectors reads a "coins:weight,coins:weight" table
func ParseRouletteSectors(spec string) ([]RouletteSector, error) {
	var sectors []RouletteSector
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		coinsStr, weightStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid roulette sector %q, expected coins:weight", part)
		}
		coins, err := strconv.ParseInt(strings.TrimSpace(coinsStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sector payout %q: %w", coinsStr, err)
		}
		weight, err := strconv.Atoi(strings.TrimSpace(weightStr))
		if err != nil {
			return nil, fmt.Errorf("invalid sector weight %q: %w", weightStr, err)
		}
		sectors = append(sectors, RouletteSector{Coins: coins, Weight: weight})
	}
	return sectors, nil
}

// SlotCount is the size of the index space a draw is taken from
func (w *RouletteWheel) SlotCount() int {
	return len(w.slots)
}

// SectorAt maps a slot index to its sector index and sector
func (w *RouletteWheel) SectorAt(slot int) (int, RouletteSector) {
	index := w.slots[slot]
	return index, w.Sectors[index]
}
