package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRouletteSectors(t *testing.T) {
	sectors, err := ParseRouletteSectors("10:40, 25:25,1000:3")
	require.NoError(t, err)
	assert.Equal(t, []RouletteSector{{Coins: 10, Weight: 40}, {Coins: 25, Weight: 25}, {Coins: 1000, Weight: 3}}, sectors)

	for _, bad := range []string{"10", "x:1", "10:y"} {
		_, err := ParseRouletteSectors(bad)
		assert.Error(t, err, bad)
	}
}

func TestRouletteWheel_SlotsFollowWeights(t *testing.T) {
	wheel, err := NewRouletteWheel([]RouletteSector{{Coins: 10, Weight: 3}, {Coins: 100, Weight: 1}})
	require.NoError(t, err)
	require.Equal(t, 4, wheel.SlotCount())

	counts := map[int]int{}
	for slot := 0; slot < wheel.SlotCount(); slot++ {
		index, _ := wheel.SectorAt(slot)
		counts[index]++
	}
	assert.Equal(t, map[int]int{0: 3, 1: 1}, counts)
}

func TestNewRouletteWheel_Invalid(t *testing.T) {
	_, err := NewRouletteWheel(nil)
	assert.Error(t, err)

	_, err = NewRouletteWheel([]RouletteSector{{Coins: 10, Weight: 0}})
	assert.Error(t, err)

	_, err = NewRouletteWheel([]RouletteSector{{Coins: -1, Weight: 1}})
	assert.Error(t, err)
}
