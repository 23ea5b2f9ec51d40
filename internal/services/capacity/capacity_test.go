package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		taskCount   int
		maxCapacity int
		want        int
	}{
		{"empty", 0, 8, 0},
		{"half", 4, 8, 50},
		{"rounds half up", 1, 8, 13},
		{"thirds down", 1, 3, 33},
		{"thirds up", 2, 3, 67},
		{"full", 8, 8, 100},
		{"over allocated is capped", 12, 8, 100},
		{"no capacity", 0, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percent(tt.taskCount, tt.maxCapacity))
		})
	}
}

func TestTierOf_Boundaries(t *testing.T) {
	assert.Equal(t, TierComfortable, TierOf(0))
	assert.Equal(t, TierComfortable, TierOf(59))
	assert.Equal(t, TierModerate, TierOf(60))
	assert.Equal(t, TierModerate, TierOf(79))
	assert.Equal(t, TierHeavy, TierOf(80))
	assert.Equal(t, TierHeavy, TierOf(100))
}

func TestIsAvailable(t *testing.T) {
	assert.True(t, IsAvailable(7, 8))
	assert.False(t, IsAvailable(8, 8))
	assert.False(t, IsAvailable(9, 8))
	assert.False(t, IsAvailable(0, 0))
}
