// Package capacity maps team member workload to a percentage and a tier.
package capacity

type Tier string

const (
	TierComfortable Tier = "comfortable"
	TierModerate    Tier = "moderate"
	TierHeavy       Tier = "heavy"
)

const (
	moderateThreshold = 60
	heavyThreshold    = 80
)

// RoundPercent returns part/whole*100 rounded half-up. whole must be positive.
func RoundPercent(part, whole int) int {
	return (200*part + whole) / (2 * whole)
}

// Percent is min(round(taskCount/maxCapacity*100), 100). A member without any
// capacity is reported as fully loaded.
func Percent(taskCount, maxCapacity int) int {
	if maxCapacity <= 0 {
		return 100
	}
	if taskCount <= 0 {
		return 0
	}

	return min(RoundPercent(taskCount, maxCapacity), 100)
}

func TierOf(percent int) Tier {
	switch {
	case percent >= heavyThreshold:
		return TierHeavy
	case percent >= moderateThreshold:
		return TierModerate
	default:
		return TierComfortable
	}
}

// IsAvailable reports whether one more task may be assigned. A member exactly
// at capacity is not available.
func IsAvailable(taskCount, maxCapacity int) bool {
	return taskCount < maxCapacity
}
