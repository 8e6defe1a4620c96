// Package scoring holds the pure arithmetic behind progress, multipliers,
// health scores and payouts. Nothing here touches storage.
package scoring

import "math"

// LargeSwingRatio is the share of the target above which a single change is flagged.
const LargeSwingRatio = 0.5

// PercentComplete returns min(100, round(current/target*100)), or 0 when target <= 0.
// Negative current values count as 0.
func PercentComplete(current, target float64) int {
	if target <= 0 || math.IsNaN(target) || math.IsNaN(current) {
		return 0
	}
	if current < 0 {
		current = 0
	}

	pct := math.Round(current / target * 100)
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// IsLargeSwing reports whether |change| exceeds half of the target.
func IsLargeSwing(change, target float64) bool {
	if target <= 0 {
		return false
	}
	return math.Abs(change) > LargeSwingRatio*target
}
