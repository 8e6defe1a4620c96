package scoring

// Health statuses, from best to worst.
const (
	HealthExcellent = "excellent"
	HealthGood      = "good"
	HealthAttention = "attention"
	HealthCritical  = "critical"
)

const healthBaseline = 50

// Signals are the weak indicators a health score is derived from.
type Signals struct {
	StreakDays        int `json:"streak_days" yaml:"streak_days" validate:"gte=0"`
	WeeklyCompletions int `json:"weekly_completions" yaml:"weekly_completions" validate:"gte=0"`
	PendingActions    int `json:"pending_actions" yaml:"pending_actions" validate:"gte=0"`
	WeakSkills        int `json:"weak_skills" yaml:"weak_skills" validate:"gte=0"`
	WeeklyXP          int `json:"weekly_xp" yaml:"weekly_xp" validate:"gte=0"`
}

// HealthScore is a pure function of the signals, clamped to [0,100].
func HealthScore(s Signals) int {
	score := healthBaseline

	switch {
	case s.StreakDays >= 7:
		score += 20
	case s.StreakDays >= 3:
		score += 10
	case s.StreakDays >= 1:
		score += 5
	default:
		score -= 10
	}

	switch {
	case s.WeeklyCompletions >= 5:
		score += 20
	case s.WeeklyCompletions >= 3:
		score += 10
	case s.WeeklyCompletions >= 1:
		score += 5
	default:
		score -= 10
	}

	switch {
	case s.PendingActions >= 5:
		score -= 20
	case s.PendingActions >= 3:
		score -= 10
	case s.PendingActions >= 1:
		score -= 5
	}

	switch {
	case s.WeakSkills >= 5:
		score -= 10
	case s.WeakSkills >= 3:
		score -= 5
	}

	switch {
	case s.WeeklyXP >= 500:
		score += 10
	case s.WeeklyXP >= 200:
		score += 5
	}

	return clamp(score, 0, 100)
}

// HealthStatus buckets a score.
func HealthStatus(score int) string {
	switch {
	case score >= 80:
		return HealthExcellent
	case score >= 60:
		return HealthGood
	case score >= 40:
		return HealthAttention
	default:
		return HealthCritical
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
