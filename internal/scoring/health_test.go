package scoring

import "testing"

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name       string
		signals    Signals
		wantScore  int
		wantStatus string
	}{
		{
			name:       "all idle",
			signals:    Signals{},
			wantScore:  30,
			wantStatus: HealthCritical,
		},
		{
			name:       "strong week",
			signals:    Signals{StreakDays: 7, WeeklyCompletions: 5, WeeklyXP: 500},
			wantScore:  100,
			wantStatus: HealthExcellent,
		},
		{
			name:       "moderate",
			signals:    Signals{StreakDays: 3, WeeklyCompletions: 1, PendingActions: 1, WeeklyXP: 200},
			wantScore:  65,
			wantStatus: HealthGood,
		},
		{
			name:       "backlog and weak skills",
			signals:    Signals{StreakDays: 1, WeeklyCompletions: 3, PendingActions: 3, WeakSkills: 3},
			wantScore:  50,
			wantStatus: HealthAttention,
		},
		{
			name:       "worst case floors at zero",
			signals:    Signals{PendingActions: 9, WeakSkills: 9},
			wantScore:  0,
			wantStatus: HealthCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := HealthScore(tt.signals)
			if score != tt.wantScore {
				t.Errorf("HealthScore(%+v) = %d, want %d", tt.signals, score, tt.wantScore)
			}
			if status := HealthStatus(score); status != tt.wantStatus {
				t.Errorf("HealthStatus(%d) = %q, want %q", score, status, tt.wantStatus)
			}
		})
	}
}

func TestHealthScoreBoundsOnExtremeSignals(t *testing.T) {
	extremes := []int{-1 << 31, -1, 0, 1, 2, 3, 4, 5, 6, 7, 199, 200, 499, 500, 10000, 1<<31 - 1}
	for _, a := range extremes {
		for _, b := range extremes {
			s := Signals{StreakDays: a, WeeklyCompletions: b, PendingActions: a, WeakSkills: b, WeeklyXP: a}
			score := HealthScore(s)
			if score < 0 || score > 100 {
				t.Fatalf("HealthScore(%+v) = %d out of bounds", s, score)
			}
			if again := HealthScore(s); again != score {
				t.Fatalf("HealthScore not deterministic: %d then %d", score, again)
			}
		}
	}
}

func TestHealthStatusThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, HealthExcellent},
		{80, HealthExcellent},
		{79, HealthGood},
		{60, HealthGood},
		{59, HealthAttention},
		{40, HealthAttention},
		{39, HealthCritical},
		{0, HealthCritical},
	}

	for _, tt := range tests {
		if got := HealthStatus(tt.score); got != tt.want {
			t.Errorf("HealthStatus(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
