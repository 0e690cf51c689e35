package services

import "testing"

func TestEffectiveDuration(t *testing.T) {
	tests := []struct {
		name     string
		reported float64
		stored   uint
		want     float64
	}{
		{"reported duration wins", 120.5, 600, 120.5},
		{"falls back to stored duration", 0, 600, 600},
		{"negative reported duration is ignored", -5, 600, 600},
		{"both missing defaults to one", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveDuration(tt.reported, tt.stored); got != tt.want {
				t.Errorf("EffectiveDuration(%v, %v) = %v, want %v", tt.reported, tt.stored, got, tt.want)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name     string
		watched  float64
		duration float64
		want     int
	}{
		{"zero watched", 0, 600, 0},
		{"halfway", 300, 600, 50},
		{"percent is floored not rounded", 599, 600, 99},
		{"full watch", 600, 600, 100},
		{"overshoot clamps to 100", 650, 600, 100},
		{"negative watched clamps to 0", -10, 600, 0},
		{"zero duration yields 0", 300, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressPercent(tt.watched, tt.duration); got != tt.want {
				t.Errorf("ProgressPercent(%v, %v) = %d, want %d", tt.watched, tt.duration, got, tt.want)
			}
		})
	}
}

// Plays reports out of order against a 600s video: watched time must only
// grow, and completion latches at the 95% threshold.
func TestApplyReportMonotonic(t *testing.T) {
	const duration = 600.0

	recorded, completed := applyReport(0, false, 300, duration)
	if recorded != 300 || completed {
		t.Fatalf("after 300s: recorded=%v completed=%v", recorded, completed)
	}

	// A seek backwards must not shrink recorded progress.
	recorded, completed = applyReport(recorded, completed, 200, duration)
	if recorded != 300 {
		t.Fatalf("backwards report shrank progress: recorded=%v", recorded)
	}

	recorded, completed = applyReport(recorded, completed, 590, duration)
	if recorded != 590 {
		t.Fatalf("after 590s: recorded=%v", recorded)
	}
	if !completed {
		t.Fatal("590s of 600s should cross the completion threshold")
	}
	if got := ProgressPercent(recorded, duration); got != 98 {
		t.Errorf("percent at 590/600 = %d, want 98", got)
	}

	// Completion never unlatches.
	recorded, completed = applyReport(recorded, completed, 100, duration)
	if !completed {
		t.Fatal("completion flag must not reset on a lower report")
	}
	if recorded != 590 {
		t.Fatalf("lower report changed watched time: recorded=%v", recorded)
	}
}

func TestApplyReportClampsNegative(t *testing.T) {
	recorded, completed := applyReport(120, false, -50, 600)
	if recorded != 120 || completed {
		t.Fatalf("negative report altered state: recorded=%v completed=%v", recorded, completed)
	}
}
