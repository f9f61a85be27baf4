package types

import (
	"testing"
	"time"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now: got %v, want %v", c.Now(), start)
	}

	c.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !c.Now().Equal(want) {
		t.Errorf("after Advance: got %v, want %v", c.Now(), want)
	}

	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("after Set: got %v, want %v", c.Now(), start)
	}
}

func TestCalendarDay(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cal := Calendar{Epoch: epoch, DayLength: time.Hour}

	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"epoch", epoch, 0},
		{"before epoch", epoch.Add(-time.Minute), 0},
		{"end of day 0", epoch.Add(59 * time.Minute), 0},
		{"start of day 1", epoch.Add(time.Hour), 1},
		{"day 5", epoch.Add(5*time.Hour + time.Second), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.Day(tt.at); got != tt.want {
				t.Errorf("Day: got %d, want %d", got, tt.want)
			}
		})
	}

	if got, want := cal.DayStart(3), epoch.Add(3*time.Hour); !got.Equal(want) {
		t.Errorf("DayStart(3): got %v, want %v", got, want)
	}
}

func TestCalendarZeroDayLength(t *testing.T) {
	cal := Calendar{Epoch: time.Unix(0, 0).UTC()}
	if got := cal.Day(time.Unix(0, 0).UTC().Add(49 * time.Hour)); got != 2 {
		t.Errorf("Day with zero DayLength: got %d, want 2", got)
	}
}
