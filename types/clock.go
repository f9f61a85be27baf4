package types

import (
	"sync"
	"time"
)

// Clock supplies the current time. Engines take a Clock so tests can drive
// aggregation windows and day boundaries by hand.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now implements Clock.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Calendar maps wall-clock time onto simulated day indexes.
// Day 0 starts at Epoch and every day lasts DayLength.
type Calendar struct {
	Epoch     time.Time     `json:"epoch"      toml:"epoch"`
	DayLength time.Duration `json:"day_length" toml:"day_length"`
}

// DefaultCalendar starts day 0 at the Unix epoch with 24h days.
func DefaultCalendar() Calendar {
	return Calendar{Epoch: time.Unix(0, 0).UTC(), DayLength: 24 * time.Hour}
}

// Day returns the day index containing t. Times before Epoch map to day 0.
func (c Calendar) Day(t time.Time) int {
	length := c.DayLength
	if length <= 0 {
		length = 24 * time.Hour
	}
	elapsed := t.Sub(c.Epoch)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / length)
}

// DayStart returns the first instant of day.
func (c Calendar) DayStart(day int) time.Time {
	length := c.DayLength
	if length <= 0 {
		length = 24 * time.Hour
	}
	return c.Epoch.Add(time.Duration(day) * length)
}
