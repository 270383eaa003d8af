// Package engine provides the day-clock simulation loop.
package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// Clock schedule. Times are HHMM with hours running past midnight (2600 is
// 2:00 the next morning).
const (
	DayStartTime   = 600
	DayEndTime     = 2600
	MinutesPerStep = 10
)

// Engine drives the day clock forward.
type Engine struct {
	Day      int           // Current day (0 before the first day starts)
	Time     int           // Current time of day
	Interval time.Duration // Real time per clock step, 0 runs flat out
	Running  bool

	// EndTime is when the day closes regardless of who is still up.
	EndTime int

	// Callbacks, populated during setup.
	OnDayStarted func(day int)
	OnTime       func(day, timeOfDay int) // Every clock step
	OnDayEnding  func(day, timeOfDay int)

	// ReadyToSleep closes the day early when it returns true.
	ReadyToSleep func() bool
}

// NewEngine creates an engine with the default schedule.
func NewEngine() *Engine {
	return &Engine{
		EndTime: DayEndTime,
	}
}

// Run plays the given number of days. Stop ends it after the current step.
func (e *Engine) Run(days int) {
	e.Running = true
	slog.Info("simulation engine started", "day", e.Day, "days", days)

	for i := 0; i < days && e.Running; i++ {
		e.RunDay()
	}

	e.Running = false
	slog.Info("simulation engine stopped", "day", e.Day)
}

// Stop halts the loop.
func (e *Engine) Stop() {
	e.Running = false
}

// RunDay plays one full day: start, clock steps until everyone sleeps or
// EndTime, then the day-ending callback.
func (e *Engine) RunDay() {
	e.Day++
	e.Time = DayStartTime
	if e.OnDayStarted != nil {
		e.OnDayStarted(e.Day)
	}

	for {
		start := time.Now()

		if e.OnTime != nil {
			e.OnTime(e.Day, e.Time)
		}
		if e.Time >= e.EndTime || (e.ReadyToSleep != nil && e.ReadyToSleep()) {
			break
		}
		e.Time = Advance(e.Time, MinutesPerStep)

		if e.Interval > 0 {
			if elapsed := time.Since(start); elapsed < e.Interval {
				time.Sleep(e.Interval - elapsed)
			}
		}
	}

	if e.OnDayEnding != nil {
		e.OnDayEnding(e.Day, e.Time)
	}
}

// Advance adds minutes to an HHMM time, carrying into the hour.
func Advance(timeOfDay, minutes int) int {
	total := (timeOfDay/100)*60 + timeOfDay%100 + minutes
	return (total/60)*100 + total%60
}

// ClockTime returns a human-readable time string.
func ClockTime(day, timeOfDay int) string {
	hour := (timeOfDay / 100) % 24
	minute := timeOfDay % 100
	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("Day %d, %d:%02d%s", day, h12, minute, suffix)
}
