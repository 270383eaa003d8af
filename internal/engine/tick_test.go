package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	assert.Equal(t, 610, Advance(600, 10))
	assert.Equal(t, 700, Advance(650, 10))
	assert.Equal(t, 2600, Advance(2550, 10))
	assert.Equal(t, 830, Advance(600, 150))
}

func TestClockTime(t *testing.T) {
	assert.Equal(t, "Day 1, 6:00am", ClockTime(1, 600))
	assert.Equal(t, "Day 2, 1:30pm", ClockTime(2, 1330))
	assert.Equal(t, "Day 3, 12:00am", ClockTime(3, 2400))
	assert.Equal(t, "Day 3, 2:00am", ClockTime(3, 2600))
}

func TestRunDay_ClosesAtEndTime(t *testing.T) {
	e := NewEngine()
	var calls []string
	steps := 0
	e.OnDayStarted = func(day int) { calls = append(calls, "start") }
	e.OnTime = func(day, tod int) { steps++ }
	e.OnDayEnding = func(day, tod int) {
		calls = append(calls, "end")
		assert.Equal(t, DayEndTime, tod)
	}

	e.RunDay()
	assert.Equal(t, []string{"start", "end"}, calls)
	assert.Equal(t, 1, e.Day)
	// 6:00 through 2:00 inclusive in 10-minute steps.
	assert.Equal(t, 20*6+1, steps)
}

func TestRunDay_ReadyToSleepClosesEarly(t *testing.T) {
	e := NewEngine()
	var endedAt int
	e.ReadyToSleep = func() bool { return e.Time >= 2200 }
	e.OnDayEnding = func(day, tod int) { endedAt = tod }

	e.RunDay()
	assert.Equal(t, 2200, endedAt)
}

func TestRun_PlaysDays(t *testing.T) {
	e := NewEngine()
	var days []int
	e.OnDayStarted = func(day int) { days = append(days, day) }

	e.Run(3)
	assert.Equal(t, []int{1, 2, 3}, days)
	assert.False(t, e.Running)
}

func TestRun_Stop(t *testing.T) {
	e := NewEngine()
	e.OnDayEnding = func(day, tod int) {
		if day == 2 {
			e.Stop()
		}
	}
	e.Run(10)
	assert.Equal(t, 2, e.Day)
}
