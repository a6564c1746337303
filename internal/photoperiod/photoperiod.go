// Package photoperiod holds the pure scheduling math: the daily decay
// curve, the per-day light window and the flowering counters. Nothing
// here touches the clock, the network or storage.
package photoperiod

import (
	"math"
	"time"

	"supercycler"
)

// Settings are the validated photoperiod parameters for one pass.
type Settings struct {
	Mode           supercycler.Mode
	InitialMinutes int
	MinMinutes     int
	DecayPerDay    int       // minutes removed per elapsed day
	OnHour         int       // light-on wall-clock anchor
	OnMinute       int
	FloweringStart time.Time // local midnight of the flowering start date
}

// Minutes converts a configured hour value to whole minutes.
func Minutes(hours float64) int {
	return int(math.Round(hours * 60))
}

// Duration returns the target light-on minutes for the given day index.
// Day 0 is the flowering start date. AUTO follows the decay curve down
// to the floor; MANUAL ignores the curve entirely. Non-increasing in
// dayIndex and never below MinMinutes.
func Duration(dayIndex int, s Settings) int {
	if s.Mode == supercycler.ModeManual {
		return s.InitialMinutes
	}
	d := s.InitialMinutes - s.DecayPerDay*dayIndex
	if d < s.MinMinutes {
		return s.MinMinutes
	}
	return d
}

// PlanFor builds the light window for the calendar day containing today.
// The off time is on time plus duration and may roll into the next day.
func PlanFor(today time.Time, s Settings, durationMinutes int) supercycler.DayPlan {
	date := DateOf(today)
	on := time.Date(date.Year(), date.Month(), date.Day(), s.OnHour, s.OnMinute, 0, 0, date.Location())
	return supercycler.DayPlan{
		Date:            date,
		LightOn:         on,
		LightOff:        on.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
	}
}

// Flowering returns the day and week counters for today. Both are
// recomputed from the date difference on every call, never accumulated,
// so restarts after downtime reconcile instead of drifting. Before the
// start date both are 0.
func Flowering(today, start time.Time) (day, week int) {
	day = DaysBetween(start, today)
	if day < 0 {
		day = 0
	}
	return day, day / 7
}

// PhaseAt returns the relay phase the plug should be in at now. ON when
// now falls inside today's light window, or inside yesterday's window
// when that window rolled past midnight.
func PhaseAt(now time.Time, s Settings) supercycler.Phase {
	today := DateOf(now)
	dayIdx, _ := Flowering(today, s.FloweringStart)
	if PlanFor(today, s, Duration(dayIdx, s)).Contains(now) {
		return supercycler.PhaseOn
	}

	yesterday := today.AddDate(0, 0, -1)
	yIdx, _ := Flowering(yesterday, s.FloweringStart)
	if PlanFor(yesterday, s, Duration(yIdx, s)).Contains(now) {
		return supercycler.PhaseOn
	}
	return supercycler.PhaseOff
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b (negative when b is
// earlier). Rounding absorbs DST shifts around the day boundary.
func DaysBetween(a, b time.Time) int {
	diff := DateOf(b).Sub(DateOf(a))
	return int(diff.Round(24*time.Hour) / (24 * time.Hour))
}
