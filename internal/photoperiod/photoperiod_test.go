package photoperiod

import (
	"testing"
	"time"

	"supercycler"
)

func day0() time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
}

func autoSettings() Settings {
	return Settings{
		Mode:           supercycler.ModeAuto,
		InitialMinutes: 18 * 60,
		MinMinutes:     12 * 60,
		DecayPerDay:    30,
		OnHour:         6,
		OnMinute:       0,
		FloweringStart: day0(),
	}
}

func TestDuration_DecayCurve(t *testing.T) {
	s := autoSettings()

	cases := []struct {
		name     string
		dayIndex int
		want     int
	}{
		{"start_date", 0, 1080},
		{"day_5", 5, 930},
		{"floor_reached", 12, 720},
		{"held_at_floor", 13, 720},
		{"far_past_floor", 400, 720},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Duration(tc.dayIndex, s); got != tc.want {
				t.Fatalf("Duration(%d) = %d, want %d", tc.dayIndex, got, tc.want)
			}
		})
	}
}

func TestDuration_NonIncreasingAndFloored(t *testing.T) {
	s := autoSettings()
	prev := Duration(0, s)
	for i := 1; i <= 365; i++ {
		d := Duration(i, s)
		if d > prev {
			t.Fatalf("duration increased at day %d: %d -> %d", i, prev, d)
		}
		if d < s.MinMinutes {
			t.Fatalf("duration %d below floor %d at day %d", d, s.MinMinutes, i)
		}
		prev = d
	}
}

func TestDuration_ManualIgnoresDecay(t *testing.T) {
	s := autoSettings()
	s.Mode = supercycler.ModeManual
	for _, idx := range []int{0, 5, 50, 500} {
		if got := Duration(idx, s); got != s.InitialMinutes {
			t.Fatalf("manual Duration(%d) = %d, want %d", idx, got, s.InitialMinutes)
		}
	}
}

func TestPlanFor_OffEqualsOnPlusDuration(t *testing.T) {
	s := autoSettings()
	today := day0().AddDate(0, 0, 3)
	plan := PlanFor(today, s, 990)

	wantOn := time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC)
	if !plan.LightOn.Equal(wantOn) {
		t.Fatalf("light on = %v, want %v", plan.LightOn, wantOn)
	}
	if !plan.LightOff.Equal(plan.LightOn.Add(990 * time.Minute)) {
		t.Fatalf("light off = %v, want on + duration", plan.LightOff)
	}
}

func TestPlanFor_RollsPastMidnight(t *testing.T) {
	s := autoSettings()
	s.OnHour = 20
	plan := PlanFor(day0(), s, 10*60)

	if plan.LightOff.Day() == plan.LightOn.Day() {
		t.Fatalf("expected off time on the next calendar day, got %v", plan.LightOff)
	}
	wantOff := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	if !plan.LightOff.Equal(wantOff) {
		t.Fatalf("light off = %v, want %v", plan.LightOff, wantOff)
	}
}

func TestFlowering_Counts(t *testing.T) {
	start := day0()
	cases := []struct {
		name     string
		today    time.Time
		wantDay  int
		wantWeek int
	}{
		{"on_start_date", start, 0, 0},
		{"six_days_in", start.AddDate(0, 0, 6), 6, 0},
		{"one_week", start.AddDate(0, 0, 7), 7, 1},
		{"mid_second_week", start.AddDate(0, 0, 10), 10, 1},
		{"start_in_future", start.AddDate(0, 0, -3), 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			day, week := Flowering(tc.today, start)
			if day != tc.wantDay || week != tc.wantWeek {
				t.Fatalf("Flowering() = (%d, %d), want (%d, %d)", day, week, tc.wantDay, tc.wantWeek)
			}
		})
	}
}

func TestFlowering_Idempotent(t *testing.T) {
	start := day0()
	today := start.AddDate(0, 0, 23)
	d1, w1 := Flowering(today, start)
	d2, w2 := Flowering(today, start)
	if d1 != d2 || w1 != w2 {
		t.Fatalf("repeated calls diverged: (%d,%d) vs (%d,%d)", d1, w1, d2, w2)
	}
}

func TestPhaseAt(t *testing.T) {
	s := autoSettings()
	inWindow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := PhaseAt(inWindow, s); got != supercycler.PhaseOn {
		t.Fatalf("midday phase = %s, want ON", got)
	}
	// Day 0 window is 06:00-24:00 (18h); 05:00 is before it and outside
	// any rolled-over window from the pre-flowering day.
	beforeWindow := time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)
	if got := PhaseAt(beforeWindow, s); got != supercycler.PhaseOff {
		t.Fatalf("early morning phase = %s, want OFF", got)
	}
}

func TestPhaseAt_YesterdayWindowRollsOver(t *testing.T) {
	s := autoSettings()
	s.OnHour = 20
	s.InitialMinutes = 12 * 60 // 20:00-08:00 window

	// 02:00 on day 1: inside day 0's window that crossed midnight.
	lateNight := time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)
	if got := PhaseAt(lateNight, s); got != supercycler.PhaseOn {
		t.Fatalf("rollover phase = %s, want ON", got)
	}
	// 10:00 on day 1: both windows closed.
	morning := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	if got := PhaseAt(morning, s); got != supercycler.PhaseOff {
		t.Fatalf("post-window phase = %s, want OFF", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	b := time.Date(2026, 3, 2, 0, 10, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 1 {
		t.Fatalf("DaysBetween across midnight = %d, want 1", got)
	}
	if got := DaysBetween(b, a); got != -1 {
		t.Fatalf("reverse DaysBetween = %d, want -1", got)
	}
}
