package supercycler

import "time"

// Mode selects how the daily light duration is chosen.
type Mode string

const (
	// ModeAuto applies the daily photoperiod decay curve.
	ModeAuto Mode = "AUTO"
	// ModeManual pins the duration to the configured initial hours.
	ModeManual Mode = "MANUAL"
)

// Phase is the relay state of the plug.
type Phase string

const (
	PhaseOn      Phase = "ON"
	PhaseOff     Phase = "OFF"
	PhaseUnknown Phase = "UNKNOWN"
)

// Valid reports whether p is a commandable phase (ON or OFF).
func (p Phase) Valid() bool {
	return p == PhaseOn || p == PhaseOff
}

// CycleState is the persisted snapshot of the photoperiod cycle.
// A single row (id=1), owned exclusively by the cycle controller:
// overwritten after every acknowledged command, never deleted.
type CycleState struct {
	ID              int       `json:"id"`
	Enabled         bool      `json:"enabled"`
	LastAppliedDate time.Time `json:"last_applied_date,omitempty"` // date-only, zero until first command
	DurationMinutes int       `json:"duration_minutes"`
	LastPhase       Phase     `json:"last_phase"` // ON | OFF | UNKNOWN
	FloweringDay    int       `json:"flowering_day"`
	FloweringWeek   int       `json:"flowering_week"`
	LastError       string    `json:"last_error,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DayPlan is the computed light window for one calendar day.
// Derived on every pass, never persisted. LightOff may fall on the
// next calendar day when the duration crosses midnight.
type DayPlan struct {
	Date            time.Time `json:"date"`
	LightOn         time.Time `json:"light_on"`
	LightOff        time.Time `json:"light_off"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Contains reports whether t falls inside the light window [on, off).
func (p DayPlan) Contains(t time.Time) bool {
	return !t.Before(p.LightOn) && t.Before(p.LightOff)
}

// CommandResult is the transient outcome of one device command.
type CommandResult struct {
	IssuedPhase Phase     `json:"issued_phase"`
	Timestamp   time.Time `json:"timestamp"`
	Success     bool      `json:"success"`
	ErrorDetail string    `json:"error_detail,omitempty"`
}

// Event log entry types.
const (
	EventStart      = "START"
	EventStop       = "STOP"
	EventCommand    = "COMMAND"
	EventModeChange = "MODE_CHANGE"
	EventAnomaly    = "ANOMALY"
	EventError      = "ERROR"
)

// CycleEvent is a single append-only log entry.
type CycleEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // START | STOP | COMMAND | MODE_CHANGE | ANOMALY | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// Status is the read model served to the front end.
type Status struct {
	Enabled         bool      `json:"enabled"`
	Mode            Mode      `json:"mode"`
	CurrentPhase    Phase     `json:"current_phase"`
	DurationMinutes int       `json:"duration_minutes"`
	LightOn         time.Time `json:"light_on"`
	LightOff        time.Time `json:"light_off"`
	FloweringDay    int       `json:"flowering_day"`
	FloweringWeek   int       `json:"flowering_week"`
	LastError       string    `json:"last_error,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never expose the hash
}
