package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"supercycler"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

var _ StateRepo = (*StateSQLite)(nil)

const (
	cycleStateRowID = 1

	layoutDate = "2006-01-02"

	upsertStateSQL = `
		INSERT INTO cycle_state (id, enabled, last_applied_date, duration_minutes, last_phase, flowering_day, flowering_week, last_error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enabled=excluded.enabled,
			last_applied_date=excluded.last_applied_date,
			duration_minutes=excluded.duration_minutes,
			last_phase=excluded.last_phase,
			flowering_day=excluded.flowering_day,
			flowering_week=excluded.flowering_week,
			last_error=excluded.last_error,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, enabled, last_applied_date, duration_minutes, last_phase, flowering_day, flowering_week, last_error, updated_at
		FROM cycle_state WHERE id=?
	`
)

// Save overwrites the cycle_state row (id always 1). The upsert runs in
// one sqlite transaction, so a crash can never leave a torn record.
func (r *StateSQLite) Save(ctx context.Context, state supercycler.CycleState) error {
	appliedStr := ""
	if !state.LastAppliedDate.IsZero() {
		appliedStr = state.LastAppliedDate.Format(layoutDate)
	}

	tsUTC := state.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertStateSQL,
		cycleStateRowID,
		state.Enabled,
		appliedStr,
		state.DurationMinutes,
		string(state.LastPhase),
		state.FloweringDay,
		state.FloweringWeek,
		state.LastError,
		tsUTC,
	)
	return err
}

// Load fetches the single cycle_state row. Returns a zero state
// (ID == 0) when nothing has been persisted yet.
func (r *StateSQLite) Load(ctx context.Context) (supercycler.CycleState, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, cycleStateRowID)

	var s supercycler.CycleState
	var appliedStr string
	var phaseStr string
	if err := row.Scan(
		&s.ID,
		&s.Enabled,
		&appliedStr,
		&s.DurationMinutes,
		&phaseStr,
		&s.FloweringDay,
		&s.FloweringWeek,
		&s.LastError,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return supercycler.CycleState{}, nil // first run
		}
		return supercycler.CycleState{}, err
	}

	s.LastPhase = supercycler.Phase(phaseStr)
	if appliedStr != "" {
		applied, err := time.ParseInLocation(layoutDate, appliedStr, time.Local)
		if err != nil {
			return supercycler.CycleState{}, err
		}
		s.LastAppliedDate = applied
	}
	s.UpdatedAt = s.UpdatedAt.UTC()

	return s, nil
}
