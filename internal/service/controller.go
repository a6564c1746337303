package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"supercycler"
	"supercycler/internal/config"
	"supercycler/internal/device"
	"supercycler/internal/logger"
	"supercycler/internal/photoperiod"
	"supercycler/internal/repository"
)

var errInvalidPhase = errors.New("invalid phase: must be ON or OFF")

// CycleService is the photoperiod state machine. Each Tick runs one
// pass: reconcile persisted state, compute today's plan, and issue a
// device command only when the phase window or the calendar day
// changed. The in-memory state is authoritative for the lifetime of
// the process; a failed save is retried at the start of the next tick.
type CycleService struct {
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	commander device.Commander
	cfg       *config.Store
	clock     Clock
	log       *logger.Logger

	mu    sync.Mutex
	state *supercycler.CycleState
	dirty bool // state diverged from storage after a failed save
}

func NewCycleService(stateRepo repository.StateRepo, eventRepo repository.EventRepo, cmd device.Commander, cfg *config.Store, clk Clock, log *logger.Logger) *CycleService {
	return &CycleService{
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		commander: cmd,
		cfg:       cfg,
		clock:     clk,
		log:       log,
	}
}

// Start enables the scheduling loop and logs a START event.
func (s *CycleService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.ensureState(ctx)
	if err != nil {
		return err
	}
	st.Enabled = true
	st.UpdatedAt = s.clock.Now().UTC()
	if err := s.persist(ctx, st); err != nil {
		return err
	}
	s.appendEvent(ctx, supercycler.EventStart, "photoperiod cycle enabled", nil)
	return nil
}

// Stop disables the scheduling loop. The plug keeps its current phase;
// stopping only stops issuing new commands.
func (s *CycleService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.ensureState(ctx)
	if err != nil {
		return err
	}
	st.Enabled = false
	st.UpdatedAt = s.clock.Now().UTC()
	if err := s.persist(ctx, st); err != nil {
		return err
	}
	s.appendEvent(ctx, supercycler.EventStop, "photoperiod cycle disabled", nil)
	return nil
}

// Override issues a manual ON/OFF command outside the schedule. The
// next scheduled pass may command the plug back.
func (s *CycleService) Override(ctx context.Context, phase supercycler.Phase) error {
	if !phase.Valid() {
		return errInvalidPhase
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.ensureState(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.commander.Send(ctx, phase); err != nil {
		s.appendEvent(ctx, supercycler.EventError, "manual command failed", map[string]any{
			"phase":  phase,
			"reason": device.ReasonOf(err),
			"err":    err.Error(),
		})
		return err
	}

	st.LastPhase = phase
	st.LastError = ""
	st.UpdatedAt = now.UTC()
	if err := s.persist(ctx, st); err != nil {
		return err
	}
	s.appendEvent(ctx, supercycler.EventCommand, fmt.Sprintf("manual override: light %s", phase), map[string]any{
		"phase": phase,
		"mode":  supercycler.ModeManual,
	})
	return nil
}

// Tick runs one pass of the state machine. Device and storage failures
// are returned for visibility but never stop subsequent ticks.
func (s *CycleService) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.ensureState(ctx)
	if err != nil {
		return err
	}
	if s.dirty {
		if err := s.stateRepo.Save(ctx, *st); err != nil {
			return fmt.Errorf("retry persist cycle state: %w", err)
		}
		s.dirty = false
	}
	if !st.Enabled {
		return nil
	}

	cfg := s.cfg.Snapshot()
	set := settings(cfg)
	now := s.clock.Now()
	today := photoperiod.DateOf(now)

	// Backward clock jump: no decay, no command, no counter updates
	// until the clock catches up again.
	if !st.LastAppliedDate.IsZero() && today.Before(photoperiod.DateOf(st.LastAppliedDate)) {
		s.log.Warnw("clock moved backward; skipping tick",
			"today", today.Format("2006-01-02"),
			"last_applied", st.LastAppliedDate.Format("2006-01-02"))
		s.appendEvent(ctx, supercycler.EventAnomaly, "clock moved backward", map[string]any{
			"today":        today.Format("2006-01-02"),
			"last_applied": st.LastAppliedDate.Format("2006-01-02"),
		})
		return nil
	}

	day, week := photoperiod.Flowering(today, set.FloweringStart)
	duration := photoperiod.Duration(day, set)
	desired := photoperiod.PhaseAt(now, set)

	// Idempotence: inside an already-applied phase window there is
	// nothing to do and no device call is made.
	if sameDate(st.LastAppliedDate, today) && desired == st.LastPhase {
		return nil
	}

	if err := s.commander.Send(ctx, desired); err != nil {
		// State keeps the last acknowledged phase; only the warning
		// is recorded for the status surface.
		st.LastError = err.Error()
		st.UpdatedAt = now.UTC()
		if perr := s.persist(ctx, st); perr != nil {
			s.log.Errorw("persist warning state failed", "err", perr)
		}
		s.appendEvent(ctx, supercycler.EventError, "device command failed after retries", map[string]any{
			"phase":  desired,
			"reason": device.ReasonOf(err),
			"err":    err.Error(),
		})
		return err
	}

	st.LastPhase = desired
	st.LastAppliedDate = today
	st.DurationMinutes = duration
	st.FloweringDay = day
	st.FloweringWeek = week
	st.LastError = ""
	st.UpdatedAt = now.UTC()
	if err := s.persist(ctx, st); err != nil {
		// The command was acknowledged; the in-memory state carries it
		// until the save succeeds on a later tick.
		s.appendEvent(ctx, supercycler.EventError, "persist cycle state failed", map[string]any{
			"err": err.Error(),
		})
		return err
	}

	s.log.Infow("light command applied",
		"phase", desired, "duration_min", duration,
		"flowering_day", day, "flowering_week", week, "mode", set.Mode)
	s.appendEvent(ctx, supercycler.EventCommand, fmt.Sprintf("light %s", desired), map[string]any{
		"phase":         desired,
		"mode":          set.Mode,
		"duration_min":  duration,
		"flowering_day": day,
	})
	return nil
}

// ensureState lazily loads the persisted state, default-initializing it
// from configuration on first run.
func (s *CycleService) ensureState(ctx context.Context) (*supercycler.CycleState, error) {
	if s.state != nil {
		return s.state, nil
	}

	st, err := s.stateRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cycle state: %w", err)
	}
	if st.ID == 0 {
		set := settings(s.cfg.Snapshot())
		st = supercycler.CycleState{
			ID:              1,
			Enabled:         false,
			DurationMinutes: set.InitialMinutes,
			LastPhase:       supercycler.PhaseUnknown,
			UpdatedAt:       s.clock.Now().UTC(),
		}
		if err := s.stateRepo.Save(ctx, st); err != nil {
			// Keep the defaults in memory; persistence is retried.
			s.dirty = true
			s.log.Warnw("persist initial cycle state failed", "err", err)
		}
	}
	s.state = &st
	return s.state, nil
}

// persist saves the state and marks it dirty on failure so the next
// tick retries instead of losing the in-memory record.
func (s *CycleService) persist(ctx context.Context, st *supercycler.CycleState) error {
	if err := s.stateRepo.Save(ctx, *st); err != nil {
		s.dirty = true
		return fmt.Errorf("persist cycle state: %w", err)
	}
	s.dirty = false
	return nil
}

// appendEvent logs to the event repo best-effort; the control loop
// must not fail because the log write did.
func (s *CycleService) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	var m any
	if meta != nil {
		m = meta
	}
	err := s.eventRepo.Append(ctx, supercycler.CycleEvent{
		OccurredAt:  s.clock.Now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    m,
	})
	if err != nil && s.log != nil {
		s.log.Warnw("append cycle event failed", "type", typ, "err", err)
	}
}

func sameDate(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
