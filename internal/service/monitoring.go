package service

import (
	"context"

	"supercycler"
	"supercycler/internal/config"
	"supercycler/internal/photoperiod"
	"supercycler/internal/repository"
)

// MonitoringService builds the status read model from the persisted
// state plus a live computation of today's plan and counters.
type MonitoringService struct {
	stateRepo repository.StateRepo
	cfg       *config.Store
	clock     Clock
}

func NewMonitoringService(stateRepo repository.StateRepo, cfg *config.Store, clk Clock) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo, cfg: cfg, clock: clk}
}

// Status returns the current cycle snapshot. The plan and counters are
// recomputed from configuration so they are correct even before the
// first command of the day has been issued.
func (s *MonitoringService) Status(ctx context.Context) (supercycler.Status, error) {
	st, err := s.stateRepo.Load(ctx)
	if err != nil {
		return supercycler.Status{}, err
	}

	cfg := s.cfg.Snapshot()
	set := settings(cfg)
	today := photoperiod.DateOf(s.clock.Now())

	day, week := photoperiod.Flowering(today, set.FloweringStart)
	duration := photoperiod.Duration(day, set)
	plan := photoperiod.PlanFor(today, set, duration)

	phase := st.LastPhase
	if st.ID == 0 {
		phase = supercycler.PhaseUnknown
	}

	return supercycler.Status{
		Enabled:         st.Enabled,
		Mode:            set.Mode,
		CurrentPhase:    phase,
		DurationMinutes: duration,
		LightOn:         plan.LightOn,
		LightOff:        plan.LightOff,
		FloweringDay:    day,
		FloweringWeek:   week,
		LastError:       st.LastError,
		UpdatedAt:       st.UpdatedAt,
	}, nil
}
