package service

import (
	"context"

	"supercycler"
	"supercycler/internal/config"
	"supercycler/internal/device"
	"supercycler/internal/logger"
	"supercycler/internal/photoperiod"
	"supercycler/internal/repository"
)

// Cycle exposes control over the photoperiod loop.
type Cycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Tick(ctx context.Context) error
	Override(ctx context.Context, phase supercycler.Phase) error
}

// Monitoring exposes the read-only status snapshot.
type Monitoring interface {
	Status(ctx context.Context) (supercycler.Status, error)
}

// EventLog exposes the append-only log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]supercycler.CycleEvent, error)
}

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Service aggregates all sub-services.
type Service struct {
	Cycle
	Monitoring
	EventLog
	Authorization
}

// NewService wires the repository layer, the device port and the clock
// into concrete services.
func NewService(repos *repository.Repository, cmd device.Commander, cfg *config.Store, clk Clock, log *logger.Logger) *Service {
	auth := cfg.Snapshot().Auth
	return &Service{
		Cycle:         NewCycleService(repos.State, repos.Events, cmd, cfg, clk, log),
		Monitoring:    NewMonitoringService(repos.State, cfg, clk),
		EventLog:      NewEventLogService(repos.Events),
		Authorization: NewAuthService(repos.Users, auth.SigningKey, auth.TokenTTL),
	}
}

// settings maps one config snapshot onto the pure photoperiod parameters.
func settings(cfg config.Config) photoperiod.Settings {
	onHour, onMinute := cfg.LightOn()
	return photoperiod.Settings{
		Mode:           cfg.Mode(),
		InitialMinutes: photoperiod.Minutes(cfg.Cycle.InitialLightHours),
		MinMinutes:     photoperiod.Minutes(cfg.Cycle.MinLightHours),
		DecayPerDay:    cfg.Cycle.DecayMinutesPerDay,
		OnHour:         onHour,
		OnMinute:       onMinute,
		FloweringStart: cfg.FloweringStart(),
	}
}
