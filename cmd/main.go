package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supercycler/internal/config"
	"supercycler/internal/device"
	"supercycler/internal/handlers"
	"supercycler/internal/logger"
	"supercycler/internal/repository"
	"supercycler/internal/repository/db"
	"supercycler/internal/server"
	"supercycler/internal/service"
)

const configDir = "configs"

func main() {
	log := logger.Get(logger.InfoLevel)

	store, err := config.Load(configDir, log)
	if err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	cfg := store.Snapshot()

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	commander, closeCommander, err := buildCommander(cfg, log)
	if err != nil {
		log.Fatalw("failed to init device commander", "err", err)
	}
	defer closeCommander()

	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, commander, store, service.NewClock(), log)
	apiHandler := handlers.NewHandler(services, log)

	runner, err := service.NewRunner(services.Cycle, cfg.Cycle.Tick, log)
	if err != nil {
		log.Fatalw("failed to init cycle runner", "err", err)
	}
	runner.Start()

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(runner, srv, log)
}

// buildCommander picks the device transport from config and wraps it
// with bounded retries.
func buildCommander(cfg config.Config, log *logger.Logger) (device.Commander, func(), error) {
	var (
		base    device.Commander
		cleanup = func() {}
	)
	switch cfg.Device.Transport {
	case config.TransportMQTT:
		m := cfg.Device.MQTT
		mq, err := device.NewMQTTCommander(m.Broker, m.Topic, m.ClientID, cfg.Device.Timeout)
		if err != nil {
			return nil, nil, err
		}
		base = mq
		cleanup = mq.Close
	default:
		base = device.NewTasmotaClient(cfg.Device.Address, cfg.Device.Port, &http.Client{
			Timeout: cfg.Device.Timeout,
		})
	}

	r := cfg.Device.Retry
	return device.NewRetrier(base, r.MaxAttempts, r.InitialBackoff, r.MaxBackoff, log), cleanup, nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && err != http.ErrServerClosed {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(runner *service.Runner, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop ticking; waits for an in-flight pass to finish
	runner.Stop()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
