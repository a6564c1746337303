package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"supercycler/internal/logger"
)

// Runner drives the cycle controller on a fixed period. SkipIfStillRunning
// guarantees a tick completes before the next one begins; a slow device
// call can delay ticks but never overlap them.
type Runner struct {
	cron *cron.Cron
	log  *logger.Logger
}

func NewRunner(cycle Cycle, tick time.Duration, log *logger.Logger) (*Runner, error) {
	cl := cronLogger{log: log}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cl)))

	_, err := c.AddFunc(fmt.Sprintf("@every %s", tick), func() {
		// The tick itself is the budget: device retries and the state
		// save must fit before the next pass is due.
		ctx, cancel := context.WithTimeout(context.Background(), tick)
		defer cancel()
		if err := cycle.Tick(ctx); err != nil {
			log.Warnw("tick finished with error", "err", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule tick every %s: %w", tick, err)
	}

	return &Runner{cron: c, log: log}, nil
}

// Start begins ticking in the background.
func (r *Runner) Start() {
	r.log.Infow("cycle runner started")
	r.cron.Start()
}

// Stop halts scheduling and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.log.Infow("cycle runner stopped")
}

// cronLogger adapts the zap sugared logger to cron's Logger interface.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.log.Debugw("cron: "+msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.log.Errorw("cron: "+msg, append(kv, "err", err)...)
}
