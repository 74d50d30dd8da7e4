package scheduler

import (
	"context"
	"log"
	"time"

	"billvault/internal/app"
	"billvault/internal/domain/billing"
	"billvault/internal/infra/auth"

	"github.com/robfig/cron/v3"
)

// KeeperScheduler drives the engine's automation sweep on a cron schedule,
// acting with the admin identity (the keeper role).
type KeeperScheduler struct {
	cronEngine *cron.Cron
	engine     *app.Engine
	admin      billing.Identity
	logger     *log.Logger
	cronSpec   string // e.g. "0 6 * * *" (06:00 daily)
}

func NewKeeperScheduler(
	engine *app.Engine,
	admin billing.Identity,
	logger *log.Logger,
	cronSpec string,
) *KeeperScheduler {
	return &KeeperScheduler{
		cronEngine: cron.New(cron.WithLocation(time.UTC)), // Engine calendar math is UTC; keep the schedule aligned.
		engine:     engine,
		admin:      admin,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *KeeperScheduler) Start() {
	s.logger.Println("INFO: Starting keeper scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Println("INFO: Cron job triggered for keeper sweep.")
		s.runSweep()
	})
	if err != nil {
		s.logger.Fatalf("FATAL: Could not add keeper sweep cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Println("INFO: Keeper scheduler started.")
}

func (s *KeeperScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = auth.WithActor(ctx, s.admin)

	report, err := s.engine.KeeperSweep(ctx)
	if err != nil {
		s.logger.Printf("ERROR: Keeper sweep failed: %v", err)
		return
	}

	s.logger.Printf("INFO: Keeper sweep finished. Cycles ended: %d, bills paid: %d, failures: %d",
		report.CyclesEnded, report.BillsPaid, len(report.Errors))
	for _, itemErr := range report.Errors {
		s.logger.Printf("ERROR: Keeper sweep item failed: %v", itemErr)
	}
}

func (s *KeeperScheduler) Stop() {
	s.logger.Println("INFO: Stopping keeper scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Println("INFO: Keeper scheduler gracefully stopped.")
}
