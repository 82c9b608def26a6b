package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/drummonds/pdfcover/database"
)

// Schedule runs a batch immediately and then on every tick of spec until ctx is
// done. A tick that arrives while a batch is still running is skipped.
func Schedule(ctx context.Context, spec string, c *Controller) error {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(Logger.Handler(), slog.LevelInfo))
	cr := cron.New(cron.WithLogger(cronLogger))

	var batchJob cron.Job
	batchJob = cron.FuncJob(func() { c.scheduledRun(ctx) })
	batchJob = cron.NewChain(cron.SkipIfStillRunning(cronLogger)).Then(batchJob) //ensure we don't kick off another if old one is still running
	if _, err := cr.AddJob(spec, batchJob); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	Logger.Info("Running batch at startup")
	c.scheduledRun(ctx)

	Logger.Info("Adding batch scheduler", "schedule", spec)
	cr.Start()
	<-ctx.Done()
	Logger.Info("Stopping scheduler, waiting for a running batch to finish")
	<-cr.Stop().Done()
	return nil
}

// scheduledRun keeps the schedule alive when a batch fails or panics
func (c *Controller) scheduledRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in scheduled batch", "panic", r)
		}
	}()
	if ctx.Err() != nil {
		return
	}
	if _, err := c.run(ctx, database.JobTypeScheduled); err != nil {
		Logger.Error("Scheduled batch failed", "error", err)
	}
}
