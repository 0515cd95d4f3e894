package app

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-co-op/gocron/v2"

	"github.com/riskibarqy/domatch/internal/platform/logging"
	"github.com/riskibarqy/domatch/internal/usecase"
)

type integrationProcessor interface {
	ProcessDue(ctx context.Context) (usecase.ProcessReport, error)
}

// StartIntegrationRetries runs processor every interval until ctx is done or
// the returned scheduler is shut down. Overlapping runs are rescheduled.
func StartIntegrationRetries(ctx context.Context, interval time.Duration, processor integrationProcessor, logger *logging.Logger) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("integration retry interval must be positive")
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("integration-retry")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, "create scheduler")
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			report, err := processor.ProcessDue(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "process integration tasks failed", "error", err)
				return
			}
			if report.Claimed > 0 {
				logger.InfoContext(ctx, "integration tasks processed",
					"claimed", report.Claimed,
					"done", report.Done,
					"retrying", report.Retrying,
					"abandoned", report.Abandoned,
				)
			}
		}),
		gocron.WithName("integration-retry"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, errors.Wrap(err, "schedule integration retries")
	}

	sched.Start()
	logger.Info("integration retry scheduler started", "interval", interval.String())
	return sched, nil
}
