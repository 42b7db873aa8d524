package jobs

import (
	"context"
	"log/slog"
	"time"

	"mensajero/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultArchiveSchedule runs reconciliation every 30 seconds.
const DefaultArchiveSchedule = "*/30 * * * * *"

const archiveRunTimeout = time.Minute

// ArchiveReconciliationJob archives Delivered orders left unarchived.
type ArchiveReconciliationJob struct {
	handler  commands.ArchivePendingOrdersCommandHandler
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewArchiveReconciliationJob(
	handler commands.ArchivePendingOrdersCommandHandler,
	schedule string,
	logger *slog.Logger,
) *ArchiveReconciliationJob {
	if schedule == "" {
		schedule = DefaultArchiveSchedule
	}

	return &ArchiveReconciliationJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With("component", "archive_reconciliation_job"),
	}
}

func (j *ArchiveReconciliationJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Archive reconciliation job started", "schedule", j.schedule)
	return nil
}

// RunOnce archives one batch and returns how many orders were archived.
func (j *ArchiveReconciliationJob) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, archiveRunTimeout)
	defer cancel()

	cmd, err := commands.NewArchivePendingOrdersCommand(commands.DefaultArchiveBatchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Archive reconciliation job failed", "error", err)
		return 0
	}

	archived, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Archive reconciliation job failed", "archived", archived, "error", err)
	} else if archived > 0 {
		j.logger.InfoContext(ctx, "Archived pending orders", "archived", archived)
	}

	return archived
}

// Stop waits for a running reconciliation to finish.
func (j *ArchiveReconciliationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Archive reconciliation job stopped")
}
