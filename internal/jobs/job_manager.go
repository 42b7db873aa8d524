package jobs

import (
	"fmt"
	"log/slog"

	"mensajero/internal/core/application/usecases/commands"
)

// JobManager owns every scheduled job of the service.
type JobManager struct {
	archiveReconciliationJob *ArchiveReconciliationJob
}

func NewJobManager(
	archivePendingHandler commands.ArchivePendingOrdersCommandHandler,
	archiveSchedule string,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		archiveReconciliationJob: NewArchiveReconciliationJob(archivePendingHandler, archiveSchedule, logger),
	}
}

func (jm *JobManager) StartAll() error {
	if err := jm.archiveReconciliationJob.Start(); err != nil {
		return fmt.Errorf("failed to start archive reconciliation job: %w", err)
	}

	return nil
}

func (jm *JobManager) StopAll() {
	jm.archiveReconciliationJob.Stop()
}
