// Package jobs runs scheduled background work with github.com/robfig/cron/v3.
//
// ArchiveReconciliationJob periodically archives Delivered orders whose
// archival failed or never ran, for example because the process stopped
// between delivery and archival. JobManager starts and stops all jobs
// together:
//
//	manager := jobs.NewJobManager(archivePendingHandler, jobs.DefaultArchiveSchedule, logger)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
//
// Schedules use the six-field cron format with seconds.
package jobs
