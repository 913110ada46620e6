package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/drummonds/bibview/database"
	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// InitializeSchedules resumes analyses interrupted by a restart and starts
// the cron jobs. The returned cron must be stopped on shutdown.
func (serverHandler *ServerHandler) InitializeSchedules() *cron.Cron {
	Logger.Info("Resuming unfinished analyses at startup")
	go serverHandler.resumeAnalyses()

	interval := serverHandler.ServerConfig.CleanupInterval
	if interval <= 0 {
		interval = 60
	}

	c := cron.New()
	var cleanupJob cron.Job
	cleanupJob = cron.FuncJob(serverHandler.cleanupJobFunc)
	cleanupJob = cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(cleanupJob) //ensure we don't kick off another if old one is still running
	if _, err := c.AddJob(fmt.Sprintf("@every %dm", interval), cleanupJob); err != nil {
		Logger.Error("Unable to schedule job cleanup", "error", err)
	}
	Logger.Info("Adding job cleanup scheduler", "interval_minutes", interval)
	c.Start()
	return c
}

// resumeAnalyses restarts the analysis of every document left pending or
// active, which happens when the server stops mid-analysis
func (serverHandler *ServerHandler) resumeAnalyses() {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered while resuming analyses", "panic", r)
		}
	}()

	docs, err := serverHandler.DB.GetIncompleteDocuments()
	if err != nil {
		Logger.Error("Unable to list unfinished documents", "error", err)
		return
	}
	for i := range docs {
		doc := docs[i]
		if _, err := serverHandler.StartAnalysis(&doc); err != nil {
			Logger.Warn("Could not resume analysis", "document", doc.ULID.String(), "error", err)
			continue
		}
		Logger.Info("Resumed analysis", "document", doc.ULID.String(), "filename", doc.Filename)
	}
}

// cleanupJobFunc purges finished jobs older than the retention period
func (serverHandler *ServerHandler) cleanupJobFunc() {
	db := serverHandler.DB
	job, err := db.CreateJob(database.JobTypeCleanup, "Purging old jobs")
	if err != nil {
		Logger.Error("Failed to create cleanup job", "error", err)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in cleanup job", "panic", r, "jobID", job.ID)
			db.UpdateJobError(job.ID, fmt.Sprintf("Panic: %v", r))
		}
	}()

	db.UpdateJobStatus(job.ID, database.JobStatusRunning, "Deleting old jobs")

	days := serverHandler.ServerConfig.JobRetentionDays
	if days <= 0 {
		days = 7
	}
	deleted, err := db.DeleteOldJobs(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		Logger.Error("Job cleanup failed", "error", err)
		db.UpdateJobError(job.ID, err.Error())
		return
	}
	db.CompleteJob(job.ID, fmt.Sprintf(`{"deleted": %d}`, deleted))
	Logger.Info("Job cleanup complete", "deleted", deleted, "retentionDays", days)
}
