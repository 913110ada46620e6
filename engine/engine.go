package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/database"
	"github.com/oklog/ulid/v2"
)

var errAnalysisRunning = errors.New("analysis already running")

// StartAnalysis creates a tracked job and analyses the document's
// bibliography in the background
func (serverHandler *ServerHandler) StartAnalysis(doc *database.Document) (*database.Job, error) {
	ulidStr := doc.ULID.String()
	if _, busy := serverHandler.running.LoadOrStore(ulidStr, struct{}{}); busy {
		return nil, errAnalysisRunning
	}

	job, err := serverHandler.DB.CreateJob(database.JobTypeAnalysis, "Analysing "+doc.Filename)
	if err != nil {
		serverHandler.running.Delete(ulidStr)
		return nil, fmt.Errorf("creating analysis job: %w", err)
	}

	serverHandler.analyses.Add(1)
	go func() {
		defer serverHandler.analyses.Done()
		defer serverHandler.running.Delete(ulidStr)
		serverHandler.analyseDocument(doc, job.ID)
	}()
	return job, nil
}

// WaitForAnalyses blocks until every background analysis has returned
func (serverHandler *ServerHandler) WaitForAnalyses() {
	serverHandler.analyses.Wait()
}

// analyseDocument extracts the bibliography of a document and checks each
// entry in turn. Every state change is written to the database straight
// away so that pollers see entries move from pending to completed.
func (serverHandler *ServerHandler) analyseDocument(doc *database.Document, jobID ulid.ULID) {
	db := serverHandler.DB
	ulidStr := doc.ULID.String()

	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in analysis job", "panic", r, "jobID", jobID, "document", ulidStr)
			db.UpdateJobError(jobID, fmt.Sprintf("Panic: %v", r))
			db.UpdateDocumentStatus(ulidStr, database.StatusError)
		}
	}()

	fail := func(step string, err error) {
		Logger.Error("Analysis failed", "step", step, "document", ulidStr, "error", err)
		db.UpdateJobError(jobID, fmt.Sprintf("%s: %v", step, err))
		db.UpdateDocumentStatus(ulidStr, database.StatusError)
	}

	if err := db.UpdateJobStatus(jobID, database.JobStatusRunning, "Extracting text"); err != nil {
		Logger.Error("Failed to update job status", "error", err)
	}
	if err := db.UpdateDocumentStatus(ulidStr, database.StatusActive); err != nil {
		fail("Marking document active", err)
		return
	}

	text, err := bibliography.ExtractText(doc.Path)
	if err != nil {
		fail("Extracting text", err)
		return
	}
	raw := bibliography.SplitEntries(text)
	Logger.Info("Bibliography extracted", "document", ulidStr, "entries", len(raw))

	entries := make([]database.Entry, len(raw))
	for i := range entries {
		entries[i] = database.Entry{DocumentULID: ulidStr, Seq: i + 1}
	}
	if err := db.ReplaceEntries(ulidStr, entries); err != nil {
		fail("Storing entries", err)
		return
	}

	summary := database.AnalysisSummary{DocumentID: ulidStr, Entries: len(entries)}
	total := len(entries)

	// text first so the whole bibliography is readable before the slow lookups start
	for i := range entries {
		entry := &entries[i]
		entry.TextStatus = database.StatusActive
		serverHandler.saveEntry(entry)
		entry.Text = raw[i]
		entry.TextStatus = database.StatusCompleted
		serverHandler.saveEntry(entry)
	}

	for i := range entries {
		entry := &entries[i]
		db.UpdateJobProgress(jobID, progress(i, total), fmt.Sprintf("Checking entry %d of %d", i+1, total))

		entry.AnalysisStatus = database.StatusActive
		serverHandler.saveEntry(entry)

		serverHandler.checkEntry(entry)
		switch {
		case entry.AnalysisStatus == database.StatusError:
			summary.Errors++
		case entry.AnalysisFound == database.Found:
			summary.Found++
		default:
			summary.NotFound++
		}
		serverHandler.saveEntry(entry)
	}

	if err := db.UpdateDocumentStatus(ulidStr, database.StatusCompleted); err != nil {
		Logger.Error("Failed to mark document analysed", "document", ulidStr, "error", err)
	}
	result, _ := json.Marshal(summary)
	if err := db.CompleteJob(jobID, string(result)); err != nil {
		Logger.Error("Failed to mark job as complete", "error", err)
	}
	Logger.Info("Analysis complete", "document", ulidStr, "entries", total,
		"found", summary.Found, "notFound", summary.NotFound, "errors", summary.Errors)
}

// checkEntry fills in the analysis half of an entry. A lookup failure is
// recorded on the entry rather than aborting the document.
func (serverHandler *ServerHandler) checkEntry(entry *database.Entry) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered while checking entry", "panic", r, "seq", entry.Seq)
			entry.Analysis = fmt.Sprintf("Panic: %v", r)
			entry.AnalysisStatus = database.StatusError
		}
	}()

	if strings.TrimSpace(entry.Text) == "" {
		entry.Analysis = "Empty entry"
		entry.AnalysisStatus = database.StatusError
		return
	}

	analysis, err := serverHandler.Checker.Check(context.Background(), entry.Text)
	if err != nil {
		Logger.Warn("Entry lookup failed", "seq", entry.Seq, "error", err)
		entry.Analysis = err.Error()
		entry.AnalysisStatus = database.StatusError
		return
	}
	entry.Analysis = analysis.Summary
	entry.AnalysisStatus = database.StatusCompleted
	if analysis.Found {
		entry.AnalysisFound = database.Found
	} else {
		entry.AnalysisFound = database.NotFound
	}
}

func (serverHandler *ServerHandler) saveEntry(entry *database.Entry) {
	if err := serverHandler.DB.UpdateEntry(entry); err != nil {
		Logger.Error("Failed to update entry", "document", entry.DocumentULID, "seq", entry.Seq, "error", err)
	}
}

// progress maps entry i of total onto 5..95, leaving room for extraction
// before and bookkeeping after
func progress(i, total int) int {
	if total == 0 {
		return 95
	}
	return 5 + i*90/total
}
