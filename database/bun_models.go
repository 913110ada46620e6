package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunDocument represents the documents table for Bun ORM
type BunDocument struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID             int       `bun:"id,pk,autoincrement"`
	ULID           string    `bun:"ulid,notnull,unique"` // Stored as string in DB
	Filename       string    `bun:"filename,notnull"`
	Path           string    `bun:"path,notnull"`
	Hash           string    `bun:"hash,notnull"`
	TotalPages     int       `bun:"total_pages,notnull"`
	AnalysisStatus string    `bun:"analysis_status,notnull"`
	UploadedAt     time.Time `bun:"uploaded_at,notnull,default:current_timestamp"`
}

// ToDocument converts BunDocument to Document
func (bd *BunDocument) ToDocument() (*Document, error) {
	parsedULID, err := ulid.Parse(bd.ULID)
	if err != nil {
		return nil, err
	}

	return &Document{
		ULID:           parsedULID,
		Filename:       bd.Filename,
		Path:           bd.Path,
		Hash:           bd.Hash,
		TotalPages:     bd.TotalPages,
		UploadedAt:     bd.UploadedAt,
		AnalysisStatus: bd.AnalysisStatus,
	}, nil
}

// FromDocument converts Document to BunDocument
func FromDocument(doc *Document) *BunDocument {
	status := doc.AnalysisStatus
	if status == "" {
		status = StatusPending
	}
	return &BunDocument{
		ULID:           doc.ULID.String(),
		Filename:       doc.Filename,
		Path:           doc.Path,
		Hash:           doc.Hash,
		TotalPages:     doc.TotalPages,
		AnalysisStatus: status,
		UploadedAt:     doc.UploadedAt,
	}
}

// BunEntry represents the entries table for Bun ORM
type BunEntry struct {
	bun.BaseModel `bun:"table:entries,alias:e"`

	ID             int    `bun:"id,pk,autoincrement"`
	DocumentULID   string `bun:"document_ulid,notnull"`
	Seq            int    `bun:"seq,notnull"`
	Text           string `bun:"text,notnull"`
	TextStatus     string `bun:"text_status,notnull"`
	Analysis       string `bun:"analysis,notnull"`
	AnalysisStatus string `bun:"analysis_status,notnull"`
	AnalysisFound  string `bun:"analysis_found,notnull"`
}

// ToEntry converts BunEntry to Entry
func (be *BunEntry) ToEntry() Entry {
	return Entry{
		DocumentULID:   be.DocumentULID,
		Seq:            be.Seq,
		Text:           be.Text,
		TextStatus:     be.TextStatus,
		Analysis:       be.Analysis,
		AnalysisStatus: be.AnalysisStatus,
		AnalysisFound:  be.AnalysisFound,
	}
}

// FromEntry converts Entry to BunEntry
func FromEntry(entry *Entry) *BunEntry {
	return &BunEntry{
		DocumentULID:   entry.DocumentULID,
		Seq:            entry.Seq,
		Text:           entry.Text,
		TextStatus:     orPending(entry.TextStatus),
		Analysis:       entry.Analysis,
		AnalysisStatus: orPending(entry.AnalysisStatus),
		AnalysisFound:  entry.AnalysisFound,
	}
}

func orPending(status string) string {
	if status == "" {
		return StatusPending
	}
	return status
}

// BunJob represents the jobs table for Bun ORM
type BunJob struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID          string     `bun:"id,pk"`
	Type        string     `bun:"type,notnull"`
	Status      string     `bun:"status,default:'pending'"`
	Progress    int        `bun:"progress,default:0"`
	CurrentStep string     `bun:"current_step,default:''"`
	TotalSteps  int        `bun:"total_steps,default:0"`
	Message     string     `bun:"message,default:''"`
	Error       string     `bun:"error,nullzero"`
	Result      string     `bun:"result,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`
}

// ToJob converts BunJob to Job
func (bj *BunJob) ToJob() (*Job, error) {
	parsedULID, err := ulid.Parse(bj.ID)
	if err != nil {
		return nil, err
	}

	return &Job{
		ID:          parsedULID,
		Type:        JobType(bj.Type),
		Status:      JobStatus(bj.Status),
		Progress:    bj.Progress,
		CurrentStep: bj.CurrentStep,
		TotalSteps:  bj.TotalSteps,
		Message:     bj.Message,
		Error:       bj.Error,
		Result:      bj.Result,
		CreatedAt:   bj.CreatedAt,
		UpdatedAt:   bj.UpdatedAt,
		StartedAt:   bj.StartedAt,
		CompletedAt: bj.CompletedAt,
	}, nil
}

// FromJob converts Job to BunJob
func FromJob(job *Job) *BunJob {
	return &BunJob{
		ID:          job.ID.String(),
		Type:        string(job.Type),
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		TotalSteps:  job.TotalSteps,
		Message:     job.Message,
		Error:       job.Error,
		Result:      job.Result,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
}
