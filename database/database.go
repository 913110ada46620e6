package database

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// ErrNotFound is returned when a document, entry or job does not exist
var ErrNotFound = errors.New("not found")

// Entry and document analysis states
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Outcome of checking a bibliography entry
const (
	Found    = "found"
	NotFound = "not-found"
)

// Document is an uploaded PDF
type Document struct {
	ULID           ulid.ULID
	Filename       string // name as uploaded
	Path           string // full path to the stored copy
	Hash           string
	TotalPages     int
	UploadedAt     time.Time
	AnalysisStatus string
}

// Entry is one item of a document's bibliography, Seq is 1-based
type Entry struct {
	DocumentULID   string
	Seq            int
	Text           string
	TextStatus     string
	Analysis       string
	AnalysisStatus string
	AnalysisFound  string
}

// Status summarises the analysis progress of a document. Completed counts
// every entry whose analysis has finished, including those that failed.
type Status struct {
	Completed int
	Total     int
	Failed    int
}

// Repository defines database operations
type Repository interface {
	Close() error
	SaveDocument(doc *Document) error
	GetDocument(ulidStr string) (*Document, error)
	GetDocumentByHash(hash string) (*Document, error)
	GetRecentDocuments(limit int) ([]Document, error)
	DeleteDocument(ulidStr string) error
	UpdateDocumentStatus(ulidStr string, status string) error
	GetIncompleteDocuments() ([]Document, error)
	// Bibliography entries
	ReplaceEntries(ulidStr string, entries []Entry) error
	UpdateEntry(entry *Entry) error
	GetEntries(ulidStr string) ([]Entry, error)
	GetStatus(ulidStr string) (*Status, error)
	// Job tracking methods
	CreateJob(jobType JobType, message string) (*Job, error)
	UpdateJobProgress(jobID ulid.ULID, progress int, currentStep string) error
	UpdateJobStatus(jobID ulid.ULID, status JobStatus, message string) error
	UpdateJobError(jobID ulid.ULID, errorMsg string) error
	CompleteJob(jobID ulid.ULID, result string) error
	GetJob(jobID ulid.ULID) (*Job, error)
	GetRecentJobs(limit, offset int) ([]Job, error)
	GetActiveJobs() ([]Job, error)
	DeleteOldJobs(olderThan time.Duration) (int, error)
}

// NewDocument builds the record for a freshly stored upload. The file at
// path is hashed so that the same PDF uploaded twice can be recognised.
func NewDocument(filename, path string, totalPages int) (*Document, error) {
	now := time.Now()
	newULID, err := CalculateUUID(now)
	if err != nil {
		Logger.Error("Cannot generate ULID", "path", path, "error", err)
		return nil, err
	}
	hash, err := CalculateHash(path)
	if err != nil {
		return nil, err
	}
	return &Document{
		ULID:           newULID,
		Filename:       filepath.Base(filename),
		Path:           path,
		Hash:           hash,
		TotalPages:     totalPages,
		UploadedAt:     now,
		AnalysisStatus: StatusPending,
	}, nil
}

// RemoveDocument deletes a document, its entries and its stored file
func RemoveDocument(ulidStr string, db Repository) error {
	doc, err := db.GetDocument(ulidStr)
	if err != nil {
		return err
	}
	if err := db.DeleteDocument(ulidStr); err != nil {
		return err
	}
	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		Logger.Warn("Document removed from database but file remains", "path", doc.Path, "error", err)
	}
	return nil
}

// CalculateHash returns the md5 of the file contents
func CalculateHash(fileName string) (string, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hashing %s: %w", fileName, err)
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// CalculateUUID for the incoming file
func CalculateUUID(time time.Time) (ulid.ULID, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.UnixNano())), 0)
	newULID, err := ulid.New(ulid.Timestamp(time), entropy)
	if err != nil {
		return newULID, err
	}
	return newULID, nil
}
