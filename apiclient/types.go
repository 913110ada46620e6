package apiclient

import "time"

// Processing states shared by the text and analysis halves of an entry
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Values of Entry.AnalysisFound
const (
	Found    = "found"
	NotFound = "not-found"
)

// Entry is one bibliography entry and its processing state
type Entry struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	TextStatus     string `json:"text_status"`
	Analysis       string `json:"analysis"`
	AnalysisStatus string `json:"analysis_status"`
	AnalysisFound  string `json:"analysis_found"`
}

// InProgress reports whether status still needs a spinner
func InProgress(status string) bool {
	return status == StatusPending || status == StatusActive
}

// Status summarises how many entries of a document have finished analysis.
// Failed entries count towards Completed as well.
type Status struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Failed    int `json:"failed"`
}

// Done reports whether polling can stop
func (s Status) Done() bool {
	return s.Total > 0 && s.Completed == s.Total
}

// DocumentInfo describes an uploaded document
type DocumentInfo struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	TotalPages     int       `json:"totalPages"`
	UploadedAt     time.Time `json:"uploadedAt"`
	AnalysisStatus string    `json:"analysisStatus,omitempty"`
}

// UploadResult is returned by the upload endpoint. A PDF that was uploaded
// before is not analysed again: Duplicate is set and JobID is empty.
type UploadResult struct {
	ID        string `json:"id"`
	JobID     string `json:"jobId,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// Job is a background job as reported by the jobs endpoints. Result holds
// the job's JSON summary once it has completed.
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	CurrentStep string     `json:"currentStep"`
	Message     string     `json:"message"`
	Error       string     `json:"error,omitempty"`
	Result      string     `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// AboutInfo describes how the backend is configured
type AboutInfo struct {
	Version         string `json:"version"`
	DatabaseType    string `json:"databaseType"`
	DatabaseHost    string `json:"databaseHost"`
	DatabasePort    string `json:"databasePort"`
	DatabaseName    string `json:"databaseName"`
	UploadPath      string `json:"uploadPath"`
	Renderer        string `json:"renderer"`
	RenderDPI       int    `json:"renderDPI"`
	DOIBaseURL      string `json:"doiBaseURL"`
	CrossrefBaseURL string `json:"crossrefBaseURL"`
}
