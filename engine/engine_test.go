package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drummonds/bibview/apiclient"
	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/config"
	"github.com/drummonds/bibview/database"
	"github.com/drummonds/bibview/engine/pdfrenderer"
	"github.com/drummonds/bibview/internal/testpdf"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

// fakeRenderer accepts anything that starts like a PDF and draws blank pages
type fakeRenderer struct {
	pages int
}

func (r *fakeRenderer) Open(filename string) (pdfrenderer.Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, errors.New("missing PDF header")
	}
	return &fakePDF{pages: r.pages}, nil
}

func (r *fakeRenderer) Close() error { return nil }

type fakePDF struct {
	pages int
}

func (d *fakePDF) NumPages() int { return d.pages }

func (d *fakePDF) RenderPage(page int) (image.Image, error) {
	if page < 1 || page > d.pages {
		return nil, pdfrenderer.ErrPageOutOfRange
	}
	img := image.NewRGBA(image.Rect(0, 0, 60, 80))
	for x := 0; x < 60; x++ {
		img.Set(x, page, color.Black)
	}
	return img, nil
}

func (d *fakePDF) Close() error { return nil }

// fakeChecker finds entries with a DOI, fails on preprints and misses the rest
type fakeChecker struct {
	panicOn string
}

func (c *fakeChecker) Check(ctx context.Context, entry string) (*bibliography.Analysis, error) {
	switch {
	case c.panicOn != "" && strings.Contains(entry, c.panicOn):
		panic("checker blew up")
	case strings.Contains(entry, "doi:"):
		return &bibliography.Analysis{Found: true, Summary: "doi.org: exists"}, nil
	case strings.Contains(entry, "arXiv"):
		return nil, errors.New("crossref unavailable")
	default:
		return &bibliography.Analysis{Found: false, Summary: "crossref: no match"}, nil
	}
}

func newTestServer(t *testing.T) (*ServerHandler, *echo.Echo) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.ServerConfig{
		DatabaseType:     "sqlite",
		DatabaseDbname:   filepath.Join(dir, "bibview.sqlite"),
		UploadPath:       filepath.Join(dir, "uploads"),
		JobRetentionDays: 7,
	}
	db, err := database.NewRepository(cfg)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	e := echo.New()
	handler := &ServerHandler{
		DB:           db,
		Echo:         e,
		ServerConfig: cfg,
		Renderer:     &fakeRenderer{pages: 3},
		Checker:      &fakeChecker{},
	}
	handler.RegisterRoutes()
	t.Cleanup(func() {
		handler.WaitForAnalyses()
		db.Close()
	})
	return handler, e
}

func uploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/document/upload", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
}

func uploadPaper(t *testing.T, handler *ServerHandler, e *echo.Echo) apiclient.UploadResult {
	t.Helper()
	rec := serve(e, uploadRequest(t, "pdf", "paper.pdf", testpdf.Build(testpdf.Paper())))
	if rec.Code != http.StatusOK {
		t.Fatalf("Upload failed with %d: %s", rec.Code, rec.Body.String())
	}
	var result apiclient.UploadResult
	decode(t, rec, &result)
	handler.WaitForAnalyses()
	return result
}

func TestUploadAnalysesBibliography(t *testing.T) {
	handler, e := newTestServer(t)
	result := uploadPaper(t, handler, e)

	if result.ID == "" || result.JobID == "" || result.Duplicate {
		t.Fatalf("Unexpected upload result: %+v", result)
	}

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/status/"+result.ID, nil))
	var status apiclient.Status
	decode(t, rec, &status)
	if status.Total != 3 || status.Completed != 3 || status.Failed != 1 || !status.Done() {
		t.Errorf("Expected all 3 entries finished with 1 failure, got %+v", status)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/entries/"+result.ID, nil))
	var entries []apiclient.Entry
	decode(t, rec, &entries)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	want := []struct {
		id, status, found string
	}{
		{"1", apiclient.StatusCompleted, apiclient.Found},
		{"2", apiclient.StatusCompleted, apiclient.NotFound},
		{"3", apiclient.StatusError, ""},
	}
	for i, w := range want {
		got := entries[i]
		if got.ID != w.id || got.AnalysisStatus != w.status || got.AnalysisFound != w.found {
			t.Errorf("Entry %d: got %+v, want id=%s status=%s found=%q", i, got, w.id, w.status, w.found)
		}
		if got.TextStatus != apiclient.StatusCompleted || got.Text == "" {
			t.Errorf("Entry %d should have its text: %+v", i, got)
		}
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/jobs/"+result.JobID, nil))
	var job database.Job
	decode(t, rec, &job)
	if job.Status != database.JobStatusCompleted || job.Progress != 100 {
		t.Errorf("Expected completed job, got %+v", job)
	}
	var summary database.AnalysisSummary
	if err := json.Unmarshal([]byte(job.Result), &summary); err != nil {
		t.Fatalf("Job result is not a summary: %v", err)
	}
	if summary.Found != 1 || summary.NotFound != 1 || summary.Errors != 1 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/document/"+result.ID, nil))
	var info apiclient.DocumentInfo
	decode(t, rec, &info)
	if info.Filename != "paper.pdf" || info.TotalPages != 3 || info.AnalysisStatus != database.StatusCompleted {
		t.Errorf("Unexpected document info: %+v", info)
	}
}

func TestUploadRedirectsBrowsers(t *testing.T) {
	handler, e := newTestServer(t)
	req := uploadRequest(t, "pdf", "paper.pdf", testpdf.Build(testpdf.Paper()))
	req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")

	rec := serve(e, req)
	handler.WaitForAnalyses()

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); !strings.HasPrefix(loc, "/viewer/") {
		t.Errorf("Expected redirect to the viewer, got %q", loc)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	_, e := newTestServer(t)

	tests := []struct {
		name     string
		field    string
		filename string
		data     []byte
	}{
		{"wrong field", "file", "paper.pdf", []byte("%PDF-1.4")},
		{"not a pdf name", "pdf", "notes.txt", []byte("hello")},
		{"not a pdf body", "pdf", "fake.pdf", []byte("hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, uploadRequest(t, tt.field, tt.filename, tt.data))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body map[string]interface{}
			decode(t, rec, &body)
			if body["error"] == nil {
				t.Errorf("Expected an error message, got %v", body)
			}
		})
	}
}

func TestDuplicateUploadReusesDocument(t *testing.T) {
	handler, e := newTestServer(t)
	first := uploadPaper(t, handler, e)
	second := uploadPaper(t, handler, e)

	if !second.Duplicate || second.ID != first.ID || second.JobID != "" {
		t.Errorf("Expected second upload to reuse %s, got %+v", first.ID, second)
	}
	files, _ := os.ReadDir(handler.ServerConfig.UploadPath)
	if len(files) != 1 {
		t.Errorf("Expected a single stored PDF, found %d", len(files))
	}
}

func TestPageRoutes(t *testing.T) {
	handler, e := newTestServer(t)
	doc := uploadPaper(t, handler, e)
	base := "/api/document/" + doc.ID

	tests := []struct {
		path string
		code int
	}{
		{base + "/page/two", http.StatusBadRequest},
		{base + "/page/0", http.StatusNotFound},
		{base + "/page/4", http.StatusNotFound},
		{"/api/document/" + ulid.Make().String() + "/page/1", http.StatusNotFound},
		{base + "/page/2", http.StatusOK},
		{base + "/thumbnail", http.StatusOK},
	}
	for _, tt := range tests {
		rec := serve(e, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.code, rec.Code)
			continue
		}
		if tt.code != http.StatusOK {
			continue
		}
		if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
			t.Errorf("GET %s: expected image/png, got %q", tt.path, ct)
		}
		if _, err := png.Decode(rec.Body); err != nil {
			t.Errorf("GET %s: body is not a PNG: %v", tt.path, err)
		}
	}
}

func TestUnknownDocumentIsJSON404(t *testing.T) {
	_, e := newTestServer(t)
	id := ulid.Make().String()

	for _, path := range []string{"/api/document/" + id, "/api/status/" + id, "/api/entries/" + id, "/document/view/" + id} {
		rec := serve(e, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, rec.Code)
			continue
		}
		var body map[string]string
		decode(t, rec, &body)
		if body["error"] != "Document not found" {
			t.Errorf("GET %s: unexpected body %v", path, body)
		}
	}
}

func TestDeleteDocument(t *testing.T) {
	handler, e := newTestServer(t)
	doc := uploadPaper(t, handler, e)

	rec := serve(e, httptest.NewRequest(http.MethodDelete, "/api/document/"+doc.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Delete failed with %d: %s", rec.Code, rec.Body.String())
	}
	files, _ := os.ReadDir(handler.ServerConfig.UploadPath)
	if len(files) != 0 {
		t.Errorf("Expected stored PDF removed, %d files left", len(files))
	}
	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/api/document/"+doc.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting twice, got %d", rec.Code)
	}
}

func TestLatestDocumentsNewestFirst(t *testing.T) {
	handler, e := newTestServer(t)
	first := uploadPaper(t, handler, e)

	other := testpdf.Build([][]string{{"Another paper"}, {"References", "[1] E. Else, Thing, 2001."}})
	rec := serve(e, uploadRequest(t, "pdf", "other.pdf", other))
	handler.WaitForAnalyses()
	var second apiclient.UploadResult
	decode(t, rec, &second)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/documents/latest", nil))
	var docs []apiclient.DocumentInfo
	decode(t, rec, &docs)
	if len(docs) != 2 || docs[0].ID != second.ID || docs[1].ID != first.ID {
		t.Errorf("Expected [%s %s], got %+v", second.ID, first.ID, docs)
	}
}

func TestUnreadableTextFailsJob(t *testing.T) {
	handler, e := newTestServer(t)

	// good enough for the renderer, not for text extraction
	rec := serve(e, uploadRequest(t, "pdf", "broken.pdf", []byte("%PDF-1.4 garbage")))
	if rec.Code != http.StatusOK {
		t.Fatalf("Upload failed with %d: %s", rec.Code, rec.Body.String())
	}
	var result apiclient.UploadResult
	decode(t, rec, &result)
	handler.WaitForAnalyses()

	jobID, _ := ulid.Parse(result.JobID)
	job, err := handler.DB.GetJob(jobID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if job.Status != database.JobStatusFailed || job.Error == "" {
		t.Errorf("Expected failed job with an error, got %+v", job)
	}
	doc, _ := handler.DB.GetDocument(result.ID)
	if doc.AnalysisStatus != database.StatusError {
		t.Errorf("Expected document marked error, got %q", doc.AnalysisStatus)
	}
}

func TestCheckerPanicOnlyFailsThatEntry(t *testing.T) {
	handler, e := newTestServer(t)
	handler.Checker = &fakeChecker{panicOn: "C. Person"}
	doc := uploadPaper(t, handler, e)

	entries, err := handler.DB.GetEntries(doc.ID)
	if err != nil || len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d (%v)", len(entries), err)
	}
	if entries[1].AnalysisStatus != database.StatusError || !strings.Contains(entries[1].Analysis, "Panic") {
		t.Errorf("Expected the panicking entry marked error, got %+v", entries[1])
	}
	if entries[0].AnalysisFound != database.Found {
		t.Errorf("Other entries should still be checked, got %+v", entries[0])
	}
}

func TestResumeAnalyses(t *testing.T) {
	handler, _ := newTestServer(t)

	path := filepath.Join(t.TempDir(), "left-behind.pdf")
	testpdf.Write(t, path, testpdf.Paper())
	doc, err := database.NewDocument("left-behind.pdf", path, 3)
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	doc.AnalysisStatus = database.StatusActive
	if err := handler.DB.SaveDocument(doc); err != nil {
		t.Fatalf("Failed to save document: %v", err)
	}

	handler.resumeAnalyses()
	handler.WaitForAnalyses()

	status, err := handler.DB.GetStatus(doc.ULID.String())
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	if status.Total != 3 || status.Completed != 3 {
		t.Errorf("Expected resumed analysis to finish, got %+v", status)
	}
	if pending, _ := handler.DB.GetIncompleteDocuments(); len(pending) != 0 {
		t.Errorf("Expected nothing left to resume, got %d", len(pending))
	}
}

func TestStartAnalysisRefusesConcurrentRuns(t *testing.T) {
	handler, e := newTestServer(t)
	doc := uploadPaper(t, handler, e)

	handler.running.Store(doc.ID, struct{}{})
	rec := serve(e, httptest.NewRequest(http.MethodPost, "/api/analyze/"+doc.ID, nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 while an analysis runs, got %d", rec.Code)
	}
	handler.running.Delete(doc.ID)

	rec = serve(e, httptest.NewRequest(http.MethodPost, "/api/analyze/"+doc.ID, nil))
	handler.WaitForAnalyses()
	if rec.Code != http.StatusOK {
		t.Errorf("Expected re-analysis to start, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCleanupJobRecordsItself(t *testing.T) {
	handler, _ := newTestServer(t)
	handler.cleanupJobFunc()

	jobs, err := handler.DB.GetRecentJobs(10, 0)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("Expected one job, got %d (%v)", len(jobs), err)
	}
	if jobs[0].Type != database.JobTypeCleanup || jobs[0].Status != database.JobStatusCompleted {
		t.Errorf("Unexpected cleanup job: %+v", jobs[0])
	}
}

func TestProgress(t *testing.T) {
	if got := progress(0, 0); got != 95 {
		t.Errorf("progress(0, 0) = %d", got)
	}
	if got := progress(0, 4); got != 5 {
		t.Errorf("progress(0, 4) = %d", got)
	}
	if got := progress(3, 4); got != 72 {
		t.Errorf("progress(3, 4) = %d", got)
	}
}

func TestHealthAndAbout(t *testing.T) {
	_, e := newTestServer(t)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("Unexpected health response %d: %s", rec.Code, rec.Body.String())
	}
	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/about", nil))
	var about map[string]interface{}
	decode(t, rec, &about)
	if about["databaseType"] != "sqlite" {
		t.Errorf("Unexpected about info: %v", about)
	}
}

func TestStoredName(t *testing.T) {
	got := storedName("01ABC", "../my paper (final).pdf")
	if got != "01ABC_my_paper_final_.pdf" {
		t.Errorf("storedName = %q", got)
	}
}
