package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/config"
	"github.com/drummonds/bibview/database"
	"github.com/drummonds/bibview/internal/testpdf"
)

// getBrowser finds a Chrome-family browser for chromedp
func getBrowser() (string, error) {
	browsers := []string{"chromium", "chromium-browser", "google-chrome", "chrome"}
	for _, browser := range browsers {
		if path, err := exec.LookPath(browser); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no suitable browser found")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEntriesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	testpdf.Write(t, path, testpdf.Paper())

	out, err := runCLI(t, "entries", path)
	if err != nil {
		t.Fatalf("entries failed: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 entries, got %q", lines)
	}
	if !strings.HasPrefix(lines[1], "2. C. Person") {
		t.Errorf("Unexpected second line %q", lines[1])
	}
}

func TestEntriesCommandWithoutBibliography(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.pdf")
	testpdf.Write(t, path, [][]string{{"Just some text"}})

	if _, err := runCLI(t, "entries", path); err == nil {
		t.Error("Expected an error for a PDF without a bibliography")
	}
}

type stubChecker struct{}

func (stubChecker) Check(ctx context.Context, entry string) (*bibliography.Analysis, error) {
	switch {
	case strings.Contains(entry, "doi"):
		return &bibliography.Analysis{Found: true, Summary: "exists"}, nil
	case strings.Contains(entry, "broken"):
		return nil, errors.New("lookup timed out")
	default:
		return &bibliography.Analysis{Summary: "no match"}, nil
	}
}

func TestPrintEntriesWithChecker(t *testing.T) {
	var buf bytes.Buffer
	entries := []string{"A doi:10.1/x", "B broken", "C nothing"}
	if err := printEntries(context.Background(), &buf, entries, stubChecker{}); err != nil {
		t.Fatalf("printEntries failed: %v", err)
	}
	want := "1. A doi:10.1/x\n   found: exists\n" +
		"2. B broken\n   error: lookup timed out\n" +
		"3. C nothing\n   not found: no match\n"
	if buf.String() != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDFium WebAssembly test in short mode")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	testpdf.Write(t, path, testpdf.Paper())
	out := filepath.Join(dir, "page2.png")

	if msg, err := runCLI(t, "render", path, "--page", "2", "--out", out, "--max-width", "300"); err != nil {
		t.Fatalf("render failed: %v\n%s", err, msg)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("No PNG written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if w := img.Bounds().Dx(); w != 300 {
		t.Errorf("Expected width 300, got %d", w)
	}
}

func TestRenderCommandPageOutOfRange(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDFium WebAssembly test in short mode")
	}
	path := filepath.Join(t.TempDir(), "paper.pdf")
	testpdf.Write(t, path, testpdf.Paper())

	if _, err := runCLI(t, "render", path, "--page", "9", "--out", filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("Expected an error for page 9 of 3")
	}
}

// newTestServer starts the combined server on sqlite in a temp dir
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping combined server test in short mode")
	}
	dir := t.TempDir()
	cfg := config.ServerConfig{
		DatabaseType:   "sqlite",
		DatabaseDbname: filepath.Join(dir, "bibview.sqlite"),
		UploadPath:     filepath.Join(dir, "uploads"),
		PDFRenderer:    "pdfium",
		FrontEndConfig: config.FrontEndConfig{RecentDocumentCount: 10, PollIntervalSeconds: 2},
	}
	db, err := database.NewRepository(cfg)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	e, serverHandler, err := newServer(cfg, db)
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}
	if err := serverHandler.StartupChecks(); err != nil {
		t.Fatalf("Startup checks failed: %v", err)
	}

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		serverHandler.WaitForAnalyses()
		serverHandler.Close()
		db.Close()
	})
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.String()
}

func TestCombinedServerRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path        string
		code        int
		contentType string
		contains    string
	}{
		{"/api/health", http.StatusOK, "application/json", "healthy"},
		{"/api/swagger.json", http.StatusOK, "application/json", `"/status/{id}"`},
		{"/api/nope", http.StatusNotFound, "application/json", `"error":"Not Found"`},
		{"/config.js", http.StatusOK, "application/javascript", "window.bibviewConfig"},
		{"/webapp/webapp.css", http.StatusOK, "text/css", ".entries-grid"},
		{"/", http.StatusOK, "text/html", "bibview"},
		{"/viewer/01HZX5V9J4K2M3N4P5Q6R7S8T9", http.StatusOK, "text/html", "bibview"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			if resp.StatusCode != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("Expected content type %s, got %s", tt.contentType, ct)
			}
			if !strings.Contains(body, tt.contains) {
				t.Errorf("Body does not contain %q", tt.contains)
			}
		})
	}
}

// TestFrontendRendering loads the home page in a headless browser
func TestFrontendRendering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	browserPath, err := getBrowser()
	if err != nil {
		t.Skip("No Chrome or Chromium found, skipping browser test")
	}
	t.Logf("Using browser: %s", browserPath)

	srv := newTestServer(t)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browserPath),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pageTitle string
	var bodyHTML string
	err = chromedp.Run(ctx,
		chromedp.Navigate(srv.URL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Title(&pageTitle),
		chromedp.InnerHTML("body", &bodyHTML),
	)
	if err != nil {
		t.Fatalf("Failed to load page: %v", err)
	}

	if pageTitle != "bibview" {
		t.Errorf("Unexpected page title %q", pageTitle)
	}
	if len(bodyHTML) < 100 {
		t.Errorf("Body HTML seems too short (%d chars), page may not have rendered properly", len(bodyHTML))
	}
}

func TestIsAddressInUse(t *testing.T) {
	if !isAddressInUse(errors.New("listen tcp :8000: bind: address already in use")) {
		t.Error("Expected address in use to be detected")
	}
	if isAddressInUse(nil) || isAddressInUse(errors.New("permission denied")) {
		t.Error("Other errors are not address in use")
	}
}
