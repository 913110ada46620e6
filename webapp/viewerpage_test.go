package webapp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/drummonds/bibview/apiclient"
	"github.com/drummonds/bibview/viewer"
)

// pageBackend serves fake PNGs for pages 1 and 2 and a 404 for anything else
func pageBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/document/doc1/page/1", "/api/document/doc1/page/2":
			w.Header().Set("Content-Type", "image/png")
			fmt.Fprintf(w, "PNG-%s", r.URL.Path[len(r.URL.Path)-1:])
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Page not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type drawnPage struct {
	page int
	src  string
}

func TestRemoteDocumentDrawsThroughCoalescer(t *testing.T) {
	srv := pageBackend(t)

	var mu sync.Mutex
	var drawn []drawnPage
	var failed []int

	doc := &remoteDocument{
		client: apiclient.NewClient(srv.URL),
		id:     "doc1",
		pages:  3,
		draw: func(ctx context.Context, page int, src string) error {
			mu.Lock()
			drawn = append(drawn, drawnPage{page, src})
			mu.Unlock()
			return nil
		},
	}
	c := viewer.NewCoalescer(context.Background(), doc)
	c.OnError = func(page int, err error) {
		var apiErr *apiclient.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			t.Errorf("Expected a 404 APIError, got %v", err)
		}
		mu.Lock()
		failed = append(failed, page)
		mu.Unlock()
	}

	c.RequestPage(1)
	c.Wait()
	c.Next()
	c.Wait()
	c.Next()
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(drawn) != 2 {
		t.Fatalf("Expected pages 1 and 2 drawn, got %v", drawn)
	}
	for i, d := range drawn {
		if d.page != i+1 {
			t.Errorf("Draw %d was page %d", i, d.page)
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(d.src, "data:image/png;base64,"))
		if err != nil {
			t.Fatalf("Bad data URL %q: %v", d.src, err)
		}
		if string(data) != fmt.Sprintf("PNG-%d", d.page) {
			t.Errorf("Page %d drew %q", d.page, data)
		}
	}
	if len(failed) != 1 || failed[0] != 3 {
		t.Errorf("Expected page 3 to fail, got %v", failed)
	}
	if state := c.State(); state.CurrentPage != 3 || state.Rendering {
		t.Errorf("Unexpected final state %+v", state)
	}
}

func TestPageIndicator(t *testing.T) {
	if got := pageIndicator(2, 12); got != "Page 2 of 12" {
		t.Errorf("pageIndicator = %q", got)
	}
}

func TestEntryClass(t *testing.T) {
	tests := []struct {
		name  string
		entry apiclient.Entry
		want  string
	}{
		{
			name:  "fresh entry",
			entry: apiclient.Entry{},
			want:  "entry-row text-pending analysis-pending",
		},
		{
			name:  "text done, checking",
			entry: apiclient.Entry{TextStatus: "completed", AnalysisStatus: "active"},
			want:  "entry-row text-completed analysis-active",
		},
		{
			name:  "found",
			entry: apiclient.Entry{TextStatus: "completed", AnalysisStatus: "completed", AnalysisFound: "found"},
			want:  "entry-row text-completed analysis-completed entry-found",
		},
		{
			name:  "not found",
			entry: apiclient.Entry{TextStatus: "completed", AnalysisStatus: "completed", AnalysisFound: "not-found"},
			want:  "entry-row text-completed analysis-completed entry-not-found",
		},
		{
			name:  "lookup failed",
			entry: apiclient.Entry{TextStatus: "completed", AnalysisStatus: "error"},
			want:  "entry-row text-completed analysis-error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryClass(tt.entry); got != tt.want {
				t.Errorf("entryClass = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProgressLabel(t *testing.T) {
	tests := []struct {
		status apiclient.Status
		want   string
	}{
		{apiclient.Status{}, "Extracting bibliography..."},
		{apiclient.Status{Completed: 1, Total: 4}, "Checked 1 of 4 entries"},
		{apiclient.Status{Completed: 4, Total: 4, Failed: 1}, "Checked 4 of 4 entries (1 failed), done"},
	}
	for _, tt := range tests {
		if got := progressLabel(tt.status); got != tt.want {
			t.Errorf("progressLabel(%+v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestEmptyGridMessage(t *testing.T) {
	if _, waiting := emptyGridMessage(""); !waiting {
		t.Error("Expected a spinner before the analysis has started")
	}
	if _, waiting := emptyGridMessage(apiclient.StatusActive); !waiting {
		t.Error("Expected a spinner while the analysis runs")
	}
	msg, waiting := emptyGridMessage(apiclient.StatusCompleted)
	if waiting || !strings.Contains(msg, "No bibliography") {
		t.Errorf("Unexpected message for a finished analysis: %q, waiting %v", msg, waiting)
	}
	if _, waiting := emptyGridMessage(apiclient.StatusError); waiting {
		t.Error("A failed analysis should not show a spinner")
	}
}

func TestDescribeDocument(t *testing.T) {
	one := describeDocument(apiclient.DocumentInfo{TotalPages: 1})
	if !strings.HasPrefix(one, "1 page,") {
		t.Errorf("Unexpected description %q", one)
	}
	many := describeDocument(apiclient.DocumentInfo{TotalPages: 7})
	if !strings.HasPrefix(many, "7 pages,") {
		t.Errorf("Unexpected description %q", many)
	}
}
