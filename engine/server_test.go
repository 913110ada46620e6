package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/config"
	"github.com/labstack/echo/v4"
)

func TestNewCheckerUsesConfiguredServices(t *testing.T) {
	checker := NewChecker(config.ServerConfig{
		DOIBaseURL:      "http://doi.test/",
		CrossrefBaseURL: "http://crossref.test/v1",
		ContactEmail:    "me@example.com",
	})
	if checker.DOIBaseURL != "http://doi.test" {
		t.Errorf("Unexpected DOI base %q", checker.DOIBaseURL)
	}
	if checker.CrossrefBaseURL != "http://crossref.test/v1" {
		t.Errorf("Unexpected Crossref base %q", checker.CrossrefBaseURL)
	}
	if !strings.Contains(checker.UserAgent, "mailto:me@example.com") {
		t.Errorf("User agent should carry the contact address: %q", checker.UserAgent)
	}

	defaults := NewChecker(config.ServerConfig{})
	if defaults.DOIBaseURL != bibliography.DefaultDOIBaseURL {
		t.Errorf("Expected default DOI base, got %q", defaults.DOIBaseURL)
	}
}

func TestNewServerHandlerRejectsUnknownRenderer(t *testing.T) {
	_, err := NewServerHandler(config.ServerConfig{PDFRenderer: "ghostscript"}, nil, echo.New())
	if err == nil {
		t.Fatal("Expected an error for an unknown renderer")
	}
}

func TestAPIErrorHandler(t *testing.T) {
	e := echo.New()
	fallbackCalled := false
	e.HTTPErrorHandler = APIErrorHandler(func(err error, c echo.Context) {
		fallbackCalled = true
		c.String(http.StatusNotFound, "page missing")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"error":"Not Found"`) {
		t.Errorf("Unexpected API 404 %d: %s", rec.Code, rec.Body.String())
	}
	if fallbackCalled {
		t.Error("API paths should not reach the fallback")
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if !fallbackCalled || rec.Body.String() != "page missing" {
		t.Errorf("Other paths should use the fallback, got %q", rec.Body.String())
	}
}

func TestSwaggerDoc(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/swagger.json", nil), rec)
	if err := (&ServerHandler{}).SwaggerDoc(c); err != nil {
		t.Fatalf("SwaggerDoc failed: %v", err)
	}

	var doc struct {
		BasePath string `json:"basePath"`
		Info     struct {
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("API description is not JSON: %v", err)
	}
	if doc.BasePath != "/api" || doc.Info.Version != config.Version {
		t.Errorf("Unexpected base path %q or version %q", doc.BasePath, doc.Info.Version)
	}
	for _, path := range []string{"/status/{id}", "/entries/{id}", "/document/{id}/page/{page}", "/analyze/{id}"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("API description lacks %s", path)
		}
	}
}
