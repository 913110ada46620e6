package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is returned when the backend answers with a non-2xx status
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the bibview backend API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the backend at baseURL (no trailing slash needed)
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Document fetches the metadata of an uploaded document
func (c *Client) Document(ctx context.Context, docID string) (*DocumentInfo, error) {
	var info DocumentInfo
	if err := c.getJSON(ctx, "/api/document/"+url.PathEscape(docID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// LatestDocuments fetches the most recently uploaded documents
func (c *Client) LatestDocuments(ctx context.Context) ([]DocumentInfo, error) {
	var docs []DocumentInfo
	if err := c.getJSON(ctx, "/api/documents/latest", &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Status fetches the analysis progress of a document
func (c *Client) Status(ctx context.Context, docID string) (*Status, error) {
	var status Status
	if err := c.getJSON(ctx, "/api/status/"+url.PathEscape(docID), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Entries fetches the bibliography entries of a document in order
func (c *Client) Entries(ctx context.Context, docID string) ([]Entry, error) {
	var entries []Entry
	if err := c.getJSON(ctx, "/api/entries/"+url.PathEscape(docID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PageURL returns the address of the rendered PNG for a 1-based page
func (c *Client) PageURL(docID string, page int) string {
	return fmt.Sprintf("%s/api/document/%s/page/%d", c.BaseURL, url.PathEscape(docID), page)
}

// PagePNG fetches the rendered PNG for a 1-based page
func (c *Client) PagePNG(ctx context.Context, docID string, page int) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, c.PageURL(docID, page), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", page, err)
	}
	return data, nil
}

// Upload sends a PDF to the backend, which starts analysing it straight away
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("pdf", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.BaseURL+"/api/document/upload", body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

// About fetches the backend's configuration summary
func (c *Client) About(ctx context.Context) (*AboutInfo, error) {
	var info AboutInfo
	if err := c.getJSON(ctx, "/api/about", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RecentJobs fetches up to limit jobs, newest first
func (c *Client) RecentJobs(ctx context.Context, limit int) ([]Job, error) {
	var jobs []Job
	if err := c.getJSON(ctx, fmt.Sprintf("/api/jobs?limit=%d", limit), &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ActiveJobs fetches the jobs that are pending or running
func (c *Client) ActiveJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := c.getJSON(ctx, "/api/jobs/active", &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Delete removes a document, its entries and the stored PDF
func (c *Client) Delete(ctx context.Context, docID string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.BaseURL+"/api/document/"+url.PathEscape(docID), nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Reanalyze discards the entries of a document and checks its bibliography
// again, returning the new job ID
func (c *Client) Reanalyze(ctx context.Context, docID string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.BaseURL+"/api/analyze/"+url.PathEscape(docID), nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		JobID string `json:"jobId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode analyze response: %w", err)
	}
	return result.JobID, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, c.BaseURL+path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// do performs the request and turns non-2xx answers into *APIError
func (c *Client) do(ctx context.Context, method, target string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(bodyBytes, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(bodyBytes))
		}
		return nil, apiErr
	}
	return resp, nil
}
