package bibliography

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Default service endpoints
const (
	DefaultDOIBaseURL      = "https://doi.org"
	DefaultCrossrefBaseURL = "https://api.crossref.org/v1"
)

// MatchThreshold is the lowest Crossref score accepted as a match
const MatchThreshold float64 = 85

// ErrDOINotFound is returned when doi.org does not know a DOI
var ErrDOINotFound = errors.New("doi does not exist")

var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[-._;()/:A-Za-z0-9]+`)

// FindDOI returns the first DOI mentioned in an entry, or ""
func FindDOI(entry string) string {
	return strings.TrimRight(doiPattern.FindString(entry), ".,;:)")
}

// Analysis is the outcome of checking one entry
type Analysis struct {
	Found   bool
	Summary string
}

// Checker verifies that bibliography entries refer to real works
type Checker struct {
	DOIBaseURL      string
	CrossrefBaseURL string
	UserAgent       string
	Mailto          string
	HTTPClient      *http.Client
}

// NewChecker creates a checker using the public doi.org and Crossref APIs
func NewChecker(userAgent, mailto string) *Checker {
	return &Checker{
		DOIBaseURL:      DefaultDOIBaseURL,
		CrossrefBaseURL: DefaultCrossrefBaseURL,
		UserAgent:       userAgent,
		Mailto:          mailto,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Check looks an entry up. Entries carrying a DOI are resolved at doi.org;
// the rest are matched against Crossref's bibliographic search.
func (c *Checker) Check(ctx context.Context, entry string) (*Analysis, error) {
	if doi := FindDOI(entry); doi != "" {
		err := c.ResolveDOI(ctx, doi)
		switch {
		case err == nil:
			return &Analysis{Found: true, Summary: fmt.Sprintf("doi.org: %s exists", doi)}, nil
		case errors.Is(err, ErrDOINotFound):
			return &Analysis{Found: false, Summary: fmt.Sprintf("doi.org: %s does not exist", doi)}, nil
		default:
			return nil, err
		}
	}
	return c.matchCrossref(ctx, entry)
}

type doiResponse struct {
	ResponseCode int    `json:"responseCode"`
	Handle       string `json:"handle"`
	Message      string `json:"message,omitempty"`
}

// ResolveDOI asks the doi.org handle API whether doi exists
func (c *Checker) ResolveDOI(ctx context.Context, doi string) error {
	target := fmt.Sprintf("%s/api/handles/%s", strings.TrimSuffix(c.DOIBaseURL, "/"), doi)

	var doiResp doiResponse
	// doi.org answers unknown handles with 404 and a JSON body, so the status code is not checked
	if err := c.getJSON(ctx, target, &doiResp, false); err != nil {
		return err
	}

	switch doiResp.ResponseCode {
	case 1:
		return nil
	case 100:
		return ErrDOINotFound
	case 2:
		return fmt.Errorf("DOI resolution error: %s", doiResp.Message)
	case 200:
		return fmt.Errorf("values not found for DOI: %s", doi)
	default:
		return fmt.Errorf("unknown response code %d: %s", doiResp.ResponseCode, doiResp.Message)
	}
}

// Work is a Crossref work item
type Work struct {
	DOI    string   `json:"DOI"`
	Title  []string `json:"title"`
	Score  float64  `json:"score"`
	Author []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	ContainerTitle []string `json:"container-title"`
}

func (w *Work) String() string {
	var parts []string
	var names []string
	for _, a := range w.Author {
		names = append(names, strings.TrimSpace(a.Given+" "+a.Family))
	}
	if len(names) > 0 {
		parts = append(parts, strings.Join(names, ", "))
	}
	if len(w.Title) > 0 {
		parts = append(parts, `"`+w.Title[0]+`"`)
	}
	if len(w.ContainerTitle) > 0 {
		parts = append(parts, w.ContainerTitle[0])
	}
	if w.DOI != "" {
		parts = append(parts, "doi:"+w.DOI)
	}
	return strings.Join(parts, ", ")
}

type crossrefResponse struct {
	Status  string `json:"status"`
	Message struct {
		Items []Work `json:"items"`
	} `json:"message"`
}

// matchCrossref fetches the two best candidates so that ties can be spotted
func (c *Checker) matchCrossref(ctx context.Context, entry string) (*Analysis, error) {
	params := url.Values{}
	params.Add("query.bibliographic", entry)
	params.Add("rows", "2")
	if c.Mailto != "" {
		params.Add("mailto", c.Mailto)
	}
	target := fmt.Sprintf("%s/works?%s", strings.TrimSuffix(c.CrossrefBaseURL, "/"), params.Encode())

	var resp crossrefResponse
	if err := c.getJSON(ctx, target, &resp, true); err != nil {
		return nil, fmt.Errorf("crossref API error: %w", err)
	}

	items := resp.Message.Items
	if len(items) == 0 {
		return &Analysis{Summary: "crossref: no matches found"}, nil
	}
	best := &items[0]
	if best.Score < MatchThreshold {
		return &Analysis{Summary: fmt.Sprintf("crossref: best match score %.1f below threshold %.0f", best.Score, MatchThreshold)}, nil
	}
	if len(items) > 1 && best.Score-items[1].Score < 0.01 {
		return &Analysis{Summary: "crossref: no conclusive match"}, nil
	}
	return &Analysis{Found: true, Summary: "crossref: " + best.String()}, nil
}

func (c *Checker) getJSON(ctx context.Context, target string, out interface{}, requireOK bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if requireOK && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
