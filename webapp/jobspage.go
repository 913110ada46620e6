package webapp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/drummonds/bibview/apiclient"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// JobsPage displays and manages background jobs
type JobsPage struct {
	app.Compo
	jobs        []apiclient.Job
	loading     bool
	error       string
	autoRefresh bool
}

// OnMount loads the jobs and reloads them every poll interval while
// auto-refresh is on. The loop ends with the page.
func (j *JobsPage) OnMount(ctx app.Context) {
	j.autoRefresh = true
	j.loadJobs(ctx)

	ctx.Async(func() {
		ticker := time.NewTicker(pollInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if j.autoRefresh {
					j.loadJobs(ctx)
				}
			}
		}
	})
}

// Render renders the jobs page
func (j *JobsPage) Render() app.UI {
	return app.Div().
		Class("jobs-page").
		Body(
			app.H2().Text("Background Jobs"),
			app.P().Text("Bibliography checks and housekeeping run in the background. Their progress is shown here."),

			app.Div().Class("jobs-controls").Body(
				app.Button().
					Class("btn-primary").
					OnClick(j.onRefreshClick).
					Disabled(j.loading).
					Body(app.Text("Refresh")),
				app.Label().Class("auto-refresh-label").Body(
					app.Input().
						Type("checkbox").
						Checked(j.autoRefresh).
						OnChange(j.onAutoRefreshChange),
					app.Text(" Auto-refresh"),
				),
			),

			j.renderStatus(),
		)
}

// renderStatus renders the jobs list or status messages
func (j *JobsPage) renderStatus() app.UI {
	if j.loading && len(j.jobs) == 0 {
		return app.Div().Class("loading").Body(
			app.Text("Loading jobs..."),
		)
	}

	if j.error != "" {
		return app.Div().Class("error").Body(
			app.Text("Error: " + j.error),
		)
	}

	if len(j.jobs) == 0 {
		return app.Div().Class("info").Body(
			app.P().Text("No jobs found. A job is created for every uploaded PDF."),
		)
	}

	items := make([]app.UI, 0, len(j.jobs))
	for i := range j.jobs {
		items = append(items, j.renderJob(&j.jobs[i]))
	}
	return app.Div().Class("jobs-list").Body(items...)
}

// renderJob renders a single job card
func (j *JobsPage) renderJob(job *apiclient.Job) app.UI {
	return app.Div().
		Class("job-card job-"+job.Status).
		Body(
			app.Div().Class("job-header").Body(
				app.Div().Class("job-type").Body(
					app.Strong().Text(formatJobType(job.Type)),
					app.Span().Class("job-status-badge job-status-"+job.Status).
						Body(app.Text(job.Status)),
				),
				app.Div().Class("job-time").Body(
					app.Text(formatTime(job.CreatedAt, time.Now())),
				),
			),

			app.If(job.Status == "running",
				func() app.UI {
					return app.Div().Class("job-progress").Body(
						app.Div().Class("progress-bar").Body(
							app.Div().
								Class("progress-fill").
								Style("width", fmt.Sprintf("%d%%", job.Progress)),
						),
						app.Div().Class("progress-text").Body(
							app.Text(fmt.Sprintf("%d%% - %s", job.Progress, job.CurrentStep)),
						),
					)
				},
			),

			app.If(job.Message != "",
				func() app.UI {
					return app.Div().Class("job-message").Body(
						app.Text(job.Message),
					)
				},
			),

			app.If(job.Error != "",
				func() app.UI {
					return app.Div().Class("job-error").Body(
						app.Strong().Text("Error: "),
						app.Text(job.Error),
					)
				},
			),

			app.If(job.Result != "",
				func() app.UI {
					return j.renderResult(job.Result)
				},
			),

			app.Div().Class("job-footer").Body(
				app.Div().Class("job-id").Body(
					app.Text("ID: " + job.ID),
				),
				app.If(job.CompletedAt != nil,
					func() app.UI {
						return app.Div().Class("job-completed").Body(
							app.Text("Completed: " + formatTime(*job.CompletedAt, time.Now())),
						)
					},
				),
			),
		)
}

// renderResult shows a job summary, linking analyses to their document
func (j *JobsPage) renderResult(result string) app.UI {
	text, docID := formatResult(result)
	div := app.Div().Class("job-result")
	if docID == "" {
		return div.Body(app.Text(text))
	}
	return div.Body(
		app.Text(text+" "),
		app.A().Href(viewerPrefix+docID).Text("Open document"),
	)
}

// formatJobType converts job type to readable format
func formatJobType(jobType string) string {
	switch jobType {
	case "analysis":
		return "Bibliography Check"
	case "cleanup":
		return "Job Cleanup"
	case "":
		return "Job"
	default:
		return strings.ToUpper(jobType[:1]) + jobType[1:]
	}
}

// formatTime formats a timestamp relative to now when it is recent
func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)

	if diff < time.Minute {
		return "Just now"
	} else if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	} else if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}

	return t.Format("Jan 2, 2006 at 3:04 PM")
}

// formatResult turns a job's JSON result into a line of text and, for
// analyses, the ID of the document that was checked
func formatResult(result string) (string, string) {
	var data struct {
		DocumentID string `json:"documentId"`
		Entries    *int   `json:"entries"`
		Found      int    `json:"found"`
		NotFound   int    `json:"notFound"`
		Errors     int    `json:"errors"`
		Deleted    *int   `json:"deleted"`
	}
	if err := json.Unmarshal([]byte(result), &data); err != nil {
		return result, ""
	}

	var parts []string
	if data.Entries != nil {
		parts = append(parts, fmt.Sprintf("Entries: %d", *data.Entries))
		parts = append(parts, fmt.Sprintf("Found: %d", data.Found))
		parts = append(parts, fmt.Sprintf("Not found: %d", data.NotFound))
		if data.Errors > 0 {
			parts = append(parts, fmt.Sprintf("Errors: %d", data.Errors))
		}
	}
	if data.Deleted != nil {
		parts = append(parts, fmt.Sprintf("Deleted: %d", *data.Deleted))
	}

	if len(parts) == 0 {
		return result, data.DocumentID
	}
	return strings.Join(parts, ", "), data.DocumentID
}

// onRefreshClick handles the refresh button click
func (j *JobsPage) onRefreshClick(ctx app.Context, e app.Event) {
	j.loadJobs(ctx)
}

// onAutoRefreshChange handles auto-refresh checkbox change
func (j *JobsPage) onAutoRefreshChange(ctx app.Context, e app.Event) {
	j.autoRefresh = ctx.JSSrc().Get("checked").Bool()
	ctx.Update()
}

// loadJobs fetches jobs from the API
func (j *JobsPage) loadJobs(ctx app.Context) {
	ctx.Dispatch(func(ctx app.Context) {
		j.loading = true
	})

	client := apiClient()
	ctx.Async(func() {
		jobs, err := client.RecentJobs(ctx, 50)
		ctx.Dispatch(func(ctx app.Context) {
			j.loading = false
			if err != nil {
				j.error = err.Error()
				return
			}
			j.error = ""
			j.jobs = jobs
		})
	})
}
