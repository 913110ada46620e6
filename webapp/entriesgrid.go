package webapp

import (
	"fmt"
	"strings"

	"github.com/drummonds/bibview/apiclient"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// EntriesGrid shows the bibliography of a document, one row per entry with
// the extracted text on the left and the lookup result on the right
type EntriesGrid struct {
	app.Compo
	Entries []apiclient.Entry
	Status  apiclient.Status
	// Analysis is the document's analysis status, used while there are no entries
	Analysis string
}

// Render renders the grid
func (g *EntriesGrid) Render() app.UI {
	if len(g.Entries) == 0 {
		msg, waiting := emptyGridMessage(g.Analysis)
		return app.Div().Class("entries-grid entries-empty").Body(
			app.If(waiting, func() app.UI {
				return app.Span().Class("spinner")
			}),
			app.Text(msg),
		)
	}

	rows := make([]app.UI, 0, len(g.Entries)+1)
	rows = append(rows, app.Div().Class("entries-header").Body(
		app.Div().Class("entry-num").Text("#"),
		app.Div().Class("entry-text").Text("Entry"),
		app.Div().Class("entry-analysis").Text("Check"),
	))
	for _, e := range g.Entries {
		rows = append(rows, renderEntry(e))
	}

	return app.Div().Class("entries").Body(
		app.Div().Class("entries-progress").Text(progressLabel(g.Status)),
		app.Div().Class("entries-grid").Body(rows...),
	)
}

func renderEntry(e apiclient.Entry) app.UI {
	return app.Div().Class(entryClass(e)).Body(
		app.Div().Class("entry-num").Text(e.ID),
		statusCell("entry-text", e.TextStatus, e.Text),
		statusCell("entry-analysis", e.AnalysisStatus, e.Analysis),
	)
}

// statusCell shows a spinner until the half of the entry it displays is done
func statusCell(class, status, content string) app.UI {
	if apiclient.InProgress(status) {
		return app.Div().Class(class+" cell-"+status).Body(
			app.Span().Class("spinner"),
			app.Span().Class("spinner-label").Text(status),
		)
	}
	return app.Div().Class(class + " cell-" + status).Text(content)
}

// entryClass styles a row by the state of both halves and, once checked, by
// whether the work was found
func entryClass(e apiclient.Entry) string {
	classes := []string{
		"entry-row",
		"text-" + orPending(e.TextStatus),
		"analysis-" + orPending(e.AnalysisStatus),
	}
	if e.AnalysisStatus == apiclient.StatusCompleted && e.AnalysisFound != "" {
		classes = append(classes, "entry-"+e.AnalysisFound)
	}
	return strings.Join(classes, " ")
}

func orPending(status string) string {
	if status == "" {
		return apiclient.StatusPending
	}
	return status
}

// emptyGridMessage explains an empty grid and whether more is coming
func emptyGridMessage(analysis string) (string, bool) {
	switch analysis {
	case apiclient.StatusCompleted:
		return "No bibliography found in this document.", false
	case apiclient.StatusError:
		return "The bibliography could not be extracted.", false
	default:
		return " Waiting for the bibliography...", true
	}
}

// progressLabel summarises a status for the header of the grid
func progressLabel(s apiclient.Status) string {
	if s.Total == 0 {
		return "Extracting bibliography..."
	}
	label := fmt.Sprintf("Checked %d of %d entries", s.Completed, s.Total)
	if s.Failed > 0 {
		label += fmt.Sprintf(" (%d failed)", s.Failed)
	}
	if s.Done() {
		label += ", done"
	}
	return label
}
