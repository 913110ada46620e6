package webapp

import (
	"fmt"
	"net/url"

	"github.com/drummonds/bibview/apiclient"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// HomePage lets the user upload a PDF and lists the latest uploads
type HomePage struct {
	app.Compo
	documents []apiclient.DocumentInfo
	loading   bool
	error     string
	notice    string
}

// OnMount is called when the component is mounted
func (h *HomePage) OnMount(ctx app.Context) {
	h.loading = true
	h.fetchDocuments(ctx)
}

// fetchDocuments loads the most recent uploads
func (h *HomePage) fetchDocuments(ctx app.Context) {
	client := apiClient()
	ctx.Async(func() {
		docs, err := client.LatestDocuments(ctx)
		ctx.Dispatch(func(ctx app.Context) {
			h.loading = false
			if err != nil {
				h.error = err.Error()
				return
			}
			h.error = ""
			h.documents = docs
		})
	})
}

// onReanalyze starts a fresh check of a document's bibliography
func (h *HomePage) onReanalyze(id string) func(ctx app.Context, e app.Event) {
	return func(ctx app.Context, e app.Event) {
		e.PreventDefault()
		client := apiClient()
		ctx.Async(func() {
			_, err := client.Reanalyze(ctx, id)
			ctx.Dispatch(func(ctx app.Context) {
				if err != nil {
					h.error = err.Error()
					return
				}
				h.notice = "Analysis restarted"
			})
			h.fetchDocuments(ctx)
		})
	}
}

// onDelete removes a document after confirmation
func (h *HomePage) onDelete(doc apiclient.DocumentInfo) func(ctx app.Context, e app.Event) {
	return func(ctx app.Context, e app.Event) {
		e.PreventDefault()
		if !app.Window().Call("confirm", "Delete "+doc.Filename+"?").Bool() {
			return
		}
		client := apiClient()
		ctx.Async(func() {
			err := client.Delete(ctx, doc.ID)
			ctx.Dispatch(func(ctx app.Context) {
				if err != nil {
					h.error = err.Error()
					return
				}
				h.notice = "Deleted " + doc.Filename
			})
			h.fetchDocuments(ctx)
		})
	}
}

// Render renders the home page
func (h *HomePage) Render() app.UI {
	var content app.UI

	if h.loading {
		content = app.Div().Class("loading").Body(app.Text("Loading..."))
	} else if len(h.documents) == 0 {
		content = app.Div().Class("no-results").Body(app.Text("No documents uploaded yet."))
	} else {
		content = app.Div().Class("document-grid").Body(
			app.Range(h.documents).Slice(func(i int) app.UI {
				doc := h.documents[i]
				return app.Div().Class("document-card").Body(
					app.Div().Class("document-icon").Body(app.Text("📄")),
					app.Div().Class("document-info").Body(
						app.H3().Body(
							app.A().Href(viewerPrefix+url.PathEscape(doc.ID)).Text(doc.Filename),
						),
						app.P().Class("document-date").Text(describeDocument(doc)),
						app.Span().
							Class("analysis-badge analysis-"+orPending(doc.AnalysisStatus)).
							Text(orPending(doc.AnalysisStatus)),
						app.Div().Class("document-actions").Body(
							app.A().
								Href(viewerPrefix+url.PathEscape(doc.ID)).
								Class("document-link").
								Text("Open viewer"),
							app.Button().
								Class("btn-secondary").
								OnClick(h.onReanalyze(doc.ID)).
								Text("Re-check"),
							app.Button().
								Class("btn-danger").
								OnClick(h.onDelete(doc)).
								Text("Delete"),
						),
					),
				)
			}),
		)
	}

	return app.Div().
		Class("home-page").
		Body(
			app.H2().Text("Check a bibliography"),
			app.P().Text("Upload a PDF. Its references are extracted and each one is looked up while you read."),
			app.Form().
				Class("upload-form").
				Action(BuildAPIURL("/api/document/upload")).
				Method("post").
				EncType("multipart/form-data").
				Body(
					app.Input().
						Type("file").
						Name("pdf").
						Accept(".pdf,application/pdf").
						Required(true),
					app.Button().
						Type("submit").
						Class("btn-primary").
						Text("Upload"),
				),
			app.If(h.notice != "", func() app.UI {
				return app.Div().Class("info").Text(h.notice)
			}),
			app.If(h.error != "", func() app.UI {
				return app.Div().Class("error").Text("Error: " + h.error)
			}),
			app.H2().Text("Latest Documents"),
			content,
		)
}

// describeDocument is the one-line summary under a document's name
func describeDocument(doc apiclient.DocumentInfo) string {
	pages := "pages"
	if doc.TotalPages == 1 {
		pages = "page"
	}
	return fmt.Sprintf("%d %s, uploaded %s", doc.TotalPages, pages, doc.UploadedAt.Format("Jan 2, 2006 at 3:04 PM"))
}
