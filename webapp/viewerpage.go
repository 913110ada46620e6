package webapp

import (
	"context"
	"fmt"
	"net/url"

	"github.com/drummonds/bibview/apiclient"
	"github.com/drummonds/bibview/viewer"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// ViewerPage shows one page of an uploaded PDF next to its bibliography.
// Page turns go through a coalescer so that clicking quickly never queues
// more than one extra render, and the entries grid is fed by a poller that
// stops once every entry has been checked.
type ViewerPage struct {
	app.Compo
	DocID string

	info      *apiclient.DocumentInfo
	coalescer *viewer.Coalescer
	page      int
	imageSrc  string
	drawnPage int
	renderErr string
	loadErr   string

	entries []apiclient.Entry
	status  apiclient.Status
	pollErr string
}

// OnMount loads the document, shows its first page and starts polling
func (v *ViewerPage) OnMount(ctx app.Context) {
	v.page = 1
	client := apiClient()

	ctx.Async(func() {
		info, err := client.Document(ctx, v.DocID)
		if err != nil {
			ctx.Dispatch(func(ctx app.Context) {
				v.loadErr = err.Error()
			})
			return
		}

		doc := &remoteDocument{client: client, id: v.DocID, pages: info.TotalPages, draw: v.drawer(ctx)}
		c := viewer.NewCoalescer(ctx, doc)
		c.OnPage = func(page int) {
			ctx.Dispatch(func(ctx app.Context) {
				v.page = page
			})
		}
		c.OnError = func(page int, err error) {
			ctx.Dispatch(func(ctx app.Context) {
				v.renderErr = fmt.Sprintf("Page %d could not be rendered: %v", page, err)
			})
		}

		ctx.Dispatch(func(ctx app.Context) {
			v.info = info
			v.coalescer = c
			c.RequestPage(1)
		})

		v.poll(ctx, client)
	})
}

// drawer returns the surface the coalescer draws on: it swaps the page image
// and waits until the UI goroutine has taken it
func (v *ViewerPage) drawer(ctx app.Context) func(context.Context, int, string) error {
	return func(renderCtx context.Context, page int, src string) error {
		done := make(chan struct{})
		ctx.Dispatch(func(ctx app.Context) {
			v.imageSrc = src
			v.drawnPage = page
			v.renderErr = ""
			close(done)
		})
		select {
		case <-done:
			return nil
		case <-renderCtx.Done():
			return renderCtx.Err()
		}
	}
}

// poll runs until the analysis is complete or the page is left
func (v *ViewerPage) poll(ctx app.Context, client *apiclient.Client) {
	p := &viewer.Poller{
		Source:   client,
		DocID:    v.DocID,
		Interval: pollInterval(),
		OnEntries: func(entries []apiclient.Entry) {
			ctx.Dispatch(func(ctx app.Context) {
				v.entries = entries
				v.pollErr = ""
			})
		},
		OnStatus: func(status apiclient.Status) {
			var analysis string
			if status.Total == 0 {
				// no entries yet: the document row says whether any will come
				if info, err := client.Document(ctx, v.DocID); err == nil {
					analysis = info.AnalysisStatus
				}
			}
			ctx.Dispatch(func(ctx app.Context) {
				v.status = status
				if analysis != "" && v.info != nil {
					v.info.AnalysisStatus = analysis
				}
			})
		},
		OnError: func(err error) {
			ctx.Dispatch(func(ctx app.Context) {
				v.pollErr = err.Error()
			})
		},
	}
	if err := p.Run(ctx); err != nil {
		app.Log("bibliography polling stopped:", err)
	}
}

func (v *ViewerPage) onPrev(ctx app.Context, e app.Event) {
	if v.coalescer != nil {
		v.coalescer.Prev()
	}
}

func (v *ViewerPage) onNext(ctx app.Context, e app.Event) {
	if v.coalescer != nil {
		v.coalescer.Next()
	}
}

// Render renders the viewer
func (v *ViewerPage) Render() app.UI {
	if v.loadErr != "" {
		return app.Div().Class("viewer-page").Body(
			app.H2().Text("Document"),
			app.Div().Class("error").Body(app.Text("Error: "+v.loadErr)),
			app.A().Href("/").Text("Back to documents"),
		)
	}
	if v.info == nil {
		return app.Div().Class("viewer-page").Body(
			app.Div().Class("loading").Body(app.Text("Loading document...")),
		)
	}

	return app.Div().Class("viewer-page").Body(
		app.Div().Class("viewer-header").Body(
			app.H2().Text(v.info.Filename),
			app.A().
				Class("viewer-download").
				Href(BuildAPIURL("/document/view/"+url.PathEscape(v.DocID))).
				Target("_blank").
				Text("Open PDF"),
		),
		app.Div().Class("viewer-layout").Body(
			app.Div().Class("viewer-pane").Body(
				app.Div().Class("viewer-controls").Body(
					app.Button().
						Class("btn-primary").
						ID("prev").
						Disabled(v.page <= 1).
						OnClick(v.onPrev).
						Text("Previous"),
					app.Span().Class("page-indicator").Text(pageIndicator(v.page, v.info.TotalPages)),
					app.Button().
						Class("btn-primary").
						ID("next").
						Disabled(v.page >= v.info.TotalPages).
						OnClick(v.onNext).
						Text("Next"),
				),
				app.If(v.renderErr != "", func() app.UI {
					return app.Div().Class("render-error").Text(v.renderErr)
				}),
				app.If(v.imageSrc != "", func() app.UI {
					return app.Img().
						Class("page-image").
						Src(v.imageSrc).
						Alt(fmt.Sprintf("Page %d", v.drawnPage))
				}).Else(func() app.UI {
					return app.Div().Class("page-placeholder").Body(app.Span().Class("spinner"))
				}),
			),
			app.Div().Class("entries-pane").Body(
				app.H3().Text("Bibliography"),
				app.If(v.pollErr != "", func() app.UI {
					return app.Div().Class("poll-error").Text("Could not refresh entries: " + v.pollErr)
				}),
				&EntriesGrid{Entries: v.entries, Status: v.status, Analysis: v.info.AnalysisStatus},
			),
		),
	)
}

// pageIndicator is shown between the page buttons
func pageIndicator(page, total int) string {
	return fmt.Sprintf("Page %d of %d", page, total)
}
