package webapp

import (
	"fmt"

	"github.com/drummonds/bibview/apiclient"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutPage displays information about the application
type AboutPage struct {
	app.Compo
	aboutInfo apiclient.AboutInfo
	loading   bool
	error     string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	a.fetchAboutInfo(ctx)
}

// fetchAboutInfo fetches the about information from the API
func (a *AboutPage) fetchAboutInfo(ctx app.Context) {
	client := apiClient()
	ctx.Async(func() {
		info, err := client.About(ctx)
		ctx.Dispatch(func(ctx app.Context) {
			a.loading = false
			if err != nil {
				a.error = err.Error()
				return
			}
			a.aboutInfo = *info
		})
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About bibview"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About bibview"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	info := a.aboutInfo
	return app.Div().Class("about-page").Body(
		app.H2().Text("About bibview"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Application Information"),
				app.Div().Class("info-grid").Body(
					renderInfoItem("Version", info.Version),
					renderInfoItem("Database", databaseDisplay(info.DatabaseType)),
					renderInfoItem("Renderer", rendererDisplay(info.Renderer, info.RenderDPI)),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Database Configuration"),
				app.Div().Class("config-details").Body(
					detail("Database Type: ", databaseDisplay(info.DatabaseType)),
					app.If(info.DatabaseType != "sqlite", func() app.UI {
						return app.Div().Body(
							detail("Host: ", info.DatabaseHost),
							detail("Port: ", info.DatabasePort),
						)
					}),
					detail("Database Name: ", info.DatabaseName),
					detail("Connection Type: ", connectionType(info.DatabaseType)),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Bibliography Lookups"),
				app.Div().Class("config-details").Body(
					detail("DOI resolver: ", info.DOIBaseURL),
					detail("Crossref API: ", info.CrossrefBaseURL),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Document Storage"),
				app.Div().Class("config-details").Body(
					detail("Upload Path: ", info.UploadPath),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("About bibview"),
				app.P().Text("bibview shows an uploaded PDF page by page next to its bibliography."),
				app.P().Text("Each reference is resolved at doi.org or matched against Crossref while you read."),
			),
		),
	)
}

func detail(label, value string) app.UI {
	return app.P().Body(
		app.Strong().Text(label),
		app.Text(value),
	)
}

// renderInfoItem creates an info item display
func renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// databaseDisplay returns a user-friendly database display name
func databaseDisplay(dbType string) string {
	switch dbType {
	case "postgres":
		return "PostgreSQL"
	case "cockroachdb":
		return "CockroachDB"
	case "sqlite":
		return "SQLite"
	case "ephemeral":
		return "PostgreSQL (ephemeral)"
	default:
		return dbType
	}
}

func rendererDisplay(renderer string, dpi int) string {
	name := renderer
	switch renderer {
	case "", "pdfium":
		name = "PDFium (WebAssembly)"
	case "fitz":
		name = "MuPDF"
	}
	return fmt.Sprintf("%s at %d DPI", name, dpi)
}

// connectionType returns the database connection type
func connectionType(dbType string) string {
	if dbType == "ephemeral" {
		return "Ephemeral (Temporary, On-Disk)"
	}
	return "External (Persistent)"
}
