package webapp

import (
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// viewerPrefix is the route of the document viewer; the document ULID follows it
const viewerPrefix = "/viewer/"

// App is the root component of the application
type App struct {
	app.Compo
}

// Render renders the app
func (a *App) Render() app.UI {
	return app.Div().
		Class("app-container").
		Body(
			app.Header().Body(
				&NavBar{},
			),
			app.Div().Class("app-layout").Body(
				&Sidebar{},
				app.Main().Class("main-content").Body(
					app.Div().Class("content").Body(
						pageFor(app.Window().URL().Path),
					),
				),
			),
		)
}

// pageFor picks the page component for a route
func pageFor(path string) app.UI {
	if id, ok := viewerDocumentID(path); ok {
		return &ViewerPage{DocID: id}
	}
	switch path {
	case "/":
		return &HomePage{}
	case "/jobs":
		return &JobsPage{}
	case "/about":
		return &AboutPage{}
	default:
		return &NotFoundPage{Path: path}
	}
}

// viewerDocumentID extracts the document ULID from a /viewer/{id} path
func viewerDocumentID(path string) (string, bool) {
	if !strings.HasPrefix(path, viewerPrefix) {
		return "", false
	}
	id := strings.Trim(strings.TrimPrefix(path, viewerPrefix), "/")
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
