package webapp

import (
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// RegisterRoutes tells go-app which paths belong to the app. Every route
// renders the App component, which includes the navbar and sidebar.
func RegisterRoutes() {
	app.Route("/", func() app.Composer { return &App{} })
	app.RouteWithRegexp("^/viewer/[^/]+$", func() app.Composer { return &App{} })
	app.Route("/jobs", func() app.Composer { return &App{} })
	app.Route("/about", func() app.Composer { return &App{} })
}

// Handler returns an HTTP handler for the web app
func Handler() http.Handler {
	RegisterRoutes()
	app.RunWhenOnBrowser()

	// wasm_exec.js is served at /wasm_exec.js by Echo
	// app.wasm is served from /web/app.wasm by Echo
	return &app.Handler{
		Name:        "bibview",
		Title:       "bibview",
		Description: "Bibliography checker and PDF viewer",
		Icon: app.Icon{
			Default: "/favicon.ico",
		},
		Styles: []string{
			"/webapp/webapp.css",
		},
		Scripts: []string{
			"/config.js", // Load backend API configuration
		},
		RawHeaders: []string{
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		},
	}
}
