package webapp

import (
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// NotFoundPage is shown for any path that is not a page of the app
type NotFoundPage struct {
	app.Compo
	Path string
}

func (p *NotFoundPage) Render() app.UI {
	return app.Div().Class("not-found-page").Body(
		app.Div().Class("not-found-container").Body(
			app.H1().Class("not-found-title").Text("404"),
			app.P().Class("not-found-message").Text(notFoundMessage(p.Path)),
			app.A().Href("/").Class("not-found-home-link").Text("📄 Back to documents"),
		),
	)
}

// notFoundMessage names the missing path, and points at the viewer URL form
// when the path looks like a mistyped viewer link
func notFoundMessage(path string) string {
	if path == "" {
		return "Page not found."
	}
	msg := "Nothing lives at " + path + "."
	if strings.HasPrefix(path, strings.TrimSuffix(viewerPrefix, "/")) {
		msg += " Documents open at " + viewerPrefix + "<document id>."
	}
	return msg
}
