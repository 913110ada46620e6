package engine

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/config"
	"github.com/drummonds/bibview/database"
	"github.com/drummonds/bibview/engine/pdfrenderer"
	"github.com/labstack/echo/v4"
)

// NewServerHandler wires the configured renderer and bibliography checker to
// the repository and registers every API route on e. Close releases the
// renderer.
func NewServerHandler(cfg config.ServerConfig, db database.Repository, e *echo.Echo) (*ServerHandler, error) {
	renderer, err := pdfrenderer.NewRenderer(cfg.PDFRenderer, cfg.RenderDPI)
	if err != nil {
		return nil, fmt.Errorf("creating %s renderer: %w", cfg.PDFRenderer, err)
	}

	serverHandler := &ServerHandler{
		DB:           db,
		Echo:         e,
		ServerConfig: cfg,
		Renderer:     renderer,
		Checker:      NewChecker(cfg),
	}
	serverHandler.RegisterRoutes()
	return serverHandler, nil
}

// NewChecker builds a bibliography checker for the configured lookup services
func NewChecker(cfg config.ServerConfig) *bibliography.Checker {
	checker := bibliography.NewChecker(config.UserAgent(cfg.ContactEmail), cfg.ContactEmail)
	if cfg.DOIBaseURL != "" {
		checker.DOIBaseURL = strings.TrimSuffix(cfg.DOIBaseURL, "/")
	}
	if cfg.CrossrefBaseURL != "" {
		checker.CrossrefBaseURL = strings.TrimSuffix(cfg.CrossrefBaseURL, "/")
	}
	return checker
}

// Close releases the renderer. Analyses still running are picked up again
// by the next start.
func (serverHandler *ServerHandler) Close() error {
	if serverHandler.Renderer != nil {
		return serverHandler.Renderer.Close()
	}
	return nil
}

// APIErrorHandler answers unknown /api/* paths with JSON and hands every
// other error to fallback
func APIErrorHandler(fallback echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound && strings.HasPrefix(c.Request().URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}
		fallback(err, c)
	}
}
