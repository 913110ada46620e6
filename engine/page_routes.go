package engine

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/drummonds/bibview/engine/pdfrenderer"
	"github.com/labstack/echo/v4"
)

const (
	thumbnailWidth  = 200
	thumbnailHeight = 260
)

// GetPage renders one page of a document as PNG
// @Summary Render a page
// @Description Rasterise a 1-based page of the document
// @Tags Documents
// @Produce png
// @Param id path string true "Document ULID"
// @Param page path int true "1-based page number"
// @Success 200 {file} binary "PNG image"
// @Failure 400 {object} map[string]interface{} "Page is not a number"
// @Failure 404 {object} map[string]interface{} "Document or page not found"
// @Failure 500 {object} map[string]interface{} "Render failed"
// @Router /document/{id}/page/{page} [get]
func (serverHandler *ServerHandler) GetPage(c echo.Context) error {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Page must be a number")
	}
	doc, err := serverHandler.lookupDocument(c)
	if doc == nil {
		return err
	}
	if page < 1 || page > doc.TotalPages {
		return jsonError(c, http.StatusNotFound, "Page not found")
	}

	return serverHandler.renderPNG(c, doc.Path, page, func(buf *bytes.Buffer, pdf pdfrenderer.Document) error {
		img, err := pdf.RenderPage(page)
		if err != nil {
			return err
		}
		return pdfrenderer.EncodePNG(buf, img, serverHandler.ServerConfig.PageMaxWidth)
	})
}

// GetThumbnail renders a small PNG of the first page
// @Summary Document thumbnail
// @Tags Documents
// @Produce png
// @Param id path string true "Document ULID"
// @Success 200 {file} binary "PNG image"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Router /document/{id}/thumbnail [get]
func (serverHandler *ServerHandler) GetThumbnail(c echo.Context) error {
	doc, err := serverHandler.lookupDocument(c)
	if doc == nil {
		return err
	}
	return serverHandler.renderPNG(c, doc.Path, 1, func(buf *bytes.Buffer, pdf pdfrenderer.Document) error {
		img, err := pdf.RenderPage(1)
		if err != nil {
			return err
		}
		return pdfrenderer.EncodePNG(buf, pdfrenderer.Thumbnail(img, thumbnailWidth, thumbnailHeight), 0)
	})
}

// renderPNG opens the PDF, lets draw fill buf and sends the result
func (serverHandler *ServerHandler) renderPNG(c echo.Context, path string, page int, draw func(*bytes.Buffer, pdfrenderer.Document) error) error {
	pdf, err := serverHandler.Renderer.Open(path)
	if err != nil {
		Logger.Error("Unable to open PDF for rendering", "path", path, "error", err)
		return jsonError(c, http.StatusInternalServerError, "Unable to open document")
	}
	defer pdf.Close()

	var buf bytes.Buffer
	if err := draw(&buf, pdf); err != nil {
		if errors.Is(err, pdfrenderer.ErrPageOutOfRange) {
			return jsonError(c, http.StatusNotFound, "Page not found")
		}
		Logger.Error("Page render failed", "path", path, "page", page, "error", err)
		return jsonError(c, http.StatusInternalServerError, "Render failed")
	}

	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}
