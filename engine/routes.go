package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/drummonds/bibview/apiclient"
	"github.com/drummonds/bibview/bibliography"
	"github.com/drummonds/bibview/config"
	"github.com/drummonds/bibview/database"
	"github.com/drummonds/bibview/engine/pdfrenderer"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"

	"github.com/drummonds/bibview/docs"
)

// EntryChecker looks up a single bibliography entry
type EntryChecker interface {
	Check(ctx context.Context, entry string) (*bibliography.Analysis, error)
}

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB           database.Repository
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	Renderer     pdfrenderer.Renderer
	Checker      EntryChecker

	analyses sync.WaitGroup
	running  sync.Map // document ULID -> struct{} while an analysis runs
}

// RegisterRoutes adds every backend endpoint to the echo instance
func (serverHandler *ServerHandler) RegisterRoutes() {
	e := serverHandler.Echo

	// Document API routes
	e.POST("/api/document/upload", serverHandler.UploadDocument)
	e.GET("/api/documents/latest", serverHandler.GetLatestDocuments)
	e.GET("/api/document/:id", serverHandler.GetDocument)
	e.DELETE("/api/document/:id", serverHandler.DeleteDocument)
	e.GET("/api/document/:id/page/:page", serverHandler.GetPage)
	e.GET("/api/document/:id/thumbnail", serverHandler.GetThumbnail)

	// Analysis API routes
	e.GET("/api/status/:id", serverHandler.GetStatus)
	e.GET("/api/entries/:id", serverHandler.GetEntries)
	e.POST("/api/analyze/:id", serverHandler.Reanalyze)

	// Job tracking API routes
	e.GET("/api/jobs", serverHandler.GetRecentJobs)
	e.GET("/api/jobs/active", serverHandler.GetActiveJobs)
	e.GET("/api/jobs/:id", serverHandler.GetJob)

	// Admin API routes
	e.GET("/api/about", serverHandler.GetAboutInfo)
	e.GET("/api/health", serverHandler.Health)
	e.GET("/api/swagger.json", serverHandler.SwaggerDoc)

	// Raw PDF, not JSON so not under /api/*
	e.GET("/document/view/:id", serverHandler.ViewDocument)
}

func jsonError(c echo.Context, code int, message string) error {
	return c.JSON(code, map[string]interface{}{
		"error": message,
	})
}

// lookupDocument fetches the document named by the :id parameter, writing
// the error response itself when that fails
func (serverHandler *ServerHandler) lookupDocument(c echo.Context) (*database.Document, error) {
	ulidStr := c.Param("id")
	doc, err := serverHandler.DB.GetDocument(ulidStr)
	if errors.Is(err, database.ErrNotFound) {
		return nil, jsonError(c, http.StatusNotFound, "Document not found")
	}
	if err != nil {
		Logger.Error("Failed to fetch document", "id", ulidStr, "error", err)
		return nil, jsonError(c, http.StatusInternalServerError, "Failed to fetch document")
	}
	return doc, nil
}

func toDocumentInfo(doc *database.Document) apiclient.DocumentInfo {
	return apiclient.DocumentInfo{
		ID:             doc.ULID.String(),
		Filename:       doc.Filename,
		TotalPages:     doc.TotalPages,
		UploadedAt:     doc.UploadedAt,
		AnalysisStatus: doc.AnalysisStatus,
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// storedName is the name an upload is kept under in the upload folder
func storedName(ulidStr, filename string) string {
	base := unsafeFilename.ReplaceAllString(filepath.Base(filename), "_")
	return ulidStr + "_" + base
}

// UploadDocument stores an uploaded PDF and starts analysing its bibliography
// @Summary Upload a PDF
// @Description Store a PDF, count its pages and start the bibliography analysis
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param pdf formData file true "PDF file to upload"
// @Success 200 {object} apiclient.UploadResult "Document and job IDs"
// @Success 302 "Redirect to the viewer when the client accepts HTML"
// @Failure 400 {object} map[string]interface{} "No file or not a PDF"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /document/upload [post]
func (serverHandler *ServerHandler) UploadDocument(c echo.Context) error {
	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "No file uploaded")
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		return jsonError(c, http.StatusBadRequest, "Only PDF files are supported")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Unable to read upload")
	}
	defer src.Close()

	uploadPath := serverHandler.ServerConfig.UploadPath
	if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
		Logger.Error("Unable to create upload folder", "path", uploadPath, "error", err)
		return jsonError(c, http.StatusInternalServerError, "Unable to store upload")
	}
	tmp, err := os.CreateTemp(uploadPath, "upload-*.pdf")
	if err != nil {
		Logger.Error("Unable to create upload file", "path", uploadPath, "error", err)
		return jsonError(c, http.StatusInternalServerError, "Unable to store upload")
	}
	_, err = io.Copy(tmp, src)
	tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		Logger.Error("Unable to write uploaded file", "path", tmp.Name(), "error", err)
		return jsonError(c, http.StatusInternalServerError, "Unable to store upload")
	}

	result, err := serverHandler.ingestUpload(fileHeader.Filename, tmp.Name())
	if err != nil {
		os.Remove(tmp.Name())
		var badPDF *badPDFError
		if errors.As(err, &badPDF) {
			return jsonError(c, http.StatusBadRequest, badPDF.Error())
		}
		Logger.Error("Upload failed", "filename", fileHeader.Filename, "error", err)
		return jsonError(c, http.StatusInternalServerError, "Upload failed")
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML) {
		return c.Redirect(http.StatusFound, "/viewer/"+result.ID)
	}
	return c.JSON(http.StatusOK, result)
}

type badPDFError struct{ err error }

func (e *badPDFError) Error() string { return "Not a readable PDF: " + e.err.Error() }
func (e *badPDFError) Unwrap() error { return e.err }

// ingestUpload turns a freshly written temporary file into a stored document
func (serverHandler *ServerHandler) ingestUpload(filename, tmpPath string) (*apiclient.UploadResult, error) {
	pages, err := pdfrenderer.PageCount(serverHandler.Renderer, tmpPath)
	if err != nil {
		return nil, &badPDFError{err}
	}

	doc, err := database.NewDocument(filename, tmpPath, pages)
	if err != nil {
		return nil, err
	}

	existing, err := serverHandler.DB.GetDocumentByHash(doc.Hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		Logger.Info("Duplicate upload, reusing document", "filename", filename, "id", existing.ULID.String())
		os.Remove(tmpPath)
		return &apiclient.UploadResult{ID: existing.ULID.String(), Duplicate: true}, nil
	}

	doc.Path = filepath.Join(serverHandler.ServerConfig.UploadPath, storedName(doc.ULID.String(), filename))
	if err := os.Rename(tmpPath, doc.Path); err != nil {
		return nil, fmt.Errorf("moving upload into place: %w", err)
	}
	if err := serverHandler.DB.SaveDocument(doc); err != nil {
		os.Remove(doc.Path)
		return nil, fmt.Errorf("saving document: %w", err)
	}
	Logger.Info("Document uploaded", "filename", doc.Filename, "id", doc.ULID.String(), "pages", pages)

	job, err := serverHandler.StartAnalysis(doc)
	if err != nil {
		return nil, err
	}
	return &apiclient.UploadResult{ID: doc.ULID.String(), JobID: job.ID.String()}, nil
}

// GetDocument will return a document by ULID
// @Summary Get a document by ID
// @Tags Documents
// @Produce json
// @Param id path string true "Document ULID"
// @Success 200 {object} apiclient.DocumentInfo "Document details"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Router /document/{id} [get]
func (serverHandler *ServerHandler) GetDocument(c echo.Context) error {
	doc, err := serverHandler.lookupDocument(c)
	if doc == nil {
		return err
	}
	return c.JSON(http.StatusOK, toDocumentInfo(doc))
}

// GetLatestDocuments returns the most recent uploads
// @Summary Get latest documents
// @Tags Documents
// @Produce json
// @Param limit query int false "Number of documents (default from RECENT_DOCUMENT_COUNT)"
// @Success 200 {array} apiclient.DocumentInfo "Newest documents first"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /documents/latest [get]
func (serverHandler *ServerHandler) GetLatestDocuments(c echo.Context) error {
	limit := serverHandler.ServerConfig.RecentDocumentCount
	if limit <= 0 {
		limit = 10
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	docs, err := serverHandler.DB.GetRecentDocuments(limit)
	if err != nil {
		Logger.Error("Can't find latest documents", "error", err)
		return jsonError(c, http.StatusInternalServerError, "Failed to fetch documents")
	}

	infos := make([]apiclient.DocumentInfo, 0, len(docs))
	for i := range docs {
		infos = append(infos, toDocumentInfo(&docs[i]))
	}
	return c.JSON(http.StatusOK, infos)
}

// DeleteDocument removes a document, its entries and the stored PDF
// @Summary Delete a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ULID"
// @Success 200 {object} map[string]interface{} "Document deleted"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Failure 409 {object} map[string]interface{} "Analysis still running"
// @Router /document/{id} [delete]
func (serverHandler *ServerHandler) DeleteDocument(c echo.Context) error {
	ulidStr := c.Param("id")
	if _, busy := serverHandler.running.Load(ulidStr); busy {
		return jsonError(c, http.StatusConflict, "Analysis still running")
	}
	err := database.RemoveDocument(ulidStr, serverHandler.DB)
	if errors.Is(err, database.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "Document not found")
	}
	if err != nil {
		Logger.Error("Unable to delete document", "id", ulidStr, "error", err)
		return jsonError(c, http.StatusInternalServerError, "Unable to delete document")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Document deleted",
	})
}

// ViewDocument serves the stored PDF itself
func (serverHandler *ServerHandler) ViewDocument(c echo.Context) error {
	doc, err := serverHandler.lookupDocument(c)
	if doc == nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", doc.Filename))
	return c.File(doc.Path)
}

// GetAboutInfo returns information about the application configuration
// @Summary Get application information
// @Tags Admin
// @Produce json
// @Success 200 {object} apiclient.AboutInfo "Application information"
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(c echo.Context) error {
	cfg := serverHandler.ServerConfig
	return c.JSON(http.StatusOK, apiclient.AboutInfo{
		Version:         config.Version,
		DatabaseType:    cfg.DatabaseType,
		DatabaseHost:    cfg.DatabaseHost,
		DatabasePort:    cfg.DatabasePort,
		DatabaseName:    cfg.DatabaseDbname,
		UploadPath:      cfg.UploadPath,
		Renderer:        cfg.PDFRenderer,
		RenderDPI:       cfg.RenderDPI,
		DOIBaseURL:      cfg.DOIBaseURL,
		CrossrefBaseURL: cfg.CrossrefBaseURL,
	})
}

// Health reports that the API is up
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string "healthy"
// @Router /health [get]
func (serverHandler *ServerHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "bibview Backend API",
	})
}

// SwaggerDoc serves the OpenAPI description registered by the docs package,
// stamped with the running version
func (serverHandler *ServerHandler) SwaggerDoc(c echo.Context) error {
	docs.SwaggerInfo.Version = config.Version
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		Logger.Error("Failed to read API description", "error", err)
		return jsonError(c, http.StatusInternalServerError, "API description unavailable")
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(doc))
}
