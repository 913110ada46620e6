package engine

import (
	"net/http"
	"strconv"

	"github.com/drummonds/bibview/apiclient"
	"github.com/drummonds/bibview/database"
	"github.com/labstack/echo/v4"
)

// GetStatus reports how far the analysis of a document has got
// @Summary Analysis progress
// @Description Completed counts finished entries, failed ones included; polling may stop once completed equals a non-zero total
// @Tags Analysis
// @Produce json
// @Param id path string true "Document ULID"
// @Success 200 {object} apiclient.Status "Progress counts"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Router /status/{id} [get]
func (serverHandler *ServerHandler) GetStatus(c echo.Context) error {
	doc, err := serverHandler.lookupDocument(c)
	if doc == nil {
		return err
	}
	status, err := serverHandler.DB.GetStatus(doc.ULID.String())
	if err != nil {
		Logger.Error("Failed to count entries", "id", doc.ULID.String(), "error", err)
		return jsonError(c, http.StatusInternalServerError, "Failed to fetch status")
	}
	return c.JSON(http.StatusOK, apiclient.Status{
		Completed: status.Completed,
		Total:     status.Total,
		Failed:    status.Failed,
	})
}

// GetEntries returns the bibliography of a document in order
// @Summary Bibliography entries
// @Tags Analysis
// @Produce json
// @Param id path string true "Document ULID"
// @Success 200 {array} apiclient.Entry "Entries in bibliography order"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Router /entries/{id} [get]
func (serverHandler *ServerHandler) GetEntries(c echo.Context) error {
	doc, err := serverHandler.lookupDocument(c)
	if doc == nil {
		return err
	}
	entries, err := serverHandler.DB.GetEntries(doc.ULID.String())
	if err != nil {
		Logger.Error("Failed to fetch entries", "id", doc.ULID.String(), "error", err)
		return jsonError(c, http.StatusInternalServerError, "Failed to fetch entries")
	}

	out := make([]apiclient.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAPIEntry(e))
	}
	return c.JSON(http.StatusOK, out)
}

// Reanalyze throws away the entries of a document and analyses it again
// @Summary Re-run the analysis
// @Tags Analysis
// @Produce json
// @Param id path string true "Document ULID"
// @Success 200 {object} map[string]interface{} "Job created with jobId"
// @Failure 404 {object} map[string]interface{} "Document not found"
// @Failure 409 {object} map[string]interface{} "Analysis already running"
// @Router /analyze/{id} [post]
func (serverHandler *ServerHandler) Reanalyze(c echo.Context) error {
	doc, err := serverHandler.lookupDocument(c)
	if doc == nil {
		return err
	}
	job, err := serverHandler.StartAnalysis(doc)
	if err == errAnalysisRunning {
		return jsonError(c, http.StatusConflict, "Analysis already running")
	}
	if err != nil {
		Logger.Error("Failed to start analysis", "id", doc.ULID.String(), "error", err)
		return jsonError(c, http.StatusInternalServerError, "Failed to start analysis")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Analysis started",
		"jobId":   job.ID.String(),
	})
}

func toAPIEntry(e database.Entry) apiclient.Entry {
	return apiclient.Entry{
		ID:             strconv.Itoa(e.Seq),
		Text:           e.Text,
		TextStatus:     e.TextStatus,
		Analysis:       e.Analysis,
		AnalysisStatus: e.AnalysisStatus,
		AnalysisFound:  e.AnalysisFound,
	}
}
