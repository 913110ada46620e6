package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	if err := serverHandler.ServerConfig.CheckUploadPath(); err != nil {
		Logger.Error("Upload folder is unusable", "path", serverHandler.ServerConfig.UploadPath, "error", err)
		return err
	}
	if serverHandler.Renderer == nil {
		return fmt.Errorf("no PDF renderer configured")
	}
	if serverHandler.Checker == nil {
		return fmt.Errorf("no bibliography checker configured")
	}
	missingUploadChecks(serverHandler)
	return nil
}

// missingUploadChecks warns about documents whose stored PDF has gone
func missingUploadChecks(serverHandler *ServerHandler) {
	docs, err := serverHandler.DB.GetRecentDocuments(1000)
	if err != nil {
		Logger.Warn("Unable to list documents for startup checks", "error", err)
		return
	}
	missing := 0
	for _, doc := range docs {
		if _, err := os.Stat(doc.Path); err != nil {
			missing++
			Logger.Warn("Stored PDF missing", "id", doc.ULID.String(), "path", filepath.ToSlash(doc.Path))
		}
	}
	Logger.Info("Upload folder checked", "documents", len(docs), "missing", missing)
}
