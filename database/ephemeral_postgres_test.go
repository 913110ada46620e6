package database

import (
	"os/exec"
	"testing"
	"time"

	"github.com/drummonds/bibview/config"
	"github.com/oklog/ulid/v2"
)

func TestEphemeralPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping ephemeral PostgreSQL test in short mode")
	}
	if _, err := exec.LookPath("initdb"); err != nil {
		t.Skip("PostgreSQL binaries not installed")
	}

	db, err := NewRepository(config.ServerConfig{DatabaseType: "ephemeral"})
	if err != nil {
		t.Fatalf("Failed to setup ephemeral postgres database: %v", err)
	}
	defer db.Close()

	doc := &Document{
		ULID:       ulid.Make(),
		Filename:   "paper.pdf",
		Path:       "/test/paper.pdf",
		Hash:       "testhash123",
		TotalPages: 2,
		UploadedAt: time.Now(),
	}
	if err := db.SaveDocument(doc); err != nil {
		t.Fatalf("Failed to save document: %v", err)
	}

	if err := db.ReplaceEntries(doc.ULID.String(), []Entry{{Seq: 1}, {Seq: 2}}); err != nil {
		t.Fatalf("Failed to store entries: %v", err)
	}
	done := Entry{DocumentULID: doc.ULID.String(), Seq: 2, TextStatus: StatusCompleted, AnalysisStatus: StatusCompleted, AnalysisFound: NotFound}
	if err := db.UpdateEntry(&done); err != nil {
		t.Fatalf("Failed to update entry: %v", err)
	}

	status, err := db.GetStatus(doc.ULID.String())
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	if status.Total != 2 || status.Completed != 1 {
		t.Errorf("Expected 1 of 2 completed, got %+v", status)
	}

	if err := db.DeleteDocument(doc.ULID.String()); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}
	t.Log("Ephemeral PostgreSQL round trip completed")
}
