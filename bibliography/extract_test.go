package bibliography

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/drummonds/bibview/internal/testpdf"
)

func TestSplitEntriesBracketed(t *testing.T) {
	text := `Introduction. As shown in [2], things work.
References
[1] A. Author, First paper, 2019.
[2] B. Author, Second paper
    continued on the next line, 2020. See also [1].
[3] C. Author, Third paper, 2021.`

	entries := SplitEntries(text)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d: %q", len(entries), entries)
	}
	if entries[0] != "A. Author, First paper, 2019." {
		t.Errorf("Unexpected first entry %q", entries[0])
	}
	if entries[1] != "B. Author, Second paper continued on the next line, 2020. See also [1]." {
		t.Errorf("Whitespace should be collapsed and inner citations kept, got %q", entries[1])
	}
}

func TestSplitEntriesNumbered(t *testing.T) {
	text := "Bibliography\n1. First work, 2001.\n2. Second work, 2002.\n"

	entries := SplitEntries(text)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %q", len(entries), entries)
	}
	if entries[1] != "Second work, 2002." {
		t.Errorf("Unexpected second entry %q", entries[1])
	}
}

func TestSplitEntriesWithoutHeading(t *testing.T) {
	if entries := SplitEntries("[1] something that is not a bibliography"); entries != nil {
		t.Errorf("Expected no entries without a heading, got %q", entries)
	}
}

func TestSectionUsesLastHeading(t *testing.T) {
	text := "See the references below.\nReferences\n[1] Only entry."
	if got := strings.TrimSpace(Section(text)); got != "[1] Only entry." {
		t.Errorf("Unexpected section %q", got)
	}
}

func TestHeadingWordsInsideEntries(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"bracketed", "Intro text.\nReferences\n[1] A. Smith. Go in practice. 2020.\n" +
			"[2] B. Jones. An annotated bibliography of type systems. 2019.\n" +
			"[3] C. Lee. Dangling references in C. 2018.\n"},
		{"numbered heading", "Body.\n7. References\n1. A. Smith. Go in practice. 2020.\n" +
			"2. B. Jones. An annotated bibliography of type systems. 2019.\n" +
			"3. C. Lee. Dangling references in C. 2018.\n"},
		{"no line breaks", "Intro text. References [1] A. Smith. Go in practice. 2020. " +
			"[2] B. Jones. An annotated bibliography of type systems. 2019. " +
			"[3] C. Lee. Dangling references in C. 2018."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := SplitEntries(tt.text)
			if len(entries) != 3 {
				t.Fatalf("Expected 3 entries, got %d: %q", len(entries), entries)
			}
			if entries[2] != "C. Lee. Dangling references in C. 2018." {
				t.Errorf("Unexpected third entry %q", entries[2])
			}
			section := strings.TrimSpace(Section(tt.text))
			if !strings.HasPrefix(section, "1.") && !strings.HasPrefix(section, "[1]") {
				t.Errorf("Section should start at the first entry, got %q", section)
			}
		})
	}
}

func TestSectionPrefersHeadingLine(t *testing.T) {
	text := "Body.\nReferences:\n[1] Surveys of bibliography tools.\n[2] Second."
	if got := strings.TrimSpace(Section(text)); !strings.HasPrefix(got, "[1] Surveys") {
		t.Errorf("Unexpected section %q", got)
	}
}

func TestFindDOI(t *testing.T) {
	tests := []struct {
		entry string
		want  string
	}{
		{"J. Things 12 (2019). doi:10.1000/xyz123.", "10.1000/xyz123"},
		{"https://doi.org/10.1145/3292500.3330701", "10.1145/3292500.3330701"},
		{"no identifier here", ""},
	}
	for _, tt := range tests {
		if got := FindDOI(tt.entry); got != tt.want {
			t.Errorf("FindDOI(%q) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

func TestExtractTextFromPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.pdf")
	testpdf.Write(t, path, testpdf.Paper())

	text, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if !strings.Contains(text, "References") {
		t.Fatalf("Expected the bibliography heading in the text, got %q", text)
	}

	entries := SplitEntries(text)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d: %q", len(entries), entries)
	}
	if !strings.Contains(entries[0], "10.1000/xyz123") {
		t.Errorf("First entry should carry its DOI, got %q", entries[0])
	}
	if !strings.HasPrefix(entries[1], "C. Person") {
		t.Errorf("Unexpected second entry %q", entries[1])
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	if _, err := ExtractText(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
