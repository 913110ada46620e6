// Package testpdf builds small, valid PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

// Build returns a PDF with one page per element of pages. Each page shows
// its lines top to bottom in Helvetica.
func Build(pages [][]string) []byte {
	var objects []string

	// 1: catalog, 2: page tree, 3: font, then a page and a content stream per page
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)

	for i, lines := range pages {
		var content strings.Builder
		y := 760
		for _, line := range lines {
			fmt.Fprintf(&content, "BT /F1 10 Tf 40 %d Td (%s) Tj ET\n", y, escape(line+" "))
			y -= 14
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Write builds a PDF and stores it at path
func Write(t testing.TB, path string, pages [][]string) {
	t.Helper()
	if err := os.WriteFile(path, Build(pages), 0644); err != nil {
		t.Fatalf("Failed to write test PDF: %v", err)
	}
}

// Paper returns the pages of a short paper whose last page holds a numbered
// bibliography of three entries.
func Paper() [][]string {
	return [][]string{
		{"A Study of Things", "We build on prior work [1] and [2]."},
		{"Results", "Everything worked as in [3]."},
		{
			"References",
			"[1] A. Author and B. Writer, Deep things, J. Things 12 (2019). doi:10.1000/xyz123",
			"[2] C. Person, On stuff, Proc. Stuff Conf., 2020.",
			"[3] D. Someone, Final remarks, arXiv preprint, 2021.",
		},
	}
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
