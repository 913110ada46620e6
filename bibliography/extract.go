package bibliography

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// ErrNoText is returned for PDFs without a text layer
var ErrNoText = errors.New("PDF has no extractable text")

// ExtractText returns the plain text of a PDF, NFKC-normalised so that
// ligatures and compatibility characters compare as plain letters.
func ExtractText(path string) (string, error) {
	fileName := filepath.Base(path)
	Logger.Debug("Extracting text", "fileName", fileName)

	pdfFile, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open PDF %s: %w", fileName, err)
	}
	defer pdfFile.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("unable to convert PDF %s to text: %w", fileName, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("unable to read text of %s: %w", fileName, err)
	}

	text := norm.NFKC.String(buf.String())
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

var (
	// a heading on a line of its own, optionally numbered ("7. References")
	headingLine = regexp.MustCompile(`(?im)^[ \t]*(?:\d+\.?[ \t]*)?(references|bibliography|works cited|literature cited)[ \t]*:?[ \t]*$`)
	// the same words anywhere, for text extracted without line breaks
	headingWord = regexp.MustCompile(`(?i)\b(references|bibliography|works cited|literature cited)\b`)
	// [12] style markers, or 12. at the start of a line
	bracketMarker = regexp.MustCompile(`\[(\d{1,3})\]`)
	numberMarker  = regexp.MustCompile(`(?m)^\s*(\d{1,3})\.\s+`)
	spaceRun      = regexp.MustCompile(`\s+`)
)

// sectionStarts lists where a bibliography could begin, best first: the
// ends of heading lines from last to first, then the ends of loose heading
// words from last to first.
func sectionStarts(text string) []int {
	var starts []int
	for _, re := range []*regexp.Regexp{headingLine, headingWord} {
		locs := re.FindAllStringIndex(text, -1)
		for i := len(locs) - 1; i >= 0; i-- {
			starts = append(starts, locs[i][1])
		}
	}
	return starts
}

// Section returns the text after the last bibliography heading, or "" when
// the document has none. A heading whose section holds no numbered entries
// (the word inside an entry title, say) is skipped for an earlier one.
func Section(text string) string {
	starts := sectionStarts(text)
	if len(starts) == 0 {
		return ""
	}
	for _, start := range starts {
		if len(splitSection(text[start:])) > 0 {
			return text[start:]
		}
	}
	return text[starts[0]:]
}

// SplitEntries finds the bibliography section of text and splits it into
// entries. Entries must be numbered consecutively from 1, as [1] or 1.;
// text before the first marker is dropped.
func SplitEntries(text string) []string {
	for _, start := range sectionStarts(text) {
		if entries := splitSection(text[start:]); len(entries) > 0 {
			return entries
		}
	}
	return nil
}

func splitSection(section string) []string {
	if entries := splitOn(section, bracketMarker); len(entries) > 0 {
		return entries
	}
	return splitOn(section, numberMarker)
}

// splitOn cuts section at consecutive markers 1, 2, 3, ... matched by re.
// Marker-looking text that is out of sequence (a citation inside an entry)
// stays part of the entry.
func splitOn(section string, re *regexp.Regexp) []string {
	var starts [][2]int // marker start, text start
	want := 1
	for _, m := range re.FindAllStringSubmatchIndex(section, -1) {
		if section[m[2]:m[3]] != fmt.Sprint(want) {
			continue
		}
		starts = append(starts, [2]int{m[0], m[1]})
		want++
	}

	var entries []string
	for i, s := range starts {
		end := len(section)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		entry := strings.TrimSpace(spaceRun.ReplaceAllString(section[s[1]:end], " "))
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}
