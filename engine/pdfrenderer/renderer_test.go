package pdfrenderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/drummonds/bibview/internal/testpdf"
)

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	return img
}

func TestEncodePNGScalesDownWideImages(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, solidImage(400, 200), 100); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("Expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestEncodePNGKeepsNarrowImages(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, solidImage(80, 40), 100); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Errorf("Expected 80x40, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestThumbnailFitsBox(t *testing.T) {
	thumb := Thumbnail(solidImage(612, 792), 150, 150)
	b := thumb.Bounds()
	if b.Dx() > 150 || b.Dy() > 150 {
		t.Errorf("Thumbnail %dx%d does not fit 150x150", b.Dx(), b.Dy())
	}
	if b.Dy() != 150 {
		t.Errorf("Expected the taller side to fill the box, got height %d", b.Dy())
	}
}

func TestNewRendererRejectsUnknownKind(t *testing.T) {
	if _, err := NewRenderer("ghostscript", 0); err == nil {
		t.Error("Expected an error for an unknown renderer")
	}
}

func TestCheckPage(t *testing.T) {
	if err := checkPage(1, 3); err != nil {
		t.Errorf("Page 1 of 3 should be valid: %v", err)
	}
	for _, page := range []int{0, 4, -1} {
		if err := checkPage(page, 3); !errors.Is(err, ErrPageOutOfRange) {
			t.Errorf("Page %d of 3: expected ErrPageOutOfRange, got %v", page, err)
		}
	}
}

func TestPDFiumRendersPages(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDFium WebAssembly test in short mode")
	}

	path := filepath.Join(t.TempDir(), "paper.pdf")
	testpdf.Write(t, path, testpdf.Paper())

	renderer, err := NewRenderer("pdfium", DefaultDPI)
	if err != nil {
		t.Fatalf("Failed to create PDFium renderer: %v", err)
	}
	defer renderer.Close()

	count, err := PageCount(renderer, path)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 pages, got %d", count)
	}

	doc, err := renderer.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer doc.Close()

	img, err := doc.RenderPage(3)
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	// 612pt wide at 108 DPI
	if w := img.Bounds().Dx(); w != 918 {
		t.Errorf("Expected width 918, got %d", w)
	}

	if _, err := doc.RenderPage(4); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("Expected ErrPageOutOfRange for page 4, got %v", err)
	}
}
