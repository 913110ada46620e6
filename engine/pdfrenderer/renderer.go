package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// DefaultDPI renders pages at 1.5x the 72 DPI PDF user space
const DefaultDPI = 108

// ErrPageOutOfRange is returned for page numbers outside [1, NumPages]
var ErrPageOutOfRange = errors.New("page out of range")

// Renderer opens PDF files for page-by-page rasterisation
type Renderer interface {
	// Open loads a PDF file; the returned document must be closed by the caller
	Open(filename string) (Document, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// Document is an open PDF
type Document interface {
	// NumPages is fixed for the lifetime of the document
	NumPages() int
	// RenderPage rasterises a 1-based page
	RenderPage(page int) (image.Image, error)
	Close() error
}

// NewRenderer creates the renderer named by kind: "fitz" (MuPDF, needs CGo)
// or "pdfium" (WebAssembly, pure Go). An empty kind selects pdfium.
func NewRenderer(kind string, dpi int) (Renderer, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	switch kind {
	case "", "pdfium":
		return NewPDFiumRenderer(dpi)
	case "fitz":
		return NewFitzRenderer(dpi)
	default:
		return nil, fmt.Errorf("unknown PDF renderer %q", kind)
	}
}

// PageCount opens filename just long enough to count its pages
func PageCount(r Renderer, filename string) (int, error) {
	doc, err := r.Open(filename)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPages(), nil
}

func checkPage(page, numPages int) error {
	if page < 1 || page > numPages {
		return fmt.Errorf("page %d of %d: %w", page, numPages, ErrPageOutOfRange)
	}
	return nil
}

// EncodePNG writes img as PNG, scaling it down to maxWidth first when it is
// wider. A maxWidth of 0 keeps the rendered size.
func EncodePNG(w io.Writer, img image.Image, maxWidth int) error {
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	return imaging.Encode(w, img, imaging.PNG)
}

// Thumbnail fits img into a width x height box
func Thumbnail(img image.Image, width, height int) image.Image {
	return imaging.Fit(img, width, height, imaging.Lanczos)
}
