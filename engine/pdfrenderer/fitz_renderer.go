package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
	dpi float64
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer(dpi int) (*FitzRenderer, error) {
	return &FitzRenderer{dpi: float64(dpi)}, nil
}

// Open opens a PDF document using go-fitz
func (r *FitzRenderer) Open(filename string) (Document, error) {
	doc, err := fitz.New(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &fitzDocument{doc: doc, dpi: r.dpi}, nil
}

// Close cleans up resources (no-op for Fitz renderer as documents are closed individually)
func (r *FitzRenderer) Close() error {
	return nil
}

type fitzDocument struct {
	doc *fitz.Document
	dpi float64
}

func (d *fitzDocument) NumPages() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) RenderPage(page int) (image.Image, error) {
	if err := checkPage(page, d.doc.NumPage()); err != nil {
		return nil, err
	}
	// go-fitz counts pages from 0
	img, err := d.doc.ImageDPI(page-1, d.dpi)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", page, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
