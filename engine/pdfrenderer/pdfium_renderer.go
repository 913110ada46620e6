package pdfrenderer

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo)
type PDFiumRenderer struct {
	pool     pdfium.Pool
	instance pdfium.Pdfium
	dpi      int

	// a single WebAssembly instance is not safe for concurrent use
	mu sync.Mutex
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly
func NewPDFiumRenderer(dpi int) (*PDFiumRenderer, error) {
	// One worker is enough: every call goes through r.mu anyway
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	return &PDFiumRenderer{
		pool:     pool,
		instance: instance,
		dpi:      dpi,
	}, nil
}

// Open reads and opens a PDF document
func (r *PDFiumRenderer) Open(filename string) (Document, error) {
	pdfBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unable to read PDF file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &pdfBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	pageCountResp, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	return &pdfiumDocument{
		renderer: r,
		doc:      doc.Document,
		numPages: pageCountResp.PageCount,
	}, nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	r.instance = nil
	return nil
}

type pdfiumDocument struct {
	renderer *PDFiumRenderer
	doc      references.FPDF_DOCUMENT
	numPages int
}

func (d *pdfiumDocument) NumPages() int {
	return d.numPages
}

func (d *pdfiumDocument) RenderPage(page int) (image.Image, error) {
	if err := checkPage(page, d.numPages); err != nil {
		return nil, err
	}

	r := d.renderer
	r.mu.Lock()
	defer r.mu.Unlock()

	pageRender, err := r.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI: r.dpi,
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: d.doc,
				Index:    page - 1,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", page, err)
	}
	// The image lives in WebAssembly memory until Cleanup, so copy it out first
	img := imaging.Clone(pageRender.Result.Image)
	pageRender.Cleanup()

	return img, nil
}

func (d *pdfiumDocument) Close() error {
	r := d.renderer
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.doc,
	})
	return err
}
