package pdfrenderer

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"

	"github.com/drummonds/pdfcover/render"
)

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo)
type PDFiumRenderer struct {
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly
func NewPDFiumRenderer() (*PDFiumRenderer, error) {
	// documents are processed one at a time, a single worker is enough
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
	}, nil
}

// RenderFirstPage renders page 1 at the cover-fit scale using go-pdfium WebAssembly
func (r *PDFiumRenderer) RenderFirstPage(filename string, width, height int) (image.Image, error) {
	pdfBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, &render.PdfLoadError{Source: filename, Err: err}
	}

	doc, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &pdfBytes,
	})
	if err != nil {
		return nil, &render.PdfLoadError{Source: filename, Err: err}
	}
	defer r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	firstPage := requests.Page{
		ByIndex: &requests.PageByIndex{
			Document: doc.Document,
			Index:    0,
		},
	}

	size, err := r.instance.GetPageSize(&requests.GetPageSize{Page: firstPage})
	if err != nil {
		return nil, &render.PdfLoadError{Source: filename, Err: fmt.Errorf("unable to read page 1 size: %w", err)}
	}

	t := render.CalculateCoverTransform(size.Width, size.Height, float64(width), float64(height))
	scaledW, scaledH := t.ScaledSize(size.Width, size.Height)

	pageRender, err := r.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page:   firstPage,
		Width:  scaledW,
		Height: scaledH,
	})
	if err != nil {
		return nil, &render.RenderError{Source: filename, Err: err}
	}
	// the pixels live in WebAssembly memory until Cleanup, take a copy first
	page := imaging.Clone(pageRender.Result.Image)
	pageRender.Cleanup()

	return coverCanvas(page, t, width, height), nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	r.instance = nil
	return nil
}
