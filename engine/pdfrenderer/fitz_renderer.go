package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/drummonds/pdfcover/render"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

// RenderFirstPage renders page 1 at the cover-fit scale using go-fitz
func (r *FitzRenderer) RenderFirstPage(filename string, width, height int) (image.Image, error) {
	doc, err := fitz.New(filename)
	if err != nil {
		return nil, &render.PdfLoadError{Source: filename, Err: err}
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, &render.PdfLoadError{Source: filename, Err: fmt.Errorf("document has no pages")}
	}

	// bounds are in points at 72 DPI
	bounds, err := doc.Bound(0)
	if err != nil {
		return nil, &render.RenderError{Source: filename, Err: err}
	}
	t := render.CalculateCoverTransform(float64(bounds.Dx()), float64(bounds.Dy()), float64(width), float64(height))

	img, err := doc.ImageDPI(0, 72*t.Scale)
	if err != nil {
		return nil, &render.RenderError{Source: filename, Err: err}
	}
	return coverCanvas(img, t, width, height), nil
}

// Close cleans up resources (no-op for Fitz renderer as doc is closed per-render)
func (r *FitzRenderer) Close() error {
	return nil
}
