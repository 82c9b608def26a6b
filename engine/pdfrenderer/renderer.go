package pdfrenderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/disintegration/imaging"

	"github.com/drummonds/pdfcover/encoder"
	"github.com/drummonds/pdfcover/render"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Renderer rasterises the first page of a PDF without a browser
type Renderer interface {
	// RenderFirstPage draws page 1 cover-fitted onto a width×height canvas
	RenderFirstPage(filename string, width, height int) (image.Image, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// NewRenderer creates a native renderer by name: "pdfium" (pure Go, no CGo) or "fitz" (MuPDF)
func NewRenderer(kind string) (Renderer, error) {
	switch kind {
	case "pdfium":
		return NewPDFiumRenderer()
	case "fitz":
		return NewFitzRenderer()
	}
	return nil, fmt.Errorf("unknown native renderer %q", kind)
}

// coverCanvas places a page rendered at the transform's scale onto a white canvas
// at the transform's offsets rounded to the nearest pixel; whatever falls outside
// the canvas is cropped.
func coverCanvas(page image.Image, t render.CoverTransform, width, height int) *image.NRGBA {
	canvas := imaging.New(width, height, color.White)
	return imaging.Paste(canvas, page, image.Pt(int(math.Round(t.OffsetX)), int(math.Round(t.OffsetY))))
}

// Source adapts a Renderer to render.Source; each Open renders one document.
type Source struct {
	Renderer Renderer
}

// Open renders req and returns it as an in-memory surface
func (s *Source) Open(ctx context.Context, req render.RenderRequest) (render.Surface, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	img, err := s.Renderer.RenderFirstPage(req.SourcePath, req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	Logger.Debug("Rendered first page", "source", req.SourcePath, "elapsed", time.Since(start))
	return &encoder.ImageSurface{Image: img}, nil
}

// Close releases the underlying renderer
func (s *Source) Close() error {
	return s.Renderer.Close()
}
