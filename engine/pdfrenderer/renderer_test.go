package pdfrenderer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/drummonds/pdfcover/internal/pdftest"
	"github.com/drummonds/pdfcover/render"
)

func TestCoverCanvasCropsOverflow(t *testing.T) {
	// 200x100 page onto 100x100: scale 1, offsetX -50, so the middle half survives
	page := imaging.New(200, 100, color.NRGBA{R: 255, A: 255})
	for x := 50; x < 150; x++ {
		for y := 0; y < 100; y++ {
			page.Set(x, y, color.NRGBA{B: 255, A: 255})
		}
	}
	tr := render.CalculateCoverTransform(200, 100, 100, 100)
	canvas := coverCanvas(page, tr, 100, 100)

	if canvas.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("canvas bounds %v", canvas.Bounds())
	}
	for _, pt := range []image.Point{{0, 0}, {99, 99}, {50, 50}} {
		c := canvas.NRGBAAt(pt.X, pt.Y)
		if c.B != 255 || c.R != 0 {
			t.Errorf("pixel %v = %+v, want the centred blue band", pt, c)
		}
	}
}

func TestCoverCanvasRoundsOffsets(t *testing.T) {
	// 101x100 page onto 100x100 gives offsetX -0.5, so one column is cropped
	// on the left and the page's last column lands on the canvas edge.
	page := imaging.New(101, 100, color.NRGBA{R: 255, A: 255})
	for y := 0; y < 100; y++ {
		page.Set(0, y, color.NRGBA{G: 255, A: 255})
		page.Set(100, y, color.NRGBA{B: 255, A: 255})
	}
	tr := render.CalculateCoverTransform(101, 100, 100, 100)
	if tr.OffsetX != -0.5 {
		t.Fatalf("OffsetX = %v, want -0.5", tr.OffsetX)
	}

	tests := []struct {
		name    string
		offsetX float64
		x       int
		want    color.NRGBA
	}{
		{"half pixel rounds away from zero", -0.5, 99, color.NRGBA{B: 255, A: 255}},
		{"below half rounds toward zero", -0.4, 0, color.NRGBA{G: 255, A: 255}},
		{"above half rounds away from zero", -1.6, 98, color.NRGBA{B: 255, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas := coverCanvas(page, render.CoverTransform{Scale: 1, OffsetX: tt.offsetX}, 100, 100)
			if got := canvas.NRGBAAt(tt.x, 50); got != tt.want {
				t.Errorf("pixel (%d, 50) = %+v, want %+v", tt.x, got, tt.want)
			}
		})
	}
}

func TestNewRendererUnknown(t *testing.T) {
	if _, err := NewRenderer("poppler"); err == nil {
		t.Error("Expected error for unknown renderer")
	}
}

type stubRenderer struct {
	calls int
	err   error
}

func (s *stubRenderer) RenderFirstPage(filename string, width, height int) (image.Image, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return imaging.New(width, height, color.White), nil
}

func (s *stubRenderer) Close() error { return nil }

func TestSourceValidatesRequest(t *testing.T) {
	stub := &stubRenderer{}
	src := &Source{Renderer: stub}

	_, err := src.Open(context.Background(), render.RenderRequest{Width: 10, Height: 10})
	var missing *render.MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingParameterError, got %v", err)
	}
	if stub.calls != 0 {
		t.Error("renderer called for an invalid request")
	}

	surface, err := src.Open(context.Background(), render.RenderRequest{SourceURL: "pdf/a.pdf", SourcePath: "a.pdf", Width: 32, Height: 18})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer surface.Close()
	data, err := surface.Capture(context.Background(), render.CapturePNG, 0)
	if err != nil || len(data) == 0 {
		t.Fatalf("Capture failed: %v", err)
	}
}

func renderWith(t *testing.T, r Renderer) {
	t.Helper()
	dir := t.TempDir()
	path := pdftest.Write(t, dir, "slide.pdf", pdftest.Page{Width: 595, Height: 842})

	img, err := r.RenderFirstPage(path, 320, 180)
	if err != nil {
		t.Fatalf("RenderFirstPage failed: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 180 {
		t.Errorf("Expected 320x180, got %v", img.Bounds())
	}

	// the page is a solid fill, so cover-fit leaves no white margin
	nrgba := imaging.Clone(img)
	for _, pt := range []image.Point{{2, 2}, {317, 2}, {2, 177}, {317, 177}} {
		c := nrgba.NRGBAAt(pt.X, pt.Y)
		if c.R == 255 && c.G == 255 && c.B == 255 {
			t.Errorf("corner %v is white, page was letterboxed", pt)
		}
	}

	bad := filepath.Join(dir, "broken.pdf")
	os.WriteFile(bad, []byte("nope"), 0644)
	_, err = r.RenderFirstPage(bad, 320, 180)
	var loadErr *render.PdfLoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("Expected PdfLoadError, got %v", err)
	}
}

func TestPDFiumRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDFium WebAssembly test in short mode")
	}
	r, err := NewPDFiumRenderer()
	if err != nil {
		t.Skipf("PDFium unavailable: %v", err)
	}
	defer r.Close()
	renderWith(t, r)
}

func TestFitzRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MuPDF test in short mode")
	}
	r, err := NewFitzRenderer()
	if err != nil {
		t.Skipf("MuPDF unavailable: %v", err)
	}
	defer r.Close()
	renderWith(t, r)
}
