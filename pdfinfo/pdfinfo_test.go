package pdfinfo

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/drummonds/pdfcover/internal/pdftest"
	"github.com/drummonds/pdfcover/render"
)

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name       string
		page       pdftest.Page
		wantWidth  float64
		wantHeight float64
	}{
		{"a4 portrait", pdftest.Page{Width: 595, Height: 842}, 595, 842},
		{"slide", pdftest.Page{Width: 960, Height: 540}, 960, 540},
		{"rotated", pdftest.Page{Width: 595, Height: 842, Rotate: 90}, 842, 595},
		{"rotated 180", pdftest.Page{Width: 595, Height: 842, Rotate: 180}, 595, 842},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := pdftest.Write(t, dir, tt.name+".pdf", tt.page)
			info, err := Inspect(path)
			if err != nil {
				t.Fatalf("Inspect failed: %v", err)
			}
			if info.Pages != 1 {
				t.Errorf("Expected 1 page, got %d", info.Pages)
			}
			if info.Width != tt.wantWidth || info.Height != tt.wantHeight {
				t.Errorf("Expected %vx%v, got %vx%v", tt.wantWidth, tt.wantHeight, info.Width, info.Height)
			}
		})
	}
}

func TestInspectCover(t *testing.T) {
	path := pdftest.Write(t, t.TempDir(), "slide.pdf", pdftest.Page{Width: 960, Height: 540})
	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	cover := info.Cover(1280, 720)
	if math.Abs(cover.Scale-1280.0/960) > 1e-9 || cover.OffsetX != 0 || math.Abs(cover.OffsetY) > 1e-9 {
		t.Errorf("Unexpected transform %+v", cover)
	}
}

func TestInspectRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "notes.pdf")
	if err := os.WriteFile(bad, []byte("this is not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Inspect(bad)
	var loadErr *render.PdfLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected PdfLoadError, got %v", err)
	}

	_, err = Inspect(filepath.Join(dir, "missing.pdf"))
	if !errors.As(err, &loadErr) {
		t.Fatalf("Expected PdfLoadError for missing file, got %v", err)
	}
}
