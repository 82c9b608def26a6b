package browser

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/drummonds/pdfcover/assets"
	"github.com/drummonds/pdfcover/render"
)

// stubPdfjs replaces the pdf.js build. Known sources resolve to a page of the
// listed size, anything else is rejected the way pdf.js rejects a corrupt file.
// Every getViewport call is recorded on globalThis.recordedViewports.
const stubPdfjs = `const sizes = {
  "pdf/landscape.pdf": [800, 600],
  "pdf/wide.pdf": [1000, 200],
  "pdf/unrenderable.pdf": [800, 600],
};

export const GlobalWorkerOptions = {};

export function getDocument(src) {
  const size = sizes[src];
  if (!size) {
    return { promise: Promise.reject(new Error("Invalid PDF structure")) };
  }
  const page = {
    getViewport(params) {
      (globalThis.recordedViewports ||= []).push(params);
      return { width: size[0] * params.scale, height: size[1] * params.scale };
    },
    render() {
      if (src === "pdf/unrenderable.pdf") {
        return { promise: Promise.reject(new Error("canvas exploded")) };
      }
      return { promise: Promise.resolve() };
    },
  };
  return { promise: Promise.resolve({ getPage: async () => page }) };
}
`

// startPageBrowser serves the embedded renderer page with the stub pdf.js.
func startPageBrowser(t *testing.T) (*Browser, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	chrome, err := FindChrome()
	if err != nil {
		t.Skip("No Chrome or Chromium found, skipping browser test")
	}

	pdfjsDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(pdfjsDir, "pdf.mjs"), []byte(stubPdfjs), 0644); err != nil {
		t.Fatal(err)
	}
	srv := assets.New(assets.Config{InputDir: t.TempDir(), PdfjsDir: pdfjsDir, Width: 320, Height: 180})
	baseURL, err := srv.Start()
	if err != nil {
		t.Fatalf("Failed to start asset server: %v", err)
	}
	t.Cleanup(func() { srv.Close(context.Background()) })

	b, err := New(context.Background(), Options{ExecPath: chrome, Headless: true, BaseURL: baseURL, ReadyTimeout: 20 * time.Second})
	if err != nil {
		t.Fatalf("Failed to launch browser: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b, baseURL
}

type recordedViewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

func TestRendererPageCoverTransform(t *testing.T) {
	b, _ := startPageBrowser(t)
	ctx := context.Background()

	tests := []struct {
		name          string
		width, height float64
	}{
		{"landscape.pdf", 800, 600},
		{"wide.pdf", 1000, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := render.NewRenderRequest(assets.SourcePrefix, "", tt.name, 320, 180)
			s, err := b.Open(ctx, req)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer s.Close()

			var recorded []recordedViewport
			if err := chromedp.Run(s.(*session).ctx, chromedp.Evaluate(`globalThis.recordedViewports`, &recorded)); err != nil {
				t.Fatalf("Failed to read viewports: %v", err)
			}
			if len(recorded) != 2 {
				t.Fatalf("Expected the intrinsic and the render viewport, got %+v", recorded)
			}
			if recorded[0].Scale != 1 {
				t.Errorf("intrinsic viewport scale = %v, want 1", recorded[0].Scale)
			}

			want := render.CalculateCoverTransform(tt.width, tt.height, 320, 180)
			got := recorded[1]
			if !near(got.Scale, want.Scale) || !near(got.OffsetX, want.OffsetX) || !near(got.OffsetY, want.OffsetY) {
				t.Errorf("render viewport = %+v, want %+v", got, want)
			}

			data, err := s.Capture(ctx, render.CapturePNG, 0)
			if err != nil || len(data) == 0 {
				t.Errorf("Capture failed: %v", err)
			}
		})
	}
}

func TestRendererPageFailures(t *testing.T) {
	b, baseURL := startPageBrowser(t)
	ctx := context.Background()

	t.Run("rejected load", func(t *testing.T) {
		_, err := b.Open(ctx, render.NewRenderRequest(assets.SourcePrefix, "", "broken.pdf", 320, 180))
		var loadErr *render.PdfLoadError
		if !errors.As(err, &loadErr) {
			t.Fatalf("Expected PdfLoadError, got %v", err)
		}
		if loadErr.Source != "pdf/broken.pdf" {
			t.Errorf("Source = %q", loadErr.Source)
		}
	})

	t.Run("failed render", func(t *testing.T) {
		_, err := b.Open(ctx, render.NewRenderRequest(assets.SourcePrefix, "", "unrenderable.pdf", 320, 180))
		var renderErr *render.RenderError
		if !errors.As(err, &renderErr) {
			t.Fatalf("Expected RenderError, got %v", err)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		req := render.RenderRequest{SourceURL: "pdf/none.pdf", Width: 320, Height: 180}
		_, err := b.open(ctx, baseURL+"/?width=320&height=180", req)
		var missing *render.MissingParameterError
		if !errors.As(err, &missing) {
			t.Fatalf("Expected MissingParameterError, got %v", err)
		}
		if missing.Name != "url" {
			t.Errorf("Name = %q, want url", missing.Name)
		}
	})
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
