// Package render holds the types shared by the renderer backends and the batch
// controller: the render request and its URL contract, the cover-fit transform,
// the surface a backend hands back, and the failure kinds a render can end with.
package render

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

// Fallback canvas size. The controller always sends an explicit size; the renderer
// page only falls back to these when loaded by hand, and it receives them from the
// asset server rather than hard-coding its own.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// CanvasID is the element id of the drawing surface in the renderer page.
const CanvasID = "the-canvas"

// RenderRequest describes one document to rasterise.
type RenderRequest struct {
	// SourceURL is the server-relative, percent-encoded URL of the PDF (eg "pdf/slide%201.pdf").
	SourceURL string
	// SourcePath is the same document on the local filesystem, used by native backends.
	SourcePath string
	Width      int
	Height     int
}

// NewRenderRequest builds the request for file name inside the directory mounted at prefix.
func NewRenderRequest(prefix, dir, name string, width, height int) RenderRequest {
	return RenderRequest{
		SourceURL:  strings.Trim(prefix, "/") + "/" + url.PathEscape(name),
		SourcePath: filepath.Join(dir, name),
		Width:      width,
		Height:     height,
	}
}

// Validate rejects requests the renderer cannot honour.
func (r RenderRequest) Validate() error {
	if r.SourceURL == "" {
		return &MissingParameterError{Name: "url"}
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", r.Width, r.Height)
	}
	return nil
}

// URL encodes the request as query parameters on the renderer page at base.
func (r RenderRequest) URL(base string) string {
	q := url.Values{}
	q.Set("url", r.SourceURL)
	q.Set("width", strconv.Itoa(r.Width))
	q.Set("height", strconv.Itoa(r.Height))
	return strings.TrimRight(base, "/") + "/?" + q.Encode()
}

// Completion channel shared with the renderer page. The page calls the binding
// with a JSON payload; it also logs ReadyMessage for hosts that watch the console.
const (
	SignalBinding = "pdfcoverSignal"
	ReadyMessage  = "ready"
)
