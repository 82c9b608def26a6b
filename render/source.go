package render

import "context"

// Capture formats every backend must produce directly.
const (
	CapturePNG  = "png"
	CaptureJPEG = "jpeg"
	CaptureWebP = "webp"
)

// Surface is a rendered page waiting to be captured. It is owned by one caller
// between Open and Close.
type Surface interface {
	// Capture encodes the whole canvas as format. quality is ignored for png and
	// when zero.
	Capture(ctx context.Context, format string, quality int) ([]byte, error)
	Close() error
}

// Source opens surfaces, one isolated session per request.
type Source interface {
	Open(ctx context.Context, req RenderRequest) (Surface, error)
	Close() error
}
