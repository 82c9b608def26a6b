package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"

	"github.com/drummonds/pdfcover/render"
)

const defaultQuality = 80

// ImageSurface is a surface backed by an in-memory image, as produced by the
// native renderers.
type ImageSurface struct {
	Image image.Image
}

// Capture encodes the image as png, jpeg or webp.
func (s *ImageSurface) Capture(_ context.Context, format string, quality int) ([]byte, error) {
	if s.Image == nil {
		return nil, fmt.Errorf("surface already released")
	}
	if quality <= 0 {
		quality = defaultQuality
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case render.CapturePNG:
		err = imaging.Encode(&buf, s.Image, imaging.PNG)
	case render.CaptureJPEG:
		err = imaging.Encode(&buf, s.Image, imaging.JPEG, imaging.JPEGQuality(quality))
	case render.CaptureWebP:
		err = webp.Encode(&buf, s.Image, webp.Options{Quality: quality, Method: 4})
	default:
		return nil, fmt.Errorf("unsupported capture format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close releases the image.
func (s *ImageSurface) Close() error {
	s.Image = nil
	return nil
}
