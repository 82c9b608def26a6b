// Package encoder writes captured surfaces to disk. Formats the capture step can
// produce are written as captured; the others are captured as PNG and re-encoded.
package encoder

import (
	"fmt"
	"strings"

	"github.com/drummonds/pdfcover/render"
)

// Format is a requested output format. Its string is also the file extension.
type Format string

const (
	PNG  Format = "png"
	JPG  Format = "jpg"
	JPEG Format = "jpeg"
	WebP Format = "webp"
	AVIF Format = "avif"
	TIFF Format = "tif"
	JXL  Format = "jxl"
)

// Formats lists every supported format.
var Formats = []Format{PNG, JPG, JPEG, WebP, AVIF, TIFF, JXL}

// ParseFormat looks up a format by name.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unsupported format %q, supported formats: %s", name, strings.Join(names, ", "))
}

// Extension is the file extension written for this format, without the dot.
func (f Format) Extension() string { return string(f) }

// Native reports whether the capture step produces this format directly.
func (f Format) Native() bool {
	switch f {
	case PNG, JPG, JPEG, WebP:
		return true
	}
	return false
}

// CaptureType is the format requested from the surface: the target itself for
// native formats (jpg resolves to jpeg), PNG as the lossless intermediate otherwise.
func (f Format) CaptureType() string {
	switch f {
	case JPG, JPEG:
		return render.CaptureJPEG
	case WebP:
		return render.CaptureWebP
	}
	return render.CapturePNG
}

// Lossy reports whether quality affects a direct capture.
func (f Format) Lossy() bool {
	return f == JPG || f == JPEG || f == WebP
}

// OutputSpec is the format and quality applied to every document of a batch.
type OutputSpec struct {
	Format  Format
	Quality int
}
