package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/jpegxl"
	"github.com/natefinch/atomic"

	"github.com/drummonds/pdfcover/render"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Codec encodes an image for one of the re-encoded formats.
type Codec func(w io.Writer, img image.Image, quality int) error

// EncodeError means the secondary codec failed; nothing was written.
type EncodeError struct {
	Format Format
	Path   string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("unable to encode %s as %s: %v", e.Path, e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Encoder persists surfaces according to an OutputSpec.
type Encoder struct {
	spec   OutputSpec
	codecs map[Format]Codec
}

// New creates an encoder for spec.
func New(spec OutputSpec) *Encoder {
	return &Encoder{
		spec: spec,
		codecs: map[Format]Codec{
			AVIF: encodeAVIF,
			TIFF: encodeTIFF,
			JXL:  encodeJXL,
		},
	}
}

// Spec returns the output spec the encoder applies.
func (e *Encoder) Spec() OutputSpec { return e.spec }

// Encode captures s and writes it to path, returning the bytes written. The file
// either appears complete or not at all.
func (e *Encoder) Encode(ctx context.Context, s render.Surface, path string) (int64, error) {
	f := e.spec.Format
	if f.Native() {
		quality := 0
		if f.Lossy() {
			quality = e.spec.Quality
		}
		data, err := s.Capture(ctx, f.CaptureType(), quality)
		if err != nil {
			return 0, fmt.Errorf("capture %s: %w", f.CaptureType(), err)
		}
		if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
			return 0, fmt.Errorf("write %s: %w", path, err)
		}
		Logger.Debug("Wrote captured surface", "path", path, "format", f, "bytes", len(data))
		return int64(len(data)), nil
	}

	codec, ok := e.codecs[f]
	if !ok {
		return 0, &EncodeError{Format: f, Path: path, Err: fmt.Errorf("no codec registered")}
	}

	intermediate, err := s.Capture(ctx, render.CapturePNG, 0)
	if err != nil {
		return 0, fmt.Errorf("capture png: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(intermediate))
	if err != nil {
		return 0, &EncodeError{Format: f, Path: path, Err: fmt.Errorf("decode intermediate: %w", err)}
	}

	var buf bytes.Buffer
	if err := codec(&buf, img, e.spec.Quality); err != nil {
		return 0, &EncodeError{Format: f, Path: path, Err: err}
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	Logger.Debug("Wrote re-encoded surface", "path", path, "format", f, "intermediateBytes", len(intermediate))
	return int64(buf.Len()), nil
}

func encodeAVIF(w io.Writer, img image.Image, quality int) error {
	return avif.Encode(w, img, avif.Options{
		Quality:           quality,
		QualityAlpha:      quality,
		Speed:             6,
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	})
}

// TIFF is written deflate-compressed and lossless, so quality has no effect.
// x/image/tiff has no JPEG compression mode to map quality onto.
func encodeTIFF(w io.Writer, img image.Image, _ int) error {
	return imaging.Encode(w, img, imaging.TIFF)
}

func encodeJXL(w io.Writer, img image.Image, quality int) error {
	return jpegxl.Encode(w, img, jpegxl.Options{
		Quality: quality,
		Effort:  7,
	})
}
