// Package pdfinfo reads the page count and first page box of a PDF before it is
// handed to a renderer.
package pdfinfo

import (
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/drummonds/pdfcover/render"
)

// US Letter, used when no MediaBox is found anywhere in the page tree
const (
	defaultPageWidth  = 612
	defaultPageHeight = 792
)

// Info describes page 1 of a document, in PDF points, with rotation applied.
type Info struct {
	Pages    int
	Width    float64
	Height   float64
	Rotation int
}

// Inspect opens path and reads the page count and the first page's box.
// Any failure is reported as a render.PdfLoadError.
func Inspect(path string) (info Info, err error) {
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = &render.PdfLoadError{Source: path, Err: fmt.Errorf("malformed PDF: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return Info{}, &render.PdfLoadError{Source: path, Err: err}
	}
	defer f.Close()

	info.Pages = reader.NumPage()
	if info.Pages == 0 {
		return Info{}, &render.PdfLoadError{Source: path, Err: fmt.Errorf("document has no pages")}
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return Info{}, &render.PdfLoadError{Source: path, Err: fmt.Errorf("page 1 not found")}
	}

	box := inherited(page.V, "CropBox")
	if box.Kind() != pdf.Array || box.Len() != 4 {
		box = inherited(page.V, "MediaBox")
	}
	if box.Kind() == pdf.Array && box.Len() == 4 {
		x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
		x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
		info.Width, info.Height = abs(x1-x0), abs(y1-y0)
	}
	if info.Width == 0 || info.Height == 0 {
		info.Width, info.Height = defaultPageWidth, defaultPageHeight
	}

	info.Rotation = int(inherited(page.V, "Rotate").Int64()) % 360
	if info.Rotation < 0 {
		info.Rotation += 360
	}
	if info.Rotation == 90 || info.Rotation == 270 {
		info.Width, info.Height = info.Height, info.Width
	}
	return info, nil
}

// Cover returns the cover-fit transform of page 1 onto a width×height canvas.
func (i Info) Cover(width, height int) render.CoverTransform {
	return render.CalculateCoverTransform(i.Width, i.Height, float64(width), float64(height))
}

// inherited looks key up on the page and then up the Parent chain.
func inherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
