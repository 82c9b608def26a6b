// Package pdftest builds small, valid PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Page describes the single page of a generated document.
type Page struct {
	Width  float64
	Height float64
	Rotate int
}

// Minimal returns a one-page PDF whose MediaBox is inherited from the page tree
// root, with the page filled by a solid rectangle.
func Minimal(p Page) []byte {
	content := fmt.Sprintf("0.2 0.4 0.8 rg 0 0 %g %g re f\n", p.Width, p.Height)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 %g %g] >>", p.Width, p.Height),
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << >> /Contents 4 0 R /Rotate %d >>", p.Rotate),
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Write stores a generated document as dir/name and returns its path.
func Write(t testing.TB, dir, name string, p Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Minimal(p), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}
