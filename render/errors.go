package render

import (
	"fmt"
	"time"
)

// Failure kinds as reported by the renderer page.
const (
	KindMissingParameter = "MissingParameterError"
	KindPdfLoad          = "PdfLoadError"
	KindRender           = "RenderError"
)

// MissingParameterError means the render URL lacked a required parameter.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing '%s' parameter", e.Name)
}

// PdfLoadError means the document could not be fetched or parsed.
type PdfLoadError struct {
	Source string
	Err    error
}

func (e *PdfLoadError) Error() string {
	return fmt.Sprintf("unable to load PDF %s: %v", e.Source, e.Err)
}

func (e *PdfLoadError) Unwrap() error { return e.Err }

// RenderError means the document loaded but drawing page 1 failed.
type RenderError struct {
	Source string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("unable to render %s: %v", e.Source, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// TimeoutError means the renderer did not signal completion within the bounded wait.
type TimeoutError struct {
	Source string
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("renderer did not signal ready for %s within %s", e.Source, e.After)
}

// FromKind converts a failure reported by the renderer page into its Go error.
func FromKind(kind, source, message string) error {
	err := fmt.Errorf("%s", message)
	switch kind {
	case KindMissingParameter:
		return &MissingParameterError{Name: "url"}
	case KindPdfLoad:
		return &PdfLoadError{Source: source, Err: err}
	default:
		return &RenderError{Source: source, Err: err}
	}
}
