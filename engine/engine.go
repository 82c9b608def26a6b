// Package engine is the automation controller: it scans the input directory and
// converts every PDF in it, one document at a time.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/drummonds/pdfcover/database"
	"github.com/drummonds/pdfcover/encoder"
	"github.com/drummonds/pdfcover/pdfinfo"
	"github.com/drummonds/pdfcover/render"
	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// pdfSuffix selects input documents. The match is case sensitive.
const pdfSuffix = ".pdf"

// Config is the per-batch setting of the controller
type Config struct {
	InputDir  string
	OutputDir string
	Width     int
	Height    int
	Output    encoder.OutputSpec
	// SourcePrefix is the URL path the input directory is served under
	SourcePrefix string
	// KeepGoing logs a failed document and moves on instead of aborting the batch.
	// Failures of the browser or the file system still abort.
	KeepGoing bool
}

// Controller runs batches against one render source
type Controller struct {
	cfg     Config
	source  render.Source
	encoder *encoder.Encoder
	ledger  database.Ledger
}

// FileError is the failure of one document
type FileError struct {
	Source string
	Err    error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Source, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// BatchError reports the documents that failed in a keep-going batch
type BatchError struct {
	Failures []*FileError
	Total    int
}

func (e *BatchError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Source
	}
	return fmt.Sprintf("%d of %d documents failed: %s", len(e.Failures), e.Total, strings.Join(names, ", "))
}

// Unwrap exposes the individual failures to errors.As
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Summary is the outcome of a batch
type Summary struct {
	JobID     ulid.ULID
	Total     int
	Converted int
	Failed    int
	Bytes     int64
	Outputs   []string
	Elapsed   time.Duration
}

// NewController wires a render source and ledger to cfg. A nil ledger records nothing.
func NewController(cfg Config, source render.Source, ledger database.Ledger) *Controller {
	if ledger == nil {
		ledger, _ = database.NewLedger(context.Background(), "none", "")
	}
	return &Controller{
		cfg:     cfg,
		source:  source,
		encoder: encoder.New(cfg.Output),
		ledger:  ledger,
	}
}

// ScanInputs lists the PDF files directly inside dir, in directory listing order.
// Sub-directories and other files are ignored.
func ScanInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), pdfSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// OutputPath is the image written for input name: the trailing ".pdf" is replaced
// by the format's extension.
func OutputPath(outputDir, name string, format encoder.Format) string {
	return filepath.Join(outputDir, strings.TrimSuffix(name, pdfSuffix)+"."+format.Extension())
}

// Run converts every PDF of the input directory once
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	return c.run(ctx, database.JobTypeBatch)
}

func (c *Controller) run(ctx context.Context, jobType database.JobType) (Summary, error) {
	start := time.Now()
	var summary Summary

	names, err := ScanInputs(c.cfg.InputDir)
	if err != nil {
		return summary, err
	}
	summary.Total = len(names)

	if err := outputDirectoryChecks(c.cfg.OutputDir); err != nil {
		return summary, err
	}

	job, err := c.ledger.CreateJob(ctx, jobType,
		fmt.Sprintf("Convert %s to %s", c.cfg.InputDir, c.cfg.OutputDir))
	if err != nil {
		return summary, fmt.Errorf("create ledger job: %w", err)
	}
	summary.JobID = job.ID
	Logger.Info("Starting batch", "jobID", job.ID, "input", c.cfg.InputDir, "output", c.cfg.OutputDir,
		"documents", len(names), "format", c.cfg.Output.Format, "size", fmt.Sprintf("%dx%d", c.cfg.Width, c.cfg.Height))

	var failures []*FileError
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			c.finish(ctx, job.ID, summary, err)
			return summary, err
		}
		if err := c.ledger.UpdateJobProgress(ctx, job.ID, i*100/len(names), name); err != nil {
			Logger.Warn("Failed to update job progress", "jobID", job.ID, "error", err)
		}

		conversion := c.convert(ctx, name)
		conversion.JobID = job.ID
		if err := c.ledger.RecordConversion(ctx, &conversion.Conversion); err != nil {
			Logger.Warn("Failed to record conversion", "jobID", job.ID, "source", name, "error", err)
		}

		if conversion.err != nil {
			summary.Failed++
			fileErr := &FileError{Source: name, Err: conversion.err}
			Logger.Error("Failed to convert document", "source", name, "error", conversion.err)
			if !c.cfg.KeepGoing || !isDocumentError(conversion.err) {
				summary.Elapsed = time.Since(start)
				c.finish(ctx, job.ID, summary, fileErr)
				return summary, fileErr
			}
			failures = append(failures, fileErr)
			continue
		}
		summary.Converted++
		summary.Bytes += conversion.Bytes
		summary.Outputs = append(summary.Outputs, conversion.Output)
	}

	summary.Elapsed = time.Since(start)
	var batchErr error
	if len(failures) > 0 {
		batchErr = &BatchError{Failures: failures, Total: len(names)}
	}
	c.finish(ctx, job.ID, summary, batchErr)
	Logger.Info("Batch finished", "jobID", job.ID, "converted", summary.Converted, "failed", summary.Failed,
		"bytes", summary.Bytes, "elapsed", summary.Elapsed)
	return summary, batchErr
}

// finish closes the ledger job. It runs even when ctx is already cancelled.
func (c *Controller) finish(ctx context.Context, jobID ulid.ULID, summary Summary, runErr error) {
	ctx = context.WithoutCancel(ctx)
	if runErr != nil {
		if err := c.ledger.FailJob(ctx, jobID, runErr.Error()); err != nil {
			Logger.Warn("Failed to mark job as failed", "jobID", jobID, "error", err)
		}
		return
	}
	result, err := json.Marshal(database.JobSummary{
		FilesProcessed: summary.Converted,
		FilesTotal:     summary.Total,
		BytesWritten:   summary.Bytes,
		Errors:         summary.Failed,
	})
	if err != nil {
		Logger.Warn("Failed to encode job summary", "error", err)
	}
	if err := c.ledger.CompleteJob(ctx, jobID, string(result)); err != nil {
		Logger.Warn("Failed to complete job", "jobID", jobID, "error", err)
	}
}

type conversionResult struct {
	database.Conversion
	err error
}

// convert renders one document and writes its image
func (c *Controller) convert(ctx context.Context, name string) conversionResult {
	start := time.Now()
	out := OutputPath(c.cfg.OutputDir, name, c.cfg.Output.Format)
	result := conversionResult{Conversion: database.Conversion{
		Source: name,
		Output: out,
		Format: string(c.cfg.Output.Format),
		Status: database.ConversionSucceeded,
	}}
	fail := func(err error) conversionResult {
		result.Status = database.ConversionFailed
		result.Error = err.Error()
		result.Duration = time.Since(start)
		result.err = err
		return result
	}

	req := render.NewRenderRequest(c.cfg.SourcePrefix, c.cfg.InputDir, name, c.cfg.Width, c.cfg.Height)

	// The renderer decides whether a document loads; the parser here is stricter
	// and only feeds the ledger and debug output.
	if info, err := pdfinfo.Inspect(req.SourcePath); err != nil {
		Logger.Warn("Preflight failed, leaving it to the renderer", "source", name, "error", err)
	} else {
		result.Pages = info.Pages
		t := info.Cover(c.cfg.Width, c.cfg.Height)
		Logger.Debug("Preflight", "source", name, "pages", info.Pages, "pageWidth", info.Width, "pageHeight", info.Height,
			"rotation", info.Rotation, "scale", t.Scale, "offsetX", t.OffsetX, "offsetY", t.OffsetY)
	}

	surface, err := c.source.Open(ctx, req)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := surface.Close(); err != nil {
			Logger.Warn("Failed to close render session", "source", name, "error", err)
		}
	}()

	n, err := c.encoder.Encode(ctx, surface, out)
	if err != nil {
		return fail(err)
	}
	result.Bytes = n
	result.Duration = time.Since(start)
	Logger.Info("Saved", "output", out, "bytes", n, "elapsed", result.Duration)
	return result
}

// isDocumentError reports whether err came from a document rather than the
// environment. Only document errors are skipped by KeepGoing.
func isDocumentError(err error) bool {
	var (
		loadErr    *render.PdfLoadError
		renderErr  *render.RenderError
		timeoutErr *render.TimeoutError
		encodeErr  *encoder.EncodeError
	)
	return errors.As(err, &loadErr) || errors.As(err, &renderErr) ||
		errors.As(err, &timeoutErr) || errors.As(err, &encodeErr)
}
