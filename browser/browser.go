// Package browser drives headless Chrome through chromedp: one tab per document,
// a completion signal from the renderer page, and a clipped capture of its canvas.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/drummonds/pdfcover/render"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Options configures the browser instance.
type Options struct {
	// ExecPath overrides Chrome discovery.
	ExecPath string
	Headless bool
	// BaseURL is the asset server serving the renderer page.
	BaseURL string
	// ReadyTimeout bounds the wait for the page's completion signal. Zero waits forever.
	ReadyTimeout time.Duration
}

// Browser owns one Chrome process shared by every session of a batch.
type Browser struct {
	opts          Options
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// FindChrome looks for a Chrome or Chromium binary on PATH.
func FindChrome() (string, error) {
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no Chrome or Chromium found on PATH")
}

// New launches Chrome.
func New(ctx context.Context, opts Options) (*Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("hide-scrollbars", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			Logger.Debug("chromedp", "message", fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			Logger.Warn("chromedp", "message", fmt.Sprintf(format, args...))
		}),
	)

	// Run with no actions starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("unable to launch browser: %w", err)
	}
	Logger.Info("Browser launched", "execPath", opts.ExecPath, "headless", opts.Headless)

	return &Browser{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Open renders req in a fresh tab and returns once the page has signalled that
// the canvas is complete. The caller must Close the surface.
func (b *Browser) Open(ctx context.Context, req render.RenderRequest) (render.Surface, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return b.open(ctx, req.URL(b.opts.BaseURL), req)
}

// open runs one session against pageURL. req supplies the viewport and the
// source name used in errors.
func (b *Browser) open(ctx context.Context, pageURL string, req render.RenderRequest) (render.Surface, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	stop := context.AfterFunc(ctx, cancel)
	s := &session{ctx: tabCtx, cancel: cancel, stop: stop, source: req.SourceURL}

	ready := newReadiness()
	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch ev := ev.(type) {
		case *runtime.EventBindingCalled:
			if ev.Name != render.SignalBinding {
				return
			}
			if done, err := parseSignal(ev.Payload, req.SourceURL); done {
				ready.resolve(err)
			}
		case *runtime.EventConsoleAPICalled:
			text := consoleText(ev.Args)
			Logger.Debug("Page log", "source", req.SourceURL, "type", ev.Type, "text", text)
			if ev.Type == runtime.APITypeLog && text == render.ReadyMessage {
				ready.resolve(nil)
			}
		case *runtime.EventExceptionThrown:
			d := ev.ExceptionDetails
			if d == nil {
				return
			}
			msg := d.Text
			if d.Exception != nil && d.Exception.Description != "" {
				msg = d.Exception.Description
			}
			Logger.Warn("Uncaught exception in renderer page", "source", req.SourceURL, "error", msg)
			ready.resolve(&render.RenderError{Source: req.SourceURL, Err: errors.New(msg)})
		}
	})

	Logger.Debug("Opening renderer session", "url", pageURL)
	err := chromedp.Run(tabCtx,
		runtime.AddBinding(render.SignalBinding),
		chromedp.EmulateViewport(int64(req.Width), int64(req.Height)),
		chromedp.Navigate(pageURL),
	)
	if err != nil {
		s.Close()
		return nil, b.interrupted(ctx, fmt.Errorf("navigate to %s: %w", pageURL, err))
	}

	waitCtx := ctx
	if b.opts.ReadyTimeout > 0 {
		var cancelWait context.CancelFunc
		waitCtx, cancelWait = context.WithTimeout(ctx, b.opts.ReadyTimeout)
		defer cancelWait()
	}

	if err := ready.Wait(waitCtx); err != nil {
		s.Close()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &render.TimeoutError{Source: req.SourceURL, After: b.opts.ReadyTimeout}
		}
		return nil, err
	}
	return s, nil
}

func (b *Browser) interrupted(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	b.browserCancel()
	b.allocCancel()
	Logger.Info("Browser closed")
	return nil
}

// session is one tab holding a finished render.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool
	source string
}

// Capture screenshots exactly the canvas element.
func (s *session) Capture(ctx context.Context, format string, quality int) ([]byte, error) {
	var shotFormat page.CaptureScreenshotFormat
	switch format {
	case render.CapturePNG:
		shotFormat = page.CaptureScreenshotFormatPng
	case render.CaptureJPEG:
		shotFormat = page.CaptureScreenshotFormatJpeg
	case render.CaptureWebP:
		shotFormat = page.CaptureScreenshotFormatWebp
	default:
		return nil, fmt.Errorf("unsupported capture format %q", format)
	}

	stop := context.AfterFunc(ctx, s.cancel)
	defer stop()

	var box *dom.BoxModel
	var data []byte
	err := chromedp.Run(s.ctx,
		chromedp.Dimensions("#"+render.CanvasID, &box, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if box == nil || len(box.Content) < 2 {
				return fmt.Errorf("canvas #%s has no layout box", render.CanvasID)
			}
			shot := page.CaptureScreenshot().
				WithFormat(shotFormat).
				WithFromSurface(true).
				WithClip(&page.Viewport{
					X:      box.Content[0],
					Y:      box.Content[1],
					Width:  float64(box.Width),
					Height: float64(box.Height),
					Scale:  1,
				})
			if quality > 0 && shotFormat != page.CaptureScreenshotFormatPng {
				shot = shot.WithQuality(int64(quality))
			}
			var err error
			data, err = shot.Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("capture canvas of %s: %w", s.source, err)
	}
	return data, nil
}

// Close disposes the tab.
func (s *session) Close() error {
	s.stop()
	s.cancel()
	return nil
}
