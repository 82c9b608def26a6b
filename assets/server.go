// Package assets serves the renderer page, the pdf.js bundle and the source PDFs
// to the browser over local HTTP.
package assets

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/drummonds/pdfcover/render"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

//go:embed web/index.html web/index.js
var webFS embed.FS

// SourcePrefix is the route the input directory is mounted on.
const SourcePrefix = "/pdf"

// PdfjsPrefix is the route of the pdf.js build directory.
const PdfjsPrefix = "/pdfjs"

// Config describes what the server exposes.
type Config struct {
	InputDir   string
	PdfjsDir   string
	ListenAddr string
	// Width and Height are handed to the page as its fallback canvas size.
	Width  int
	Height int
}

// Server is the local asset server used by renderer sessions.
type Server struct {
	cfg      Config
	echo     *echo.Echo
	listener net.Listener
	baseURL  string
}

// New builds the server and its routes without listening.
func New(cfg Config) *Server {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = render.DefaultWidth, render.DefaultHeight
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil || v.Status >= http.StatusBadRequest {
				Logger.Warn("Asset request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
				return nil
			}
			Logger.Debug("Asset request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	s := &Server{cfg: cfg, echo: e}

	e.GET(SourcePrefix+"/*", echo.WrapHandler(http.StripPrefix(SourcePrefix+"/", http.FileServer(http.Dir(cfg.InputDir)))))
	e.GET(PdfjsPrefix+"/*", echo.WrapHandler(http.StripPrefix(PdfjsPrefix+"/", moduleTypes(http.FileServer(http.Dir(cfg.PdfjsDir))))))

	// Inject the shared fallback size into the page
	e.GET("/config.js", func(c echo.Context) error {
		configJS := fmt.Sprintf("window.pdfcoverDefaults = { width: %d, height: %d };\n", cfg.Width, cfg.Height)
		return c.Blob(http.StatusOK, "text/javascript; charset=utf-8", []byte(configJS))
	})

	webSubFS, _ := fs.Sub(webFS, "web")
	e.GET("/*", echo.WrapHandler(moduleTypes(http.FileServer(http.FS(webSubFS)))))

	return s
}

// moduleTypes makes sure ES modules are served with a JavaScript MIME type,
// browsers refuse to import them otherwise.
func moduleTypes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".mjs") || strings.HasSuffix(r.URL.Path, ".js") {
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		}
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address and serves in the background.
// It returns the base URL renderer sessions should use.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return "", fmt.Errorf("asset server listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = ln
	s.echo.Listener = ln
	s.baseURL = "http://" + ln.Addr().String()

	go func() {
		if err := s.echo.Start(""); err != nil && err != http.ErrServerClosed {
			Logger.Error("Asset server stopped", "error", err)
		}
	}()

	Logger.Info("Serving renderer assets", "url", s.baseURL, "input", s.cfg.InputDir, "pdfjs", s.cfg.PdfjsDir)
	return s.baseURL, nil
}

// BaseURL is the address returned by Start.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Close stops the server.
func (s *Server) Close(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	return s.echo.Shutdown(ctx)
}
