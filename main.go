package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/drummonds/pdfcover/assets"
	"github.com/drummonds/pdfcover/browser"
	"github.com/drummonds/pdfcover/config"
	"github.com/drummonds/pdfcover/database"
	"github.com/drummonds/pdfcover/encoder"
	"github.com/drummonds/pdfcover/engine"
	"github.com/drummonds/pdfcover/engine/pdfrenderer"
	"github.com/drummonds/pdfcover/render"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	database.Logger = Logger
	engine.Logger = Logger
	pdfrenderer.Logger = Logger
	encoder.Logger = Logger
	assets.Logger = Logger
	browser.Logger = Logger
}

func main() {
	config.LoadEnv()
	cfg := config.Defaults()
	injectGlobals(config.SetupLogging()) //inject the logger into all of the packages

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(&cfg, runBatch).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

// newRootCmd binds the flags onto cfg, whose current values are the defaults.
// run is only called once cfg has validated.
func newRootCmd(cfg *config.BatchConfig, run func(context.Context, config.BatchConfig) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdfcover",
		Short: "Render the first page of every PDF in a directory to an image",
		Long: `pdfcover renders page 1 of each PDF in the input directory onto a canvas of
the requested size, scaled to cover it and centred, and writes one image per
document to the output directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), *cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.InputDir, "input", "i", cfg.InputDir, "Input directory")
	flags.StringVarP(&cfg.OutputDir, "output", "o", cfg.OutputDir, "Output directory")
	flags.StringVarP(&cfg.Size, "size", "s", cfg.Size, "Output image size WxH")
	flags.StringVarP(&cfg.Format, "format", "f", cfg.Format, "Output format: "+strings.Join(config.ValidFormats, ", "))
	flags.StringVarP(&cfg.QualityRaw, "quality", "q", cfg.QualityRaw, "Image quality 1-100, for lossy formats")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Give up on a document that has not rendered after this long (0 waits forever)")
	flags.BoolVar(&cfg.KeepGoing, "keep-going", cfg.KeepGoing, "Log failed documents and continue with the rest")
	flags.StringVar(&cfg.Renderer, "renderer", cfg.Renderer, "Renderer: browser, pdfium or fitz")
	flags.StringVar(&cfg.ChromePath, "chrome-path", cfg.ChromePath, "Chrome or Chromium executable (default: search PATH)")
	flags.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run the browser headless")
	flags.StringVar(&cfg.PdfjsDir, "pdfjs-dir", cfg.PdfjsDir, "Directory holding the pdf.js build (pdf.mjs)")
	flags.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Address of the local asset server")
	flags.StringVar(&cfg.LedgerType, "ledger", cfg.LedgerType, "Run ledger: none, sqlite, postgres or ephemeral")
	flags.StringVar(&cfg.LedgerDSN, "ledger-dsn", cfg.LedgerDSN, "Ledger sqlite file or postgres URL")
	flags.StringVar(&cfg.Schedule, "schedule", cfg.Schedule, `Rerun the batch on a cron schedule, eg "@every 10m"`)
	return cmd
}

// runBatch starts the renderer and converts the input directory, once or on schedule
func runBatch(ctx context.Context, cfg config.BatchConfig) error {
	format, err := encoder.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	if cfg.LedgerType == config.LedgerEphemeral {
		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Println("EPHEMERAL LEDGER MODE")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("• Run history will be destroyed on exit")
		fmt.Println(strings.Repeat("=", 50) + "\n")
	}
	ledger, err := database.NewLedger(ctx, cfg.LedgerType, cfg.LedgerDSN)
	if err != nil {
		return err
	}
	defer ledger.Close()

	source, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	controller := engine.NewController(engine.Config{
		InputDir:     cfg.InputDir,
		OutputDir:    cfg.OutputDir,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Output:       encoder.OutputSpec{Format: format, Quality: cfg.Quality},
		SourcePrefix: assets.SourcePrefix,
		KeepGoing:    cfg.KeepGoing,
	}, source, ledger)

	if cfg.Schedule != "" {
		return engine.Schedule(ctx, cfg.Schedule, controller)
	}

	summary, err := controller.Run(ctx)
	Logger.Info("Done", "converted", summary.Converted, "failed", summary.Failed, "total", summary.Total,
		"elapsed", summary.Elapsed)
	return err
}

// openSource starts the selected renderer. For the browser renderer this is the
// asset server plus one Chrome process.
func openSource(ctx context.Context, cfg config.BatchConfig) (render.Source, error) {
	if cfg.Renderer != config.RendererBrowser {
		if cfg.Timeout > 0 {
			Logger.Warn("Timeout only applies to the browser renderer", "renderer", cfg.Renderer)
		}
		r, err := pdfrenderer.NewRenderer(cfg.Renderer)
		if err != nil {
			return nil, err
		}
		Logger.Info("Using native renderer", "renderer", cfg.Renderer)
		return &pdfrenderer.Source{Renderer: r}, nil
	}

	srv := assets.New(assets.Config{
		InputDir:   cfg.InputDir,
		PdfjsDir:   cfg.PdfjsDir,
		ListenAddr: cfg.ListenAddr,
		Width:      cfg.Width,
		Height:     cfg.Height,
	})
	baseURL, err := srv.Start()
	if err != nil {
		return nil, err
	}

	b, err := browser.New(ctx, browser.Options{
		ExecPath:     cfg.ChromePath,
		Headless:     cfg.Headless,
		BaseURL:      baseURL,
		ReadyTimeout: cfg.Timeout,
	})
	if err != nil {
		srv.Close(context.Background())
		return nil, err
	}
	return &browserSource{Browser: b, server: srv}, nil
}

// browserSource shuts the asset server down together with the browser
type browserSource struct {
	*browser.Browser
	server *assets.Server
}

func (s *browserSource) Close() error {
	err := s.Browser.Close()
	if serr := s.server.Close(context.Background()); serr != nil && err == nil {
		err = serr
	}
	return err
}
