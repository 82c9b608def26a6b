package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/drummonds/pdfcover/render"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ValidFormats lists the accepted output formats in the order shown to users.
var ValidFormats = []string{"png", "jpg", "jpeg", "webp", "avif", "tif", "jxl"}

// Renderer backends
const (
	RendererBrowser = "browser"
	RendererPDFium  = "pdfium"
	RendererFitz    = "fitz"
)

// Ledger types
const (
	LedgerNone     = "none"
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
	// LedgerEphemeral starts a throwaway postgres server for the run
	LedgerEphemeral = "ephemeral"
)

var sizePattern = regexp.MustCompile(`^\d+x\d+$`)

// BatchConfig contains every setting of a conversion run
type BatchConfig struct {
	InputDir  string
	OutputDir string
	Size      string
	Width     int
	Height    int
	Format    string
	Quality   int

	// QualityRaw keeps the unparsed value so bad input can be reported verbatim
	QualityRaw string

	Timeout   time.Duration
	KeepGoing bool
	Renderer  string
	Schedule  string

	ChromePath string
	Headless   bool
	PdfjsDir   string
	ListenAddr string

	LedgerType string
	LedgerDSN  string
}

// ValidationError reports a setting that was rejected before any rendering began
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Invalid %s \"%s\". %s", e.Field, e.Value, e.Message)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// LoadEnv reads .env files (silently ignored if missing)
func LoadEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("pdfcover.env")
}

// Defaults returns the configuration taken from the environment, before flags are applied
func Defaults() BatchConfig {
	return BatchConfig{
		InputDir:   filepath.ToSlash(getEnv("PDFCOVER_INPUT", "pdf")),
		OutputDir:  filepath.ToSlash(getEnv("PDFCOVER_OUTPUT", "output")),
		Size:       getEnv("PDFCOVER_SIZE", fmt.Sprintf("%dx%d", render.DefaultWidth, render.DefaultHeight)),
		Format:     getEnv("PDFCOVER_FORMAT", "png"),
		QualityRaw: getEnv("PDFCOVER_QUALITY", "80"),
		Timeout:    getEnvDuration("PDFCOVER_TIMEOUT", 0),
		KeepGoing:  getEnvBool("PDFCOVER_KEEP_GOING", false),
		Renderer:   getEnv("PDFCOVER_RENDERER", RendererBrowser),
		Schedule:   getEnv("PDFCOVER_SCHEDULE", ""),
		ChromePath: getEnv("CHROME_PATH", ""),
		Headless:   getEnvBool("CHROME_HEADLESS", true),
		PdfjsDir:   filepath.ToSlash(getEnv("PDFJS_DIR", "node_modules/pdfjs-dist/build")),
		ListenAddr: getEnv("PDFCOVER_LISTEN", "127.0.0.1:0"),
		LedgerType: getEnv("LEDGER_TYPE", LedgerNone),
		LedgerDSN:  getEnv("LEDGER_DSN", "pdfcover.db"),
	}
}

// ParseSize splits a WxH string into positive dimensions
func ParseSize(size string) (int, int, error) {
	invalid := &ValidationError{Field: "size format", Value: size, Message: "Expected format: WxH (e.g., 1920x1080)"}
	if !sizePattern.MatchString(size) {
		return 0, 0, invalid
	}
	parts := strings.SplitN(size, "x", 2)
	width, err := strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, invalid
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, invalid
	}
	return width, height, nil
}

// ParseQuality accepts an integer between 1 and 100
func ParseQuality(raw string) (int, error) {
	quality, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || quality < 1 || quality > 100 {
		return 0, &ValidationError{Field: "quality", Value: raw, Message: "Must be 1-100."}
	}
	return quality, nil
}

// Validate checks and normalises the configuration. It must pass before any
// server or browser is started.
func (c *BatchConfig) Validate() error {
	width, height, err := ParseSize(c.Size)
	if err != nil {
		return err
	}
	c.Width, c.Height = width, height

	known := false
	for _, f := range ValidFormats {
		if c.Format == f {
			known = true
			break
		}
	}
	if !known {
		return &ValidationError{Field: "format", Value: c.Format,
			Message: "Supported formats: " + strings.Join(ValidFormats, ", ")}
	}

	if c.QualityRaw != "" {
		quality, err := ParseQuality(c.QualityRaw)
		if err != nil {
			return err
		}
		c.Quality = quality
	} else if c.Quality < 1 || c.Quality > 100 {
		return &ValidationError{Field: "quality", Value: strconv.Itoa(c.Quality), Message: "Must be 1-100."}
	}

	info, err := os.Stat(c.InputDir)
	if err != nil || !info.IsDir() {
		return &ValidationError{Field: "input directory", Value: c.InputDir, Message: "Directory does not exist."}
	}

	if c.OutputDir == "" {
		return &ValidationError{Field: "output directory", Value: c.OutputDir, Message: "Must not be empty."}
	}

	if c.Timeout < 0 {
		return &ValidationError{Field: "timeout", Value: c.Timeout.String(), Message: "Must not be negative."}
	}

	switch c.Renderer {
	case RendererBrowser, RendererPDFium, RendererFitz:
	default:
		return &ValidationError{Field: "renderer", Value: c.Renderer,
			Message: "Supported renderers: browser, pdfium, fitz"}
	}
	if c.Renderer == RendererBrowser {
		if _, err := os.Stat(filepath.Join(c.PdfjsDir, "pdf.mjs")); err != nil {
			return &ValidationError{Field: "pdf.js directory", Value: c.PdfjsDir,
				Message: "pdf.mjs not found. Install pdfjs-dist or set PDFJS_DIR."}
		}
	}

	switch c.LedgerType {
	case LedgerNone, LedgerSQLite, LedgerPostgres, LedgerEphemeral:
	default:
		return &ValidationError{Field: "ledger type", Value: c.LedgerType,
			Message: "Supported ledgers: none, sqlite, postgres, ephemeral"}
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return &ValidationError{Field: "schedule", Value: c.Schedule, Message: err.Error()}
		}
	}
	return nil
}

// SetupLogging configures the application logger
func SetupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stdout")
	var logWriter io.Writer = os.Stdout

	if logOutput == "file" {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pdfcover.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
			} else {
				logWriter = logFile
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(logWriter, handlerOptions))
	Logger = logger
	return logger
}
