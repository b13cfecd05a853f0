package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pdfocr/internal/models"
)

const (
	// DefaultBaseURL routes requests through OpenRouter's OpenAI-compatible API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is the vision model used when none is configured.
	DefaultModel = "google/gemini-2.0-flash-001"
)

// Config stores one run's configuration, merged from command line flags and
// environment variables. Flags win over the environment.
type Config struct {
	InputPath  string
	OutputPath string

	APIKey  string
	BaseURL string
	Model   string

	DPI        int
	Format     models.ImageFormat
	IncludeRaw bool

	Concurrency    int
	MaxAttempts    int
	BackoffBase    time.Duration
	RequestTimeout time.Duration
	RequestsPerSec float64
}

// Load parses args (without the program name) and the environment. A .env
// file in the working directory is honored for development, so the
// OPENROUTER_API_KEY credential can live there.
func Load(args []string) (Config, error) {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	fs := flag.NewFlagSet("pdfocr", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: pdfocr [flags] <input.pdf>\n\n")
		fs.PrintDefaults()
	}

	var cfg Config
	var format string
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenRouter API key (default: OPENROUTER_API_KEY)")
	fs.IntVar(&cfg.DPI, "dpi", 300, "rasterization resolution in DPI (72-2400)")
	fs.StringVar(&format, "format", "png", "page image format: png, jpeg or tiff")
	fs.BoolVar(&cfg.IncludeRaw, "include-raw", false, "include raw API responses in the output")
	fs.StringVar(&cfg.Model, "model", "", "vision model identifier (default: OCR_MODEL or "+DefaultModel+")")
	fs.IntVar(&cfg.Concurrency, "concurrency", envInt("OCR_CONCURRENCY", 1), "pages extracted in parallel")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", envInt("OCR_MAX_ATTEMPTS", 1), "attempts per page for transient failures")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", envDur("OCR_REQUEST_TIMEOUT", 2*time.Minute), "per-request timeout")
	fs.StringVar(&cfg.OutputPath, "output", "", "output file path (default: <input-stem>_ocr.json beside the input)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return Config{}, errors.New("expected exactly one input PDF path")
	}
	cfg.InputPath = fs.Arg(0)
	cfg.Format = models.ImageFormat(format)

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	cfg.BaseURL = envStr("OPENROUTER_BASE_URL", DefaultBaseURL)
	if cfg.Model == "" {
		cfg.Model = envStr("OCR_MODEL", DefaultModel)
	}
	cfg.BackoffBase = envDur("OCR_BACKOFF_BASE", time.Second)
	cfg.RequestsPerSec = envFloat("OCR_REQUESTS_PER_SECOND", 0)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the merged configuration before any processing starts.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("missing API key: pass -api-key or set OPENROUTER_API_KEY")
	}
	if c.DPI < 72 || c.DPI > 2400 {
		return fmt.Errorf("dpi %d out of range [72, 2400]", c.DPI)
	}
	if !c.Format.Valid() {
		return fmt.Errorf("unsupported format %q: want png, jpeg or tiff", c.Format)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max-attempts must be at least 1, got %d", c.MaxAttempts)
	}
	return nil
}

func envStr(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
