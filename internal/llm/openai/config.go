package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/catalog-importer/internal/llm"
)

// Config for the OpenAI-compatible chat completions client.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // per attempt
	MaxRetries  int           // transient failures only
}

type Client struct {
	cfg        Config
	httpClient llm.HTTPDoer
	log        *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPDoer replaces the transport, e.g. with a retry client using short backoff in tests.
func WithHTTPDoer(d llm.HTTPDoer) Option {
	return func(c *Client) { c.httpClient = d }
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg: cfg,
		log: logger,
	}
	c.httpClient = llm.NewRetryClient(&http.Client{Timeout: cfg.Timeout}, cfg.MaxRetries, logger)
	for _, opt := range opts {
		opt(c)
	}
	return c
}
