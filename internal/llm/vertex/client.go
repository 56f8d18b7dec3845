package vertex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"github.com/joseph-ayodele/catalog-importer/internal/llm"
)

const (
	providerName = "vertex"
	defaultModel = "gemini-1.5-pro"
)

// Config for the Vertex AI Gemini client.
type Config struct {
	ProjectID   string
	Region      string
	Model       string
	Temperature float32
}

type Client struct {
	cfg  Config
	base *genai.Client
	log  *slog.Logger
}

// NewClient opens a genai client for cfg.ProjectID in cfg.Region.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("vertex: project and region cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{cfg: cfg, base: base, log: logger}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// Complete implements llm.Provider with a JSON-constrained Gemini call.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxOutputTokens
	}

	model := c.base.GenerativeModel(c.cfg.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(c.cfg.Temperature),
		MaxOutputTokens:  genai.Ptr(int32(maxTokens)),
	}

	parts := make([]genai.Part, 0, len(req.Attachments)+1)
	for _, att := range req.Attachments {
		parts = append(parts, genai.Blob{MIMEType: llm.MIMETypeOf(att), Data: att.Data})
	}
	parts = append(parts, genai.Text(req.Prompt))

	c.log.Info("llm.complete.start",
		"req_id", rid,
		"provider", providerName,
		"model", c.cfg.Model,
		"attachments", len(req.Attachments),
		"max_tokens", maxTokens,
	)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		c.log.Error("llm.complete.generate_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", fmt.Errorf("%w: %v", llm.ErrRejected, err)
		}
		return "", fmt.Errorf("vertex generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("vertex: empty response")
	}

	c.log.Info("llm.complete.ok",
		"req_id", rid,
		"content_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
