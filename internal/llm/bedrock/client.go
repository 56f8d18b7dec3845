package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/uuid"
	"github.com/joseph-ayodele/catalog-importer/internal/llm"
)

const (
	providerName     = "bedrock"
	anthropicVersion = "bedrock-2023-05-31"
	defaultModelID   = "anthropic.claude-3-5-sonnet-20240620-v1:0"
)

// Config for the Bedrock Anthropic messages client.
type Config struct {
	Region      string
	ModelID     string
	Temperature float32
	MaxRetries  int
}

// InvokeAPI is the slice of the bedrockruntime client the provider uses.
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Client struct {
	cfg Config
	api InvokeAPI
	log *slog.Logger
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
	Temperature      float32   `json:"temperature"`
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewClient loads the default AWS credential chain for cfg.Region.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.MaxRetries > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(cfg.MaxRetries+1))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithAPI(cfg, bedrockruntime.NewFromConfig(awsCfg), logger), nil
}

// NewWithAPI builds a client over an existing InvokeAPI.
func NewWithAPI(cfg Config, api InvokeAPI, logger *slog.Logger) *Client {
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, api: api, log: logger}
}

func (c *Client) Name() string { return providerName }

// Complete implements llm.Provider via InvokeModel with the Anthropic messages format.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxOutputTokens
	}

	blocks := make([]contentBlock, 0, len(req.Attachments)+1)
	for _, att := range req.Attachments {
		blocks = append(blocks, contentBlock{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: llm.MIMETypeOf(att),
				Data:      base64.StdEncoding.EncodeToString(att.Data),
			},
		})
	}
	blocks = append(blocks, contentBlock{Type: "text", Text: req.Prompt})

	body, err := json.Marshal(invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		System:           req.System,
		Messages:         []message{{Role: "user", Content: blocks}},
		Temperature:      c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal bedrock request: %w", err)
	}

	c.log.Info("llm.complete.start",
		"req_id", rid,
		"provider", providerName,
		"model", c.cfg.ModelID,
		"attachments", len(req.Attachments),
		"max_tokens", maxTokens,
	)

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.cfg.ModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		c.log.Error("llm.complete.invoke_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", classify(err)
	}

	var resp invokeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decode bedrock response: %w", err)
	}
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	c.log.Info("llm.complete.ok",
		"req_id", rid,
		"stop_reason", resp.StopReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return strings.TrimSpace(text.String()), nil
}

// classify tags validation and access failures as rejections.
func classify(err error) error {
	var validation *types.ValidationException
	var denied *types.AccessDeniedException
	if errors.As(err, &validation) || errors.As(err, &denied) {
		return fmt.Errorf("%w: %v", llm.ErrRejected, err)
	}
	return fmt.Errorf("bedrock invoke: %w", err)
}
