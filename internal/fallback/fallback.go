package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/llm"
	"github.com/joseph-ayodele/catalog-importer/internal/tabular"
)

// State is the fallback lifecycle of one source.
type State string

const (
	StateNotTriggered       State = "not-triggered"
	StateTriggered          State = "triggered"
	StateSucceeded          State = "succeeded"
	StateSkippedUnavailable State = "skipped-unavailable"
	StateFailed             State = "failed"
)

// IsTerminal reports whether the state ends the fallback for a source.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateSkippedUnavailable || s == StateFailed
}

// Outcome is the terminal result for one source. Message is set for skipped and failed
// outcomes and is meant for the job's error list.
type Outcome struct {
	State   State
	Records []entity.ProductRecord
	Message string
}

// Config tunes sampling and the response budget.
type Config struct {
	SampleRows       int
	MaxOutputTokens  int
	MaxPageTextRunes int
}

// Extractor hands unrecognised sources to an inference provider.
type Extractor struct {
	provider llm.Provider
	cfg      Config
	log      *slog.Logger
}

// NewExtractor builds an extractor; a nil provider makes every source skipped-unavailable.
func NewExtractor(provider llm.Provider, cfg Config, logger *slog.Logger) *Extractor {
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = 50
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = llm.BulkMaxOutputTokens
	}
	if cfg.MaxPageTextRunes <= 0 {
		cfg.MaxPageTextRunes = 4000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{provider: provider, cfg: cfg, log: logger}
}

// Available reports whether an inference provider is configured.
func (e *Extractor) Available() bool {
	return e != nil && e.provider != nil
}

// FromRows samples the first non-empty rows of an unrecognised sheet.
func (e *Extractor) FromRows(ctx context.Context, source string, rows [][]string) Outcome {
	if !e.Available() {
		return e.skipped(source, "no recognizable header")
	}
	sample := SampleRows(rows, e.cfg.SampleRows)
	if len(sample) == 0 {
		return Outcome{State: StateSucceeded, Records: []entity.ProductRecord{}}
	}
	req := llm.CompletionRequest{
		System: llm.CatalogSystemPrompt(),
		Prompt: llm.BuildRowsPrompt(source, sample),
	}
	return e.run(ctx, source, req, nil)
}

// FromPages sends rendered pages and their text layers.
func (e *Extractor) FromPages(ctx context.Context, source string, texts []llm.PageText, images []llm.Attachment) Outcome {
	if !e.Available() {
		return e.skipped(source, "document pages need AI extraction")
	}
	if len(texts) == 0 && len(images) == 0 {
		return e.failed(source, "document has no renderable pages")
	}
	req := llm.CompletionRequest{
		System:      llm.CatalogSystemPrompt(),
		Prompt:      llm.BuildPagesPrompt(source, texts, e.cfg.MaxPageTextRunes),
		Attachments: images,
	}
	return e.run(ctx, source, req, nil)
}

// FromImage sends one product photo or scan; records reference the image by name.
func (e *Extractor) FromImage(ctx context.Context, source string, img llm.Attachment) Outcome {
	if !e.Available() {
		return e.skipped(source, "images need AI extraction")
	}
	req := llm.CompletionRequest{
		System:      llm.CatalogSystemPrompt(),
		Prompt:      llm.BuildImagePrompt(source),
		Attachments: []llm.Attachment{img},
	}
	return e.run(ctx, source, req, []string{img.Name})
}

func (e *Extractor) run(ctx context.Context, source string, req llm.CompletionRequest, imageRefs []string) Outcome {
	start := time.Now()
	req.MaxOutputTokens = e.cfg.MaxOutputTokens
	log := e.log.With("job_id", common.JobIDFromContext(ctx))
	log.Info("fallback.triggered",
		"source", source,
		"provider", e.provider.Name(),
		"state", StateTriggered,
		"attachments", len(req.Attachments),
	)

	text, err := e.provider.Complete(ctx, req)
	if err != nil {
		log.Warn("fallback.provider_error", "source", source, "error", err, "rejected", errors.Is(err, llm.ErrRejected),
			"elapsed_ms", time.Since(start).Milliseconds())
		return e.failed(source, fmt.Sprintf("inference provider error: %v", err))
	}

	parsed := llm.ParseProductArray(text)
	if !parsed.Valid() {
		log.Warn("fallback.malformed_response", "source", source, "reason", parsed.Reason, "bytes", len(text))
		return e.failed(source, "malformed AI response: "+parsed.Reason)
	}

	records := make([]entity.ProductRecord, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		rec := RecordFromItem(item, source)
		if len(imageRefs) > 0 {
			rec.ImageReferences = append([]string{}, imageRefs...)
		}
		records = append(records, rec)
	}
	log.Info("fallback.succeeded",
		"source", source,
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Outcome{State: StateSucceeded, Records: records}
}

func (e *Extractor) skipped(source, why string) Outcome {
	msg := fmt.Sprintf("%s: %s and no inference provider is configured; skipped", source, why)
	e.log.Warn("fallback.skipped_unavailable", "source", source)
	return Outcome{State: StateSkippedUnavailable, Records: []entity.ProductRecord{}, Message: msg}
}

func (e *Extractor) failed(source, why string) Outcome {
	return Outcome{State: StateFailed, Records: []entity.ProductRecord{}, Message: fmt.Sprintf("%s: %s", source, why)}
}

// SampleRows returns up to n non-empty rows in sheet order.
func SampleRows(rows [][]string, n int) [][]string {
	out := make([][]string, 0, min(n, len(rows)))
	for _, row := range rows {
		if len(out) >= n {
			break
		}
		if tabular.IsEmptyRow(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}
