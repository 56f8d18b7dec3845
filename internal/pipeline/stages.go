package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/catalog-importer/internal/document"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/extract"
	"github.com/joseph-ayodele/catalog-importer/internal/fallback"
	"github.com/joseph-ayodele/catalog-importer/internal/header"
	"github.com/joseph-ayodele/catalog-importer/internal/ingest"
	"github.com/joseph-ayodele/catalog-importer/internal/llm"
	"github.com/joseph-ayodele/catalog-importer/internal/tabular"
)

// FileOutcome is what one file contributes to its job.
type FileOutcome struct {
	Records []entity.ProductRecord
	Errors  []string
}

// Route extracts records from one kind of source file. Data problems are reported in
// FileOutcome.Errors, never returned as Go errors.
type Route interface {
	Extract(ctx context.Context, file ingest.SourceFile) FileOutcome
}

// SheetReader is the tabular reader collaborator.
type SheetReader interface {
	ReadSheets(ctx context.Context, path string) ([]tabular.Sheet, error)
}

// PageRenderer is the document renderer collaborator.
type PageRenderer interface {
	Render(ctx context.Context, path string) (document.Document, error)
}

// ImageSource is the image loader collaborator.
type ImageSource interface {
	Load(ctx context.Context, path string) (document.Image, error)
}

func sheetLabel(file, sheet string) string {
	return fmt.Sprintf("%s [sheet %s]", file, sheet)
}

// TabularStage recognises the header of every sheet and falls back to inference per sheet.
type TabularStage struct {
	Reader      SheetReader
	Vocabulary  *header.Vocabulary
	Fallback    *fallback.Extractor
	MaxScanRows int
	Logger      *slog.Logger
}

func NewTabularStage(reader SheetReader, vocab *header.Vocabulary, fb *fallback.Extractor, logger *slog.Logger) *TabularStage {
	if logger == nil {
		logger = slog.Default()
	}
	if fb == nil {
		fb = fallback.NewExtractor(nil, fallback.Config{}, logger)
	}
	if vocab == nil {
		vocab = header.DefaultVocabulary()
	}
	return &TabularStage{Reader: reader, Vocabulary: vocab, Fallback: fb, MaxScanRows: header.DefaultMaxScanRows, Logger: logger}
}

func (s *TabularStage) Extract(ctx context.Context, file ingest.SourceFile) FileOutcome {
	out := FileOutcome{Records: []entity.ProductRecord{}}
	sheets, err := s.Reader.ReadSheets(ctx, file.Path)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: cannot read spreadsheet: %v", file.Name, err))
		return out
	}
	if len(sheets) == 0 {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: workbook has no sheets", file.Name))
		return out
	}

	for _, sheet := range sheets {
		if isBlank(sheet.Rows) {
			s.Logger.Debug("pipeline.sheet.empty", "file", file.Name, "sheet", sheet.Name)
			continue
		}
		start := time.Now()
		sel := header.SelectHeaderRow(sheet.Rows, s.Vocabulary, s.MaxScanRows)
		if sel.Recognized() {
			recs := extract.FromSheet(sheet.Name, sheet.Rows, sel.Index, sel.Mapping)
			out.Records = append(out.Records, recs...)
			s.Logger.Info("pipeline.sheet.structured",
				"file", file.Name,
				"sheet", sheet.Name,
				"header_row", sel.Index,
				"score", sel.Score,
				"records", len(recs),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			continue
		}

		s.Logger.Info("pipeline.sheet.unrecognized", "file", file.Name, "sheet", sheet.Name, "score", sel.Score)
		res := s.Fallback.FromRows(ctx, sheetLabel(file.Name, sheet.Name), sheet.Rows)
		out.Records = append(out.Records, res.Records...)
		if res.Message != "" {
			out.Errors = append(out.Errors, res.Message)
		}
	}
	return out
}

func isBlank(rows [][]string) bool {
	for _, row := range rows {
		if !tabular.IsEmptyRow(row) {
			return false
		}
	}
	return true
}

// DocumentStage renders a bounded set of pages and hands them to inference.
type DocumentStage struct {
	Renderer PageRenderer
	Fallback *fallback.Extractor
	Logger   *slog.Logger
}

func NewDocumentStage(renderer PageRenderer, fb *fallback.Extractor, logger *slog.Logger) *DocumentStage {
	if logger == nil {
		logger = slog.Default()
	}
	if fb == nil {
		fb = fallback.NewExtractor(nil, fallback.Config{}, logger)
	}
	return &DocumentStage{Renderer: renderer, Fallback: fb, Logger: logger}
}

func (s *DocumentStage) Extract(ctx context.Context, file ingest.SourceFile) FileOutcome {
	out := FileOutcome{Records: []entity.ProductRecord{}}
	if !s.Fallback.Available() {
		// nothing can read the pages, so skip rendering
		res := s.Fallback.FromPages(ctx, file.Name, nil, nil)
		out.Errors = append(out.Errors, res.Message)
		return out
	}

	doc, err := s.Renderer.Render(ctx, file.Path)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: cannot render document: %v", file.Name, err))
		return out
	}

	texts := make([]llm.PageText, 0, len(doc.Pages))
	images := make([]llm.Attachment, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		texts = append(texts, llm.PageText{Number: p.Number, Text: p.Text})
		if len(p.PNG) > 0 {
			images = append(images, llm.Attachment{
				Name:     fmt.Sprintf("%s-page-%d.png", file.Name, p.Number),
				MIMEType: "image/png",
				Data:     p.PNG,
			})
		}
	}
	if doc.Truncated() {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: only the first %d of %d pages were extracted", file.Name, len(doc.Pages), doc.PageCount))
	}
	for _, w := range doc.Warnings {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %s", file.Name, w))
	}
	s.Logger.Debug("pipeline.document.rendered", "file", file.Name, "pages", len(doc.Pages), "warnings", len(doc.Warnings))

	res := s.Fallback.FromPages(ctx, file.Name, texts, images)
	out.Records = append(out.Records, res.Records...)
	if res.Message != "" {
		out.Errors = append(out.Errors, res.Message)
	}
	return out
}

// ImageStage sends one photo or scan to inference.
type ImageStage struct {
	Loader   ImageSource
	Fallback *fallback.Extractor
	Logger   *slog.Logger
}

func NewImageStage(loader ImageSource, fb *fallback.Extractor, logger *slog.Logger) *ImageStage {
	if logger == nil {
		logger = slog.Default()
	}
	if fb == nil {
		fb = fallback.NewExtractor(nil, fallback.Config{}, logger)
	}
	return &ImageStage{Loader: loader, Fallback: fb, Logger: logger}
}

func (s *ImageStage) Extract(ctx context.Context, file ingest.SourceFile) FileOutcome {
	out := FileOutcome{Records: []entity.ProductRecord{}}
	if !s.Fallback.Available() {
		res := s.Fallback.FromImage(ctx, file.Name, llm.Attachment{Name: file.Name})
		out.Errors = append(out.Errors, res.Message)
		return out
	}

	img, err := s.Loader.Load(ctx, file.Path)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("%s: cannot load image: %v", file.Name, err))
		return out
	}
	s.Logger.Debug("pipeline.image.loaded", "file", file.Name, "width", img.Width, "height", img.Height, "resized", img.Resized)

	res := s.Fallback.FromImage(ctx, file.Name, llm.Attachment{Name: file.Name, MIMEType: img.MIMEType, Data: img.Data})
	out.Records = append(out.Records, res.Records...)
	if res.Message != "" {
		out.Errors = append(out.Errors, res.Message)
	}
	return out
}
