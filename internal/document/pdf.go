package document

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page is one rendered document page.
type Page struct {
	Number int
	Text   string
	PNG    []byte
}

// Document is the bounded view of a PDF handed to the AI route.
type Document struct {
	PageCount int
	Pages     []Page
	Warnings  []string
}

// Truncated reports whether pages beyond the configured bound were dropped.
func (d Document) Truncated() bool {
	return d.PageCount > len(d.Pages)
}

// PDFConfig tunes rasterisation.
type PDFConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // default 150
	MaxPages int    // default 5
}

// PDFRenderer reads the text layer with pdfcpu and rasterises the first pages with pdftoppm.
type PDFRenderer struct {
	cfg    PDFConfig
	runner Runner
	logger *slog.Logger
}

func NewPDFRenderer(cfg PDFConfig, runner Runner, logger *slog.Logger) *PDFRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	return &PDFRenderer{cfg: cfg, runner: runner, logger: logger}
}

// Render returns at most MaxPages pages. A PDF that pdfcpu cannot parse is still rasterised;
// the call fails only when neither text nor images could be produced.
func (r *PDFRenderer) Render(ctx context.Context, path string) (Document, error) {
	var doc Document

	texts, count, err := readPageTexts(path, r.cfg.MaxPages)
	if err != nil {
		r.logger.Warn("pdf text layer unavailable", "path", path, "error", err)
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("text layer unavailable: %v", err))
	}
	doc.PageCount = count

	last := r.cfg.MaxPages
	if count > 0 && count < last {
		last = count
	}
	images, warn, rerr := r.rasterize(ctx, path, last)
	doc.Warnings = append(doc.Warnings, warn...)
	if rerr != nil {
		r.logger.Warn("pdf rasterisation failed", "path", path, "error", rerr)
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("rasterisation failed: %v", rerr))
	}

	n := max(len(texts), len(images))
	for i := 0; i < n; i++ {
		p := Page{Number: i + 1}
		if i < len(texts) {
			p.Text = texts[i]
		}
		if i < len(images) {
			p.PNG = images[i]
		}
		doc.Pages = append(doc.Pages, p)
	}
	if doc.PageCount < len(doc.Pages) {
		doc.PageCount = len(doc.Pages)
	}

	if len(images) == 0 && !hasText(texts) {
		return doc, fmt.Errorf("pdf %s: no renderable pages", filepath.Base(path))
	}
	r.logger.Debug("pdf rendered", "path", path, "pages", len(doc.Pages), "page_count", doc.PageCount)
	return doc, nil
}

func hasText(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}

// readPageTexts returns the text of the first maxPages pages and the total page count.
func readPageTexts(path string, maxPages int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, 0, fmt.Errorf("pdfcpu read: %w", err)
	}

	last := min(pctx.PageCount, maxPages)
	texts := make([]string, 0, last)
	for pageNr := 1; pageNr <= last; pageNr++ {
		texts = append(texts, pageText(pctx, pageNr))
	}
	return texts, pctx.PageCount, nil
}

func pageText(pctx *model.Context, pageNr int) string {
	rd, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil || rd == nil {
		return ""
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return ""
	}
	return TextFromContentStream(data)
}

// rasterize renders pages 1..last to PNG and returns them in page order.
func (r *PDFRenderer) rasterize(ctx context.Context, path string, last int) ([][]byte, []string, error) {
	tmpDir, err := os.MkdirTemp("", "catalog-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			r.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 150 -png -f 1 -l <last> <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm,
		"-r", strconv.Itoa(r.cfg.DPI), "-png", "-f", "1", "-l", strconv.Itoa(last), path, prefix)
	if err != nil {
		return nil, []string{strings.TrimSpace(string(errb))}, fmt.Errorf("pdftoppm: %w", err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool {
		return pageSuffix(matches[i]) < pageSuffix(matches[j])
	})
	if len(matches) > last {
		matches = matches[:last]
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("pdftoppm produced no images")
	}

	var warns []string
	out := make([][]byte, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		out = append(out, data)
	}
	return out, warns, nil
}

// pageSuffix parses N from ".../page-N.png"; pdftoppm zero-pads only for long documents.
func pageSuffix(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), ".png")
	i := strings.LastIndexByte(base, '-')
	n, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return 0
	}
	return n
}
