package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files the reader cannot open as a grid.
var ErrUnsupportedFormat = errors.New("unsupported tabular format")

// Sheet is one named grid of cell text.
type Sheet struct {
	Name string
	Rows [][]string
}

// Reader reads spreadsheets into rows of cell text, one Sheet per worksheet.
type Reader struct {
	log *slog.Logger
}

func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{log: logger}
}

// ReadSheets opens path and returns every sheet in workbook order. Files
// without a known extension are sniffed by content.
func (r *Reader) ReadSheets(ctx context.Context, path string) ([]Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch ext {
	case "xlsx", "xlsm":
		return r.readWorkbook(path)
	case "csv":
		return r.readDelimited(path, ',')
	case "tsv":
		return r.readDelimited(path, '\t')
	default:
		return r.readSniffed(path, ext)
	}
}

func (r *Reader) readSniffed(path, ext string) ([]Sheet, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedFormat, ext, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
			return r.readWorkbook(path)
		case m.Is("text/csv"):
			return r.readDelimited(path, ',')
		case m.Is("text/tab-separated-values"):
			return r.readDelimited(path, '\t')
		}
	}
	return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, ext, mt.String())
}

func (r *Reader) readWorkbook(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}

	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	r.log.Debug("tabular.read.workbook", "file", filepath.Base(path), "sheets", len(sheets))
	return sheets, nil
}

func (r *Reader) readDelimited(path string, comma rune) ([]Sheet, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = fh.Close() }()

	rows, err := ReadDelimited(fh, comma)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []Sheet{{Name: name, Rows: rows}}, nil
}

// ReadDelimited parses a CSV/TSV stream, tolerating ragged rows and a UTF-8 BOM.
func ReadDelimited(src io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(src)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
