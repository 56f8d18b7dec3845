package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/catalog-importer/constants"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// FSIngestor stages uploads and collects batches from the local filesystem.
type FSIngestor struct {
	Root     string // staging root; one subdirectory per batch
	MaxBytes int64  // per-file limit for uploads; 0 = unlimited
	logger   *slog.Logger
}

func NewFSIngestor(root string, maxBytes int64, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Root: root, MaxBytes: maxBytes, logger: logger}
}

// BatchDir creates the staging directory for one batch.
func (i *FSIngestor) BatchDir(batchID string) (string, error) {
	dir := filepath.Join(i.Root, "catalog-"+batchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	return dir, nil
}

// StageUpload copies r into dir under the base of name, hashing as it writes.
// Unsupported extensions are still staged; the pipeline reports them per file.
func (i *FSIngestor) StageUpload(dir, name string, r io.Reader) (SourceFile, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return SourceFile{}, fmt.Errorf("invalid file name %q", name)
	}

	path := uniquePath(dir, base)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return SourceFile{}, fmt.Errorf("stage %s: %w", base, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			i.logger.Warn("close staged file", "path", path, "error", err)
		}
	}()

	src := r
	if i.MaxBytes > 0 {
		src = io.LimitReader(r, i.MaxBytes+1)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), src)
	if err != nil {
		_ = os.Remove(path)
		return SourceFile{}, fmt.Errorf("stage %s: %w", base, err)
	}
	if i.MaxBytes > 0 && n > i.MaxBytes {
		_ = os.Remove(path)
		return SourceFile{}, fmt.Errorf("%s: %w (%d bytes)", base, ErrTooLarge, i.MaxBytes)
	}

	out := SourceFile{
		Name:    base,
		Path:    path,
		Size:    n,
		HashHex: hex.EncodeToString(h.Sum(nil)),
	}
	out.Kind = DetectKind(path)
	i.logger.Debug("upload staged", "file", base, "bytes", n, "kind", out.Kind)
	return out, nil
}

// CollectDirectory walks root, skips hidden entries if requested, and returns every
// supported file in walk order.
func (i *FSIngestor) CollectDirectory(ctx context.Context, root string, skipHidden bool) ([]SourceFile, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var files []SourceFile
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			i.logger.Warn("walk error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		sum, size, err := hashFile(path)
		if err != nil {
			i.logger.Warn("hash failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		files = append(files, SourceFile{
			Name:    filepath.Base(path),
			Path:    path,
			Size:    size,
			HashHex: sum,
			Kind:    constants.KindForExt(filepath.Ext(path)),
		})
		return nil
	})
	if err != nil {
		return files, stats, fmt.Errorf("walk: %w", err)
	}
	return files, stats, nil
}

// Cleanup removes a batch staging directory.
func (i *FSIngestor) Cleanup(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		i.logger.Warn("failed to remove staging dir", "dir", dir, "error", err)
	}
}

func uniquePath(dir, base string) string {
	path := filepath.Join(dir, base)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; ; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			return p
		}
	}
}
