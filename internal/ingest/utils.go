package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/joseph-ayodele/catalog-importer/constants"
)

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// DetectKind picks the extraction route by extension, then by sniffing content.
func DetectKind(path string) constants.SourceKind {
	if kind := constants.KindForExt(filepath.Ext(path)); kind != constants.SourceKindUnknown {
		return kind
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return constants.SourceKindUnknown
	}
	return KindForMIME(mt)
}

// KindForMIME maps a sniffed type to a source kind, walking up the type hierarchy.
func KindForMIME(mt *mimetype.MIME) constants.SourceKind {
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/pdf"):
			return constants.SourceKindDocument
		case m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
			m.Is("text/csv"), m.Is("text/tab-separated-values"):
			return constants.SourceKindTabular
		case strings.HasPrefix(m.String(), "image/"):
			return constants.SourceKindImage
		}
	}
	return constants.SourceKindUnknown
}

// hashFile returns the hex SHA-256 and size of path.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
