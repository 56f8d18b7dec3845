package constants

import "strings"

// SourceKind selects the extraction route for an uploaded file.
type SourceKind string

const (
	SourceKindTabular  SourceKind = "TABULAR"
	SourceKindDocument SourceKind = "DOCUMENT"
	SourceKindImage    SourceKind = "IMAGE"
	SourceKindUnknown  SourceKind = "UNKNOWN"
)

// AllowedExtensions holds the file extensions accepted for catalog ingestion.
var AllowedExtensions = map[string]SourceKind{
	"xlsx": SourceKindTabular,
	"xlsm": SourceKindTabular,
	"csv":  SourceKindTabular,
	"tsv":  SourceKindTabular,
	"pdf":  SourceKindDocument,
	"jpg":  SourceKindImage,
	"jpeg": SourceKindImage,
	"png":  SourceKindImage,
	"webp": SourceKindImage,
	"gif":  SourceKindImage,
	"bmp":  SourceKindImage,
	"tif":  SourceKindImage,
	"tiff": SourceKindImage,
	"heic": SourceKindImage,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// KindForExt maps an extension (with or without dot) to its source kind.
func KindForExt(ext string) SourceKind {
	if kind, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return kind
	}
	return SourceKindUnknown
}
