package ingest

import "github.com/joseph-ayodele/catalog-importer/constants"

// SourceFile is one staged input of a batch.
type SourceFile struct {
	Name    string               `json:"name"`
	Path    string               `json:"path"`
	Size    int64                `json:"size"`
	HashHex string               `json:"sha256"`
	Kind    constants.SourceKind `json:"kind"`
}

// DirStats summarizes a directory collection.
type DirStats struct {
	Scanned int
	Matched int
	Failed  int
}
