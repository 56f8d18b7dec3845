package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageUpload(t *testing.T) {
	ing := NewFSIngestor(t.TempDir(), 0, nil)
	dir, err := ing.BatchDir("b1")
	require.NoError(t, err)

	a, err := ing.StageUpload(dir, "../../prices.csv", strings.NewReader("sku,name\nA1,Chair\n"))
	require.NoError(t, err)
	assert.Equal(t, "prices.csv", a.Name)
	assert.Equal(t, dir, filepath.Dir(a.Path))
	assert.Equal(t, int64(18), a.Size)
	assert.Len(t, a.HashHex, 64)
	assert.Equal(t, constants.SourceKindTabular, a.Kind)

	b, err := ing.StageUpload(dir, "prices.csv", strings.NewReader("sku,name\nA1,Chair\n"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
	assert.Equal(t, a.HashHex, b.HashHex)

	ing.Cleanup(dir)
	_, err = os.Stat(dir)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStageUploadEnforcesLimit(t *testing.T) {
	ing := NewFSIngestor(t.TempDir(), 4, nil)
	dir, err := ing.BatchDir("b2")
	require.NoError(t, err)

	_, err = ing.StageUpload(dir, "big.csv", strings.NewReader("0123456789"))
	require.ErrorIs(t, err, ErrTooLarge)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	_, err = ing.StageUpload(dir, "  ", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestCollectDirectory(t *testing.T) {
	root := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	write("a.csv", "x")
	write("sub/b.PDF", "%PDF-1.4")
	write("notes.txt", "ignored")
	write(".hidden/c.csv", "y")

	files, stats, err := NewFSIngestor("", 0, nil).CollectDirectory(context.Background(), root, true)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.csv", files[0].Name)
	assert.Equal(t, constants.SourceKindDocument, files[1].Kind)
	assert.Equal(t, 2, stats.Matched)

	_, _, err = NewFSIngestor("", 0, nil).CollectDirectory(context.Background(), " ", true)
	assert.Error(t, err)
}

func TestDetectKindSniffsWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "upload")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n"), 0o644))
	assert.Equal(t, constants.SourceKindDocument, DetectKind(pdf))

	png := filepath.Join(dir, "photo.bin")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))
	assert.Equal(t, constants.SourceKindImage, DetectKind(png))

	txt := filepath.Join(dir, "readme")
	require.NoError(t, os.WriteFile(txt, []byte("hello there"), 0o644))
	assert.Equal(t, constants.SourceKindUnknown, DetectKind(txt))

	assert.Equal(t, constants.SourceKindTabular, DetectKind("whatever.xlsx"))
}
