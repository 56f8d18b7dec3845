package fallback

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/joseph-ayodele/catalog-importer/internal/llm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply string
	err   error
	reqs  []llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func TestFromRowsWithoutProviderIsSkipped(t *testing.T) {
	e := NewExtractor(nil, Config{}, nil)
	assert.False(t, e.Available())

	out := e.FromRows(context.Background(), "catalog.xlsx [sheet Misc]", [][]string{{"A", "B", "C"}, {"1", "2", "3"}})
	assert.Equal(t, StateSkippedUnavailable, out.State)
	assert.True(t, out.State.IsTerminal())
	assert.Empty(t, out.Records)
	assert.Contains(t, out.Message, "Misc")
}

func TestFromRowsSuccess(t *testing.T) {
	fp := &fakeProvider{reply: "```json\n[{\"sku\":\"A1\",\"name\":\"Widget\",\"price\":12.5,\"minimum_order_quantity\":100,\"material\":null},{\"name\":null,\"price\":\"USD 3,20\"}]\n```"}
	e := NewExtractor(fp, Config{}, nil)

	out := e.FromRows(context.Background(), "src", [][]string{{"A", "B"}, {"A1", "Widget"}})
	require.Equal(t, StateSucceeded, out.State)
	require.Len(t, out.Records, 2)

	w := out.Records[0]
	assert.Equal(t, "Widget", w.Name)
	assert.Equal(t, "A1", *w.SKU)
	assert.True(t, w.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 100, *w.MinimumOrderQuantity)
	assert.Nil(t, w.Material)
	assert.Equal(t, "src", *w.SourcePageOrSheet)

	nameless := out.Records[1]
	assert.Equal(t, "", nameless.Name)
	assert.True(t, nameless.Price.Equal(decimal.RequireFromString("3.20")))

	require.Len(t, fp.reqs, 1)
	assert.Equal(t, llm.BulkMaxOutputTokens, fp.reqs[0].MaxOutputTokens)
	assert.Greater(t, fp.reqs[0].MaxOutputTokens, llm.DefaultMaxOutputTokens)
}

func TestFromRowsSamplesFiftyNonEmptyRows(t *testing.T) {
	fp := &fakeProvider{reply: "[]"}
	e := NewExtractor(fp, Config{}, nil)

	rows := [][]string{{}, {""}}
	for i := 0; i < 80; i++ {
		rows = append(rows, []string{fmt.Sprintf("r%02d", i)})
	}
	out := e.FromRows(context.Background(), "src", rows)
	assert.Equal(t, StateSucceeded, out.State)
	assert.Empty(t, out.Records)

	prompt := fp.reqs[0].Prompt
	assert.Contains(t, prompt, "row 50: r49")
	assert.NotContains(t, prompt, "r50")
}

func TestFromRowsMalformedResponseFails(t *testing.T) {
	for _, reply := range []string{`{"name":"Widget"}`, `not json`, `[{"name":"a"}, "b"]`} {
		fp := &fakeProvider{reply: reply}
		out := NewExtractor(fp, Config{}, nil).FromRows(context.Background(), "sheet X", [][]string{{"a"}})
		assert.Equal(t, StateFailed, out.State, reply)
		assert.Empty(t, out.Records, reply)
		assert.Contains(t, out.Message, "sheet X")
		assert.Contains(t, out.Message, "malformed")
	}
}

func TestFromRowsProviderErrorFails(t *testing.T) {
	fp := &fakeProvider{err: fmt.Errorf("%w: content policy", llm.ErrRejected)}
	out := NewExtractor(fp, Config{}, nil).FromRows(context.Background(), "s", [][]string{{"a"}})
	assert.Equal(t, StateFailed, out.State)
	assert.Contains(t, out.Message, "content policy")
	assert.Len(t, fp.reqs, 1)
}

func TestFromRowsEmptySheetNeedsNoCall(t *testing.T) {
	fp := &fakeProvider{err: errors.New("should not be called")}
	out := NewExtractor(fp, Config{}, nil).FromRows(context.Background(), "s", [][]string{{}, {" "}})
	assert.Equal(t, StateSucceeded, out.State)
	assert.Empty(t, fp.reqs)
}

func TestFromPagesAndImage(t *testing.T) {
	fp := &fakeProvider{reply: `[{"name":"Chair","moq":"20 pcs"}]`}
	e := NewExtractor(fp, Config{MaxPageTextRunes: 100}, nil)

	out := e.FromPages(context.Background(), "brochure.pdf",
		[]llm.PageText{{Number: 1, Text: "Chair 20 pcs"}},
		[]llm.Attachment{{Name: "page-1.png", MIMEType: "image/png", Data: []byte{1}}})
	require.Equal(t, StateSucceeded, out.State)
	assert.Equal(t, 20, *out.Records[0].MinimumOrderQuantity)
	assert.Len(t, fp.reqs[0].Attachments, 1)

	out = e.FromImage(context.Background(), "chair.jpg", llm.Attachment{Name: "chair.jpg", MIMEType: "image/jpeg", Data: []byte{2}})
	require.Equal(t, StateSucceeded, out.State)
	assert.Equal(t, []string{"chair.jpg"}, out.Records[0].ImageReferences)

	empty := e.FromPages(context.Background(), "blank.pdf", nil, nil)
	assert.Equal(t, StateFailed, empty.State)

	none := NewExtractor(nil, Config{}, nil)
	assert.Equal(t, StateSkippedUnavailable, none.FromImage(context.Background(), "x.jpg", llm.Attachment{}).State)
	assert.Equal(t, StateSkippedUnavailable, none.FromPages(context.Background(), "x.pdf", nil, nil).State)
}
