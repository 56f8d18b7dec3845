package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/utils"
)

type stubResults struct {
	recs []entity.ProductRecord
	err  error
}

func (s stubResults) GetResults(context.Context, string) ([]entity.ProductRecord, error) {
	return s.recs, s.err
}

func TestExportJobXLSX_WritesOneRowPerRecord(t *testing.T) {
	price := decimal.RequireFromString("12.50")
	moq := 10
	recs := []entity.ProductRecord{
		{
			SKU:                  utils.Ptr("A-1"),
			Name:                 "Oak Chair",
			Price:                &price,
			MinimumOrderQuantity: &moq,
			UnitOfMeasure:        utils.Ptr("pc"),
			ImageReferences:      []string{"a.jpg", "b.jpg"},
			SourcePageOrSheet:    utils.Ptr("Sheet1"),
		},
		{Name: "Bare Table"},
	}

	svc := NewService(stubResults{recs: recs}, nil)
	out, err := svc.ExportJobXLSX(context.Background(), "job-1")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])

	first := rows[1]
	assert.Equal(t, "0", first[0])
	assert.Equal(t, "A-1", first[1])
	assert.Equal(t, "Oak Chair", first[2])
	assert.Equal(t, "12.5", first[4])
	assert.Equal(t, "10", first[5])
	assert.Equal(t, "pc", first[6])
	assert.Equal(t, "a.jpg, b.jpg", first[10])
	assert.Equal(t, "Sheet1", first[11])

	second := rows[2]
	assert.Equal(t, "1", second[0])
	assert.Equal(t, "Bare Table", second[2])
}

func TestExportJobXLSX_PropagatesLookupErrors(t *testing.T) {
	svc := NewService(stubResults{err: common.JobNotFoundError("nope")}, nil)
	_, err := svc.ExportJobXLSX(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrJobNotFound)
}
