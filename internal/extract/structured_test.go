package extract

import (
	"testing"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/header"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractSheet(t *testing.T, rows [][]string) []entity.ProductRecord {
	t.Helper()
	sel := header.SelectHeaderRow(rows, header.DefaultVocabulary(), header.DefaultMaxScanRows)
	require.True(t, sel.Recognized())
	return FromSheet("Sheet1", rows, sel.Index, sel.Mapping)
}

func assertScenarioRecord(t *testing.T, records []entity.ProductRecord) {
	t.Helper()
	require.Len(t, records, 1)
	r := records[0]
	require.NotNil(t, r.SKU)
	assert.Equal(t, "A1", *r.SKU)
	assert.Equal(t, "Widget", r.Name)
	require.NotNil(t, r.Price)
	assert.True(t, r.Price.Equal(decimal.RequireFromString("12.50")))
	require.NotNil(t, r.MinimumOrderQuantity)
	assert.Equal(t, 100, *r.MinimumOrderQuantity)
	require.NotNil(t, r.UnitOfMeasure)
	assert.Equal(t, "m2", *r.UnitOfMeasure)
}

func TestFromSheetHeaderAtTop(t *testing.T) {
	rows := [][]string{
		{"SKU", "Name", "Price (USD/m2)", "MOQ"},
		{"A1", "Widget", "12.50", "100"},
		{},
	}
	assertScenarioRecord(t, extractSheet(t, rows))
}

func TestFromSheetHeaderBelowBlankRows(t *testing.T) {
	rows := [][]string{
		{},
		{""},
		{"", ""},
		{"SKU", "Name", "Price (USD/m2)", "MOQ"},
		{"A1", "Widget", "12.50", "100"},
	}
	assertScenarioRecord(t, extractSheet(t, rows))
}

func TestFromSheetShiftInvariance(t *testing.T) {
	body := [][]string{
		{"Item No.", "Product Name", "Material", "FOB U/P (USD/pcs)", "MOQ", "Remark"},
		{"T-01", "Teapot", "porcelain", "3.20", "500", "gift box"},
		{"", "", "", "", "", ""},
		{"T-02", "Cup", "", "n/a", "1,000 pcs", ""},
	}
	base := extractSheet(t, body)
	require.Len(t, base, 2)
	for k := 1; k <= 8; k++ {
		rows := make([][]string, k, k+len(body))
		rows = append(rows, body...)
		assert.Equal(t, base, extractSheet(t, rows), "k=%d", k)
	}
}

func TestFromSheetDegradesBadCells(t *testing.T) {
	rows := [][]string{
		{"Item No.", "Product Name", "Material", "FOB U/P (USD/pcs)", "MOQ"},
		{"T-02", "Cup", "", "n/a", "lots"},
		{"T-03", "", "steel", "1.10", "10"},
	}
	records := extractSheet(t, rows)
	require.Len(t, records, 2)

	cup := records[0]
	assert.Equal(t, "Cup", cup.Name)
	assert.Nil(t, cup.Price)
	assert.Nil(t, cup.MinimumOrderQuantity)
	assert.Nil(t, cup.Material)
	assert.Equal(t, "pc", *cup.UnitOfMeasure)
	assert.Equal(t, "T-02 | Cup | n/a | lots", *cup.RawText)
	assert.Equal(t, "Sheet1", *cup.SourcePageOrSheet)

	nameless := records[1]
	assert.Equal(t, "", nameless.Name)
	assert.Equal(t, "steel", *nameless.Material)
	assert.InDelta(t, entity.WeightSKU+entity.WeightPrice+entity.WeightMinimumOrderQuantity+entity.WeightMaterial,
		nameless.ConfidenceScore(), 1e-9)
}

func TestFromSheetNoPriceColumnLeavesUnitUnset(t *testing.T) {
	mapping := header.Mapping{constants.CategoryName: 0, constants.CategorySKU: 1}
	records := FromSheet("s", [][]string{{"Name", "SKU"}, {"Bolt", "B1"}}, 0, mapping)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].UnitOfMeasure)
	assert.Equal(t, []string{}, records[0].ImageReferences)
}

func TestFromSheetRaggedRowsAndBadIndex(t *testing.T) {
	mapping := header.Mapping{constants.CategoryName: 0, constants.CategoryPrice: 3}
	records := FromSheet("s", [][]string{{"Name", "", "", "Price"}, {"Bolt"}}, 0, mapping)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Price)

	assert.Empty(t, FromSheet("s", [][]string{{"Name"}}, 5, mapping))
	assert.Empty(t, FromSheet("s", [][]string{{"Name"}}, 0, mapping))
}

func TestFromSheetConfidenceTracksFields(t *testing.T) {
	rows := [][]string{
		{"SKU", "Name", "Price"},
		{"A1", "Widget", "5"},
		{"", "Widget", ""},
	}
	records := extractSheet(t, rows)
	require.Len(t, records, 2)
	assert.Greater(t, records[0].ConfidenceScore(), records[1].ConfidenceScore())
	assert.InDelta(t, entity.WeightSKU+entity.WeightName+entity.WeightPrice, records[0].ConfidenceScore(), 1e-9)
}
