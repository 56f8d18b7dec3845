package extract

import (
	"strings"

	"github.com/joseph-ayodele/catalog-importer/constants"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/header"
	"github.com/joseph-ayodele/catalog-importer/internal/tabular"
	"github.com/joseph-ayodele/catalog-importer/internal/utils"
)

// FromSheet builds one record per non-empty row after headerIndex using mapping.
// Unmapped categories stay unset and an unparsable price or quantity leaves only that field unset.
// Records without a name are kept; dropping them is the importer's decision.
func FromSheet(sheetName string, rows [][]string, headerIndex int, mapping header.Mapping) []entity.ProductRecord {
	if headerIndex < 0 || headerIndex >= len(rows) {
		return []entity.ProductRecord{}
	}
	grid := tabular.Normalize(rows)

	var unit string
	if col, ok := mapping.Column(constants.CategoryPrice); ok {
		unit, _ = header.DetectUnit(tabular.Cell(grid.Raw[headerIndex], col))
	}

	records := make([]entity.ProductRecord, 0, len(rows)-headerIndex-1)
	for _, row := range grid.Raw[headerIndex+1:] {
		if tabular.IsEmptyRow(row) {
			continue
		}
		records = append(records, buildRecord(sheetName, row, mapping, unit))
	}
	return records
}

func buildRecord(sheetName string, row []string, mapping header.Mapping, unit string) entity.ProductRecord {
	cell := func(cat constants.Category) string {
		col, ok := mapping.Column(cat)
		if !ok {
			return ""
		}
		return tabular.Cell(row, col)
	}

	rec := entity.ProductRecord{
		SKU:               utils.NonEmptyPtr(cell(constants.CategorySKU)),
		Name:              cell(constants.CategoryName),
		Description:       utils.NonEmptyPtr(cell(constants.CategoryDescription)),
		Dimensions:        utils.NonEmptyPtr(cell(constants.CategoryDimensions)),
		Material:          utils.NonEmptyPtr(cell(constants.CategoryMaterial)),
		UnitOfMeasure:     utils.NonEmptyPtr(unit),
		ImageReferences:   []string{},
		RawText:           utils.NonEmptyPtr(joinCells(row)),
		SourcePageOrSheet: utils.NonEmptyPtr(sheetName),
	}
	if p, ok := ParsePrice(cell(constants.CategoryPrice)); ok {
		rec.Price = &p
	}
	if q, ok := ParseQuantity(cell(constants.CategoryMinimumOrderQuantity)); ok {
		rec.MinimumOrderQuantity = &q
	}
	return rec
}

func joinCells(row []string) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " | ")
}
