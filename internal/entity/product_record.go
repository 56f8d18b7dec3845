package entity

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductRecord is the canonical, source-agnostic product extracted from a catalog.
// The confidence score is derived from populated fields and is never stored.
type ProductRecord struct {
	SKU                  *string          `json:"sku"`
	Name                 string           `json:"name"`
	Description          *string          `json:"description"`
	Price                *decimal.Decimal `json:"price"`
	MinimumOrderQuantity *int             `json:"minimum_order_quantity"`
	Dimensions           *string          `json:"dimensions"`
	Material             *string          `json:"material"`
	UnitOfMeasure        *string          `json:"unit_of_measure"`
	SuggestedCategory    *string          `json:"suggested_category"`
	ImageReferences      []string         `json:"image_references"`
	RawText              *string          `json:"raw_text"`
	SourcePageOrSheet    *string          `json:"source_page_or_sheet"`
}

// Field weights for the confidence score; they sum to 1.
const (
	WeightName                 = 0.30
	WeightPrice                = 0.25
	WeightSKU                  = 0.15
	WeightMinimumOrderQuantity = 0.10
	WeightDescription          = 0.10
	WeightMaterial             = 0.05
	WeightDimensions           = 0.05
)

// ConfidenceScore is the weighted share of populated fields, in [0,1].
func (r ProductRecord) ConfidenceScore() float64 {
	score := 0.0
	if strings.TrimSpace(r.Name) != "" {
		score += WeightName
	}
	if r.Price != nil {
		score += WeightPrice
	}
	if present(r.SKU) {
		score += WeightSKU
	}
	if r.MinimumOrderQuantity != nil {
		score += WeightMinimumOrderQuantity
	}
	if present(r.Description) {
		score += WeightDescription
	}
	if present(r.Material) {
		score += WeightMaterial
	}
	if present(r.Dimensions) {
		score += WeightDimensions
	}
	if score > 1 {
		return 1
	}
	return score
}

// HasName reports whether the record carries the one field import requires.
func (r ProductRecord) HasName() bool {
	return strings.TrimSpace(r.Name) != ""
}

type productRecordJSON ProductRecord

// MarshalJSON adds the derived confidence_score.
func (r ProductRecord) MarshalJSON() ([]byte, error) {
	if r.ImageReferences == nil {
		r.ImageReferences = []string{}
	}
	return json.Marshal(struct {
		productRecordJSON
		ConfidenceScore float64 `json:"confidence_score"`
	}{productRecordJSON(r), r.ConfidenceScore()})
}

// UnmarshalJSON ignores any incoming confidence_score; it is always derived.
func (r *ProductRecord) UnmarshalJSON(data []byte) error {
	var aux productRecordJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = ProductRecord(aux)
	return nil
}

// Clone returns a copy that shares no slices with r.
func (r ProductRecord) Clone() ProductRecord {
	out := r
	if r.ImageReferences != nil {
		out.ImageReferences = append([]string(nil), r.ImageReferences...)
	}
	return out
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
