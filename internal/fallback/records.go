package fallback

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/extract"
	"github.com/joseph-ayodele/catalog-importer/internal/utils"
	"github.com/shopspring/decimal"
)

// RecordFromItem converts one loosely typed object from a model reply.
// Every field is optional: missing keys, nulls and values of the wrong type leave the field unset.
func RecordFromItem(item map[string]any, source string) entity.ProductRecord {
	rec := entity.ProductRecord{
		SKU:               textField(item, "sku"),
		Description:       textField(item, "description"),
		Dimensions:        textField(item, "dimensions"),
		Material:          textField(item, "material"),
		ImageReferences:   []string{},
		SourcePageOrSheet: utils.NonEmptyPtr(source),
	}
	if name := textField(item, "name"); name != nil {
		rec.Name = *name
	}
	if p, ok := priceField(item["price"]); ok {
		rec.Price = &p
	}
	moq, ok := quantityField(item["minimum_order_quantity"])
	if !ok {
		moq, ok = quantityField(item["moq"])
	}
	if ok {
		rec.MinimumOrderQuantity = &moq
	}
	if raw, err := json.Marshal(item); err == nil {
		rec.RawText = utils.NonEmptyPtr(string(raw))
	}
	return rec
}

func textField(item map[string]any, key string) *string {
	switch v := item[key].(type) {
	case string:
		if strings.EqualFold(strings.TrimSpace(v), "null") {
			return nil
		}
		return utils.NonEmptyPtr(v)
	case float64:
		return utils.NonEmptyPtr(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		return nil
	}
}

func priceField(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(t), true
	case string:
		return extract.ParsePrice(t)
	default:
		return decimal.Decimal{}, false
	}
}

func quantityField(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t <= 0 || t != math.Trunc(t) || t > math.MaxInt32 {
			return 0, false
		}
		return int(t), true
	case string:
		return extract.ParseQuantity(t)
	default:
		return 0, false
	}
}
