package constants

import (
	"strings"
)

// Category is a canonical column category recognised in catalog headers.
type Category string

const (
	CategorySKU                  Category = "sku"
	CategoryName                 Category = "name"
	CategoryPrice                Category = "price"
	CategoryMinimumOrderQuantity Category = "minimum_order_quantity"
	CategoryDescription          Category = "description"
	CategoryMaterial             Category = "material"
	CategoryDimensions           Category = "dimensions"
)

// allCategories fixes the iteration order used when scoring rows.
var allCategories = []Category{
	CategorySKU,
	CategoryName,
	CategoryPrice,
	CategoryMinimumOrderQuantity,
	CategoryDescription,
	CategoryMaterial,
	CategoryDimensions,
}

// AllCategories returns a copy of the category set in scoring order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a loosely written category key onto the fixed set.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Category{
		"moq":       CategoryMinimumOrderQuantity,
		"min_order": CategoryMinimumOrderQuantity,
		"size":      CategoryDimensions,
		"dimension": CategoryDimensions,
		"desc":      CategoryDescription,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}
	return "", false
}
