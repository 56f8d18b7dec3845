package entity

import "github.com/shopspring/decimal"

// References are the resolved supplier and category identifiers attached to every payload of a batch.
type References struct {
	SupplierID int64 `json:"supplier_id"`
	CategoryID int64 `json:"category_id"`
}

// ProductPayload is an entity-creation request for the catalog store.
type ProductPayload struct {
	SupplierID           int64            `json:"supplier_id"`
	CategoryID           int64            `json:"category_id"`
	SKU                  string           `json:"sku"`
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	Price                *decimal.Decimal `json:"price,omitempty"`
	MinimumOrderQuantity int              `json:"minimum_order_quantity"`
	UnitOfMeasure        string           `json:"unit_of_measure"`
	Dimensions           string           `json:"dimensions,omitempty"`
	Material             string           `json:"material,omitempty"`
	ImageReferences      []string         `json:"image_references,omitempty"`
	SourceIndex          int              `json:"source_index"`
}

// FailedPayload pairs a payload with the store's error message.
type FailedPayload struct {
	Payload ProductPayload `json:"payload"`
	Message string         `json:"message"`
}

// BulkResult is the per-item outcome of one bulk creation call.
type BulkResult struct {
	Succeeded []ProductPayload `json:"succeeded"`
	Failed    []FailedPayload  `json:"failed"`
}

// ImportOutcome summarises one confirmation call.
type ImportOutcome struct {
	SelectedCount   int      `json:"selected_count"`
	CreatedCount    int      `json:"created_count"`
	DuplicateCount  int      `json:"duplicate_count"`
	OtherErrorCount int      `json:"other_error_count"`
	ErrorDetails    []string `json:"error_details"`
	SkippedRecords  []string `json:"skipped_records"`
}
