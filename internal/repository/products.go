package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/catalog-importer/internal/entity"
)

const productsTable = "products"

// BulkCreate inserts each payload on its own so one rejected row does not take down the rest.
// Per-item failures carry the driver's message. The returned error is non-nil only when the
// store could not be reached at all.
func (s *Store) BulkCreate(ctx context.Context, payloads []entity.ProductPayload) (entity.BulkResult, error) {
	res := entity.BulkResult{
		Succeeded: make([]entity.ProductPayload, 0, len(payloads)),
		Failed:    []entity.FailedPayload{},
	}
	if len(payloads) == 0 {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	for _, p := range payloads {
		if err := s.insertProduct(ctx, p); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			s.logger.Debug("repository.product.rejected", "name", p.Name, "sku", p.SKU, "error", err)
			res.Failed = append(res.Failed, entity.FailedPayload{Payload: p, Message: err.Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, p)
	}

	s.logger.Info("repository.bulk_create",
		"payloads", len(payloads),
		"created", len(res.Succeeded),
		"failed", len(res.Failed),
	)
	return res, nil
}

func (s *Store) insertProduct(ctx context.Context, p entity.ProductPayload) error {
	refs := p.ImageReferences
	if refs == nil {
		refs = []string{}
	}
	imageRefs, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("encode image refs: %w", err)
	}

	var price any
	if p.Price != nil {
		price = p.Price.String()
	}

	query, args := entsql.Dialect(s.dialect).
		Insert(productsTable).
		Columns(
			"supplier_id", "category_id", "sku", "name", "description", "price",
			"minimum_order_quantity", "unit_of_measure", "dimensions", "material",
			"image_refs", "created_at",
		).
		Values(
			p.SupplierID, p.CategoryID, p.SKU, p.Name, p.Description, price,
			p.MinimumOrderQuantity, p.UnitOfMeasure, p.Dimensions, p.Material,
			string(imageRefs), s.now(),
		).
		Query()

	var result sql.Result
	return s.drv.Exec(ctx, query, args, &result)
}

// CountProducts returns the number of stored products.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	return s.count(ctx, productsTable)
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	query, args := entsql.Dialect(s.dialect).
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	defer rows.Close()
	n, err := entsql.ScanInt(rows)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// TableCounts is a row count per catalog table.
type TableCounts struct {
	Suppliers  int
	Categories int
	Products   int
}

// Counts returns row counts for the catalog tables.
func (s *Store) Counts(ctx context.Context) (TableCounts, error) {
	var out TableCounts
	var err error
	if out.Suppliers, err = s.count(ctx, suppliersTable); err != nil {
		return out, err
	}
	if out.Categories, err = s.count(ctx, categoriesTable); err != nil {
		return out, err
	}
	if out.Products, err = s.count(ctx, productsTable); err != nil {
		return out, err
	}
	return out, nil
}
