package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/catalog-importer/internal/common"
)

const (
	suppliersTable  = "suppliers"
	categoriesTable = "categories"
)

// ResolveSupplier returns the id of the supplier called name, creating it when missing.
func (s *Store) ResolveSupplier(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, common.InvalidInputErrorf("supplier name is required")
	}

	insert, args := entsql.Dialect(s.dialect).
		Insert(suppliersTable).
		Columns("name", "created_at").
		Values(name, s.now()).
		OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing()).
		Query()
	var result sql.Result
	if err := s.drv.Exec(ctx, insert, args, &result); err != nil {
		return 0, fmt.Errorf("create supplier %q: %w", name, err)
	}

	id, err := s.lookupID(ctx, suppliersTable, "name", name)
	if err != nil {
		return 0, fmt.Errorf("resolve supplier %q: %w", name, err)
	}
	return id, nil
}

// ResolveCategory returns the id of the leaf of a category path such as
// "Furniture > Chairs" or "Furniture/Chairs", creating missing levels.
func (s *Store) ResolveCategory(ctx context.Context, path string) (int64, error) {
	parts := SplitCategoryPath(path)
	if len(parts) == 0 {
		return 0, common.InvalidInputErrorf("category is required")
	}

	var parent any // NULL for the root level
	var id int64
	for i, name := range parts {
		full := strings.Join(parts[:i+1], " > ")

		insert, args := entsql.Dialect(s.dialect).
			Insert(categoriesTable).
			Columns("name", "parent_id", "path").
			Values(name, parent, full).
			OnConflict(entsql.ConflictColumns("path"), entsql.DoNothing()).
			Query()
		var result sql.Result
		if err := s.drv.Exec(ctx, insert, args, &result); err != nil {
			return 0, fmt.Errorf("create category %q: %w", full, err)
		}

		got, err := s.lookupID(ctx, categoriesTable, "path", full)
		if err != nil {
			return 0, fmt.Errorf("resolve category %q: %w", full, err)
		}
		id = got
		parent = got
	}
	return id, nil
}

// SplitCategoryPath splits on '>' or '/' and drops empty segments.
func SplitCategoryPath(path string) []string {
	fields := strings.FieldsFunc(path, func(r rune) bool { return r == '>' || r == '/' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (s *Store) lookupID(ctx context.Context, table, column string, value any) (int64, error) {
	query, args := entsql.Dialect(s.dialect).
		Select("id").
		From(entsql.Table(table)).
		Where(entsql.EQ(column, value)).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("row not found after insert")
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
