package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS suppliers (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		parent_id BIGINT REFERENCES categories(id),
		path TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		supplier_id BIGINT NOT NULL REFERENCES suppliers(id),
		category_id BIGINT NOT NULL REFERENCES categories(id),
		sku TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(14,4),
		minimum_order_quantity INTEGER NOT NULL DEFAULT 1,
		unit_of_measure TEXT NOT NULL,
		dimensions TEXT NOT NULL DEFAULT '',
		material TEXT NOT NULL DEFAULT '',
		image_refs TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT products_supplier_sku_name UNIQUE (supplier_id, sku, name)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS suppliers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		parent_id INTEGER REFERENCES categories(id),
		path TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		supplier_id INTEGER NOT NULL REFERENCES suppliers(id),
		category_id INTEGER NOT NULL REFERENCES categories(id),
		sku TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price TEXT,
		minimum_order_quantity INTEGER NOT NULL DEFAULT 1,
		unit_of_measure TEXT NOT NULL,
		dimensions TEXT NOT NULL DEFAULT '',
		material TEXT NOT NULL DEFAULT '',
		image_refs TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (supplier_id, sku, name)
	)`,
}

// Migrate creates the catalog tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if s.dialect == dialect.SQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := s.drv.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.logger.Info("catalog schema ready", "dialect", s.dialect)
	return nil
}
