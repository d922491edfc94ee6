package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store"
)

func (r *Repository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.now().UTC()
	}

	var err error
	if product.ID == 0 {
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO products (name, description, price, inventory_count, created_at)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			product.Name,
			product.Description,
			product.Price,
			product.InventoryCount,
			r.dialect.timeArg(product.CreatedAt)).Scan(&product.ID)
	} else {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO products (id, name, description, price, inventory_count, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			product.ID,
			product.Name,
			product.Description,
			product.Price,
			product.InventoryCount,
			r.dialect.timeArg(product.CreatedAt))
		if err == nil && r.dialect.isPostgres() {
			// keep the serial ahead of explicitly assigned ids
			_, err = r.db.ExecContext(ctx,
				`SELECT setval(pg_get_serial_sequence('products', 'id'), (SELECT MAX(id) FROM products))`)
		}
	}

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrProductExists
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetProduct returns the committed state of a product
func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return scanProduct(r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, inventory_count, created_at FROM products WHERE id = $1`, id), id)
}

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, price, inventory_count, created_at FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.InventoryCount, dbTime{&p.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func scanProduct(row *sql.Row, id int64) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.InventoryCount, dbTime{&p.CreatedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &store.ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query product %d: %w", id, err)
	}
	return &p, nil
}
