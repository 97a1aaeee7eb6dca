package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"minimal-price/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
	ErrProductNotFound       = errors.New("product not found")
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations
const pgUniqueViolation = "23505"

// CatalogRepository defines the interface for price catalog data access
type CatalogRepository interface {
	CreateCategory(ctx context.Context, name string) error
	UpsertProduct(ctx context.Context, categoryName, productName string, price float64) error
	RenameCategory(ctx context.Context, oldName, newName string) error
	RenameProduct(ctx context.Context, oldName, newName string) (int64, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// CreateCategory inserts a new category, failing if the name is taken
func (r *catalogRepository) CreateCategory(ctx context.Context, name string) error {
	query := `INSERT INTO categories (name) VALUES ($1)`

	_, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// UpsertProduct inserts a product or overwrites the price of an existing one
// matched by (category id, name). The product id stays stable across updates.
func (r *catalogRepository) UpsertProduct(ctx context.Context, categoryName, productName string, price float64) error {
	categoryID, err := r.findCategoryID(ctx, categoryName)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (category_id, name, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_id, name) DO UPDATE SET price = EXCLUDED.price
	`

	if _, err := r.db.ExecContext(ctx, query, categoryID, productName, price); err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

// RenameCategory updates a category name in place; the id is unchanged
func (r *catalogRepository) RenameCategory(ctx context.Context, oldName, newName string) error {
	query := `UPDATE categories SET name = $1 WHERE name = $2`

	result, err := r.db.ExecContext(ctx, query, newName, oldName)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to rename category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// RenameProduct updates products by name only, ignoring category scoping: if
// several categories carry a product with oldName, all of them are renamed in
// one call. Returns the affected row count so callers can detect a miss.
func (r *catalogRepository) RenameProduct(ctx context.Context, oldName, newName string) (int64, error) {
	query := `UPDATE products SET name = $1 WHERE name = $2`

	result, err := r.db.ExecContext(ctx, query, newName, oldName)
	if err != nil {
		return 0, fmt.Errorf("failed to rename product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// ListCategories retrieves all categories ordered by name
func (r *catalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT id, name FROM categories ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// ListProductsByCategory retrieves every product for a category id, ordered by name
func (r *catalogRepository) ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	query := `
		SELECT id, category_id, name, price
		FROM products
		WHERE category_id = $1
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.CategoryID, &product.Name, &product.Price); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func (r *catalogRepository) findCategoryID(ctx context.Context, name string) (int64, error) {
	query := `SELECT id FROM categories WHERE name = $1`

	var id int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrCategoryNotFound
		}
		return 0, fmt.Errorf("failed to find category by name: %w", err)
	}

	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
