package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CategoryRepository handles database operations for categories.
type CategoryRepository struct {
	DB *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

const categoryColumns = `id, name, slug, description, sequence`

// FindByName finds a category by its exact name.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*Category, error) {
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE name = ?", name)
}

// GetBySlug finds a category by its slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE slug = ?", slug)
}

// GetByID finds a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
}

func (r *CategoryRepository) getOne(ctx context.Context, query string, arg interface{}) (*Category, error) {
	var category Category
	if err := r.DB.GetContext(ctx, &category, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// SearchByName searches for categories whose name contains query.
func (r *CategoryRepository) SearchByName(ctx context.Context, query string) ([]*Category, error) {
	var categories []*Category
	err := r.DB.SelectContext(ctx, &categories,
		"SELECT "+categoryColumns+" FROM categories WHERE name LIKE ? ORDER BY sequence, name", "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search categories: %w", err)
	}
	return categories, nil
}

// GetAll retrieves all categories in display order.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	err := r.DB.SelectContext(ctx, &categories, "SELECT "+categoryColumns+" FROM categories ORDER BY sequence, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// SlugExists reports whether slug is taken by a category other than excludeID.
func (r *CategoryRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM categories WHERE slug = ? AND id <> ?", slug, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check category slug: %w", err)
	}
	return n > 0, nil
}

// CountEvents returns how many events reference the category.
func (r *CategoryRepository) CountEvents(ctx context.Context, id int64) (int, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM events WHERE category_id = ?", id); err != nil {
		return 0, fmt.Errorf("failed to count category events: %w", err)
	}
	return n, nil
}

// Save creates a new category and returns its ID.
func (r *CategoryRepository) Save(ctx context.Context, category *Category) (int64, error) {
	res, err := r.DB.NamedExecContext(ctx,
		"INSERT INTO categories (name, slug, description, sequence) VALUES (:name, :slug, :description, :sequence)", category)
	if err != nil {
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	category.ID = id
	return id, nil
}

// Update writes all editable fields of an existing category.
func (r *CategoryRepository) Update(ctx context.Context, category *Category) error {
	res, err := r.DB.NamedExecContext(ctx,
		"UPDATE categories SET name = :name, slug = :slug, description = :description, sequence = :sequence WHERE id = :id", category)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectRow(res)
}

// Delete removes a category by ID.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectRow(res)
}

// expectRow converts a zero-row result into ErrNotFound.
func expectRow(res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
