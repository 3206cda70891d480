package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"inkpress/internal/model"
)

type categoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category. Slug is unique per author.
func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
		INSERT INTO categories (author_id, name, slug, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, c.AuthorID, c.Name, c.Slug).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrCategoryExists
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	query := `
		SELECT id, author_id, name, slug, created_at, updated_at
		FROM categories
		WHERE id = $1
	`
	var c model.Category
	err := r.db.GetContext(ctx, &c, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *categoryRepository) ListAll(ctx context.Context) ([]model.Category, error) {
	query := `
		SELECT id, author_id, name, slug, created_at, updated_at
		FROM categories
		ORDER BY name ASC
	`
	var categories []model.Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.Category, error) {
	query := `
		SELECT id, author_id, name, slug, created_at, updated_at
		FROM categories
		WHERE author_id = $1
		ORDER BY name ASC
	`
	var categories []model.Category
	if err := r.db.SelectContext(ctx, &categories, query, authorID); err != nil {
		return nil, fmt.Errorf("list categories by author: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, c *model.Category) error {
	query := `
		UPDATE categories
		SET name = $1, slug = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, c.Name, c.Slug, c.ID).Scan(&c.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.ErrCategoryNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrCategoryExists
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows affected: %w", err)
	}
	if affected == 0 {
		return model.ErrCategoryNotFound
	}
	return nil
}
