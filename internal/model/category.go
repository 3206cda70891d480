package model

import (
	"errors"
	"time"
)

// Category represents a post category owned by a user.
type Category struct {
	ID        int64     `db:"id" json:"id"`
	AuthorID  int64     `db:"author_id" json:"author_id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// UpdateCategoryRequest is the request body for renaming a category.
type UpdateCategoryRequest struct {
	Name string `json:"name"`
}

// Category errors
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrNotCategoryOwner = errors.New("not the owner of this category")
	ErrCategoryExists   = errors.New("category with this name already exists")
	ErrNameRequired     = errors.New("category name is required")
)
