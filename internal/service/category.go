package service

import (
	"context"
	"strings"

	"github.com/gosimple/slug"

	"inkpress/internal/model"
	"inkpress/internal/repository"
)

// CategoryService handles business logic for post categories.
type CategoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Create adds a category owned by the user.
func (s *CategoryService) Create(ctx context.Context, authorID int64, req *model.CreateCategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrNameRequired
	}

	category := &model.Category{
		AuthorID: authorID,
		Name:     name,
		Slug:     slug.Make(name),
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// GetByID retrieves a single category.
func (s *CategoryService) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAll returns every category, for browsing.
func (s *CategoryService) ListAll(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListAll(ctx)
}

// ListByAuthor returns the user's own categories.
func (s *CategoryService) ListByAuthor(ctx context.Context, authorID int64) ([]model.Category, error) {
	return s.repo.ListByAuthor(ctx, authorID)
}

// Update renames a category. Only the owner can rename.
func (s *CategoryService) Update(ctx context.Context, categoryID, userID int64, req *model.UpdateCategoryRequest) (*model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrNameRequired
	}

	category, err := s.getOwned(ctx, categoryID, userID)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Slug = slug.Make(name)

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category. Only the owner can delete. Posts referencing
// the category keep it alive through the foreign key; deleting those first
// is the client's responsibility.
func (s *CategoryService) Delete(ctx context.Context, categoryID, userID int64) error {
	if _, err := s.getOwned(ctx, categoryID, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, categoryID)
}

func (s *CategoryService) getOwned(ctx context.Context, categoryID, userID int64) (*model.Category, error) {
	category, err := s.repo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category.AuthorID != userID {
		return nil, model.ErrNotCategoryOwner
	}
	return category, nil
}
