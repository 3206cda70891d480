package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"inkpress/internal/httputil"
	"inkpress/internal/model"
	"inkpress/internal/service"
	"inkpress/internal/transport/http/middleware"
	"inkpress/internal/validator"
)

// CategoryHandler groups category HTTP endpoints.
type CategoryHandler struct {
	categoryService *service.CategoryService
	validator       *validator.Validator
}

func NewCategoryHandler(categoryService *service.CategoryService, v *validator.Validator) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		validator:       v,
	}
}

// Create adds a category
// POST /categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.ValidateCreateCategory(&req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	category, err := h.categoryService.Create(r.Context(), userID, &req)
	if err != nil {
		writeCategoryError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, category)
}

// ListAll returns every category
// GET /categories
func (h *CategoryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.ListAll(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list categories")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

// ListMine returns the authenticated user's categories
// GET /me/categories
func (h *CategoryHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	categories, err := h.categoryService.ListByAuthor(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list categories")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

// Update renames a category
// PUT /categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	categoryID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid category id")
		return
	}

	var req model.UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	category, err := h.categoryService.Update(r.Context(), categoryID, userID, &req)
	if err != nil {
		writeCategoryError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, category)
}

// Delete removes a category
// DELETE /categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	categoryID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid category id")
		return
	}

	if err := h.categoryService.Delete(r.Context(), categoryID, userID); err != nil {
		writeCategoryError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Category deleted",
	})
}

func writeCategoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrCategoryNotFound):
		httputil.WriteNotFound(w, "Category not found")
	case errors.Is(err, model.ErrNotCategoryOwner):
		httputil.WriteForbidden(w, "You are not the owner of this category")
	case errors.Is(err, model.ErrCategoryExists):
		httputil.WriteConflict(w, "Category with this name already exists")
	case errors.Is(err, model.ErrNameRequired):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, "Something went wrong")
	}
}
