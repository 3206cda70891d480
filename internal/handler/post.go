package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkpress/internal/httputil"
	"inkpress/internal/model"
	"inkpress/internal/service"
	"inkpress/internal/transport/http/middleware"
	"inkpress/internal/validator"
)

// PostHandler groups post-related HTTP endpoints.
type PostHandler struct {
	postService *service.PostService
	validator   *validator.Validator
}

func NewPostHandler(postService *service.PostService, v *validator.Validator) *PostHandler {
	return &PostHandler{postService: postService, validator: v}
}

// Create handles multipart post creation with an optional thumbnail
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if !parsePostForm(w, r) {
		return
	}

	categoryID, err := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "category_id must be an integer")
		return
	}

	req := model.CreatePostRequest{
		Title:      r.FormValue("title"),
		Body:       r.FormValue("body"),
		CategoryID: categoryID,
	}

	if err := h.validator.ValidateCreatePost(&req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	thumb, ok := readThumbnail(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Create(r.Context(), userID, &req, thumb)
	if err != nil {
		writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// Update applies a partial update to a post, optionally replacing the
// thumbnail. Form fields that are absent leave the post unchanged.
// PATCH /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id")
		return
	}

	if !parsePostForm(w, r) {
		return
	}

	var req model.UpdatePostRequest
	if vals := r.MultipartForm.Value["title"]; len(vals) > 0 {
		req.Title = &vals[0]
	}
	if vals := r.MultipartForm.Value["body"]; len(vals) > 0 {
		req.Body = &vals[0]
	}
	if vals := r.MultipartForm.Value["category_id"]; len(vals) > 0 {
		categoryID, err := strconv.ParseInt(vals[0], 10, 64)
		if err != nil {
			httputil.WriteBadRequest(w, "category_id must be an integer")
			return
		}
		req.CategoryID = &categoryID
	}

	thumb, ok := readThumbnail(w, r)
	if !ok {
		return
	}

	post, err := h.postService.Update(r.Context(), postID, userID, &req, thumb)
	if err != nil {
		writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Delete soft-deletes a post
// DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id")
		return
	}

	if err := h.postService.Delete(r.Context(), postID, userID); err != nil {
		writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted",
	})
}

// ToggleVisibility flips a post between public and private
// PUT /posts/{id}/visibility
func (h *PostHandler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id")
		return
	}

	post, err := h.postService.ToggleVisibility(r.Context(), postID, userID)
	if err != nil {
		writePostError(w, err)
		return
	}

	message := "Post is now private"
	if post.IsPublic {
		message = "Post is now public"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"post":    post,
		"message": message,
	})
}

// React toggles a like or dislike
// POST /posts/{id}/reaction
func (h *PostHandler) React(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id")
		return
	}

	var req model.ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	outcome, err := h.postService.ToggleReaction(r.Context(), postID, userID, req.Reaction)
	if err != nil {
		writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"reaction": req.Reaction,
		"outcome":  outcome,
	})
}

// GetBySlug returns a single post for display
// GET /posts/{slug}
func (h *PostHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		httputil.WriteBadRequest(w, "Invalid slug")
		return
	}

	var viewerID *int64
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		viewerID = &id
	}

	post, err := h.postService.GetBySlug(r.Context(), slug, viewerID)
	if err != nil {
		writePostError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// ListPublic returns a page of public posts
// GET /posts
func (h *PostHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	response, err := h.postService.ListPublic(r.Context(), page, pageSize)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

// ListMine returns the authenticated user's posts, including drafts
// GET /me/posts
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	posts, err := h.postService.ListByAuthor(r.Context(), userID)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to list posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
	})
}

// Search finds public posts matching a keyword
// GET /posts/search?q=
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")

	posts, err := h.postService.Search(r.Context(), keyword)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to search posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
	})
}

// writePostError maps post domain errors to HTTP responses.
func writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrCategoryNotFound):
		httputil.WriteNotFound(w, "Category not found")
	case errors.Is(err, model.ErrNotPostOwner):
		httputil.WriteForbidden(w, "You are not the owner of this post")
	case errors.Is(err, model.ErrNotCategoryOwner):
		httputil.WriteForbidden(w, "You are not the owner of this category")
	case errors.Is(err, model.ErrSlugExists):
		httputil.WriteConflict(w, "A post with this title already exists")
	case errors.Is(err, model.ErrTitleRequired),
		errors.Is(err, model.ErrBodyRequired),
		errors.Is(err, model.ErrTitleTooLong),
		errors.Is(err, model.ErrBodyTooLong),
		errors.Is(err, model.ErrInvalidReaction),
		errors.Is(err, model.ErrNoFieldsToSet):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrFileTooLarge), errors.Is(err, model.ErrInvalidImageType):
		writeMediaError(w, err)
	default:
		httputil.WriteInternalError(w, "Something went wrong")
	}
}

// writeMediaError maps upload errors to HTTP responses.
func writeMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Thumbnail exceeds 5MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	default:
		httputil.WriteInternalError(w, "Failed to upload thumbnail")
	}
}

// parseIDParam extracts a positive integer URL parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parsePostForm parses the multipart post form with a bounded body. Returns
// false after writing an error response.
func parsePostForm(w http.ResponseWriter, r *http.Request) bool {
	maxFormSize := int64(model.MaxThumbnailSizeBytes) + int64(model.MaxPostBodyLength) + 1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return false
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Upload exceeds size limit")
			return false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return false
	}
	return true
}

// readThumbnail extracts and validates the optional thumbnail file. Returns
// (nil, true) when no file was sent, (nil, false) after writing an error
// response.
func readThumbnail(w http.ResponseWriter, r *http.Request) (*service.ThumbnailUpload, bool) {
	file, header, err := r.FormFile("thumbnail")
	if err == http.ErrMissingFile {
		return nil, true
	}
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid thumbnail upload")
		return nil, false
	}
	defer file.Close()

	data, contentType, err := service.ReadAndValidateImage(file, header, model.MaxThumbnailSizeBytes)
	if err != nil {
		writeMediaError(w, err)
		return nil, false
	}
	return &service.ThumbnailUpload{Data: data, ContentType: contentType}, true
}
