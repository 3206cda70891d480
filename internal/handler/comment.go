package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"inkpress/internal/httputil"
	"inkpress/internal/model"
	"inkpress/internal/service"
	"inkpress/internal/transport/http/middleware"
	"inkpress/internal/validator"
)

// CommentHandler groups comment HTTP endpoints.
type CommentHandler struct {
	commentService *service.CommentService
	validator      *validator.Validator
}

func NewCommentHandler(commentService *service.CommentService, v *validator.Validator) *CommentHandler {
	return &CommentHandler{commentService: commentService, validator: v}
}

// Create adds a root comment to a post
// POST /posts/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.ValidateComment(req.Body); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.commentService.Create(r.Context(), postID, userID, &req)
	if err != nil {
		writeCommentError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Reply adds a nested reply under an existing comment
// POST /posts/{id}/comments/{commentID}/replies
func (h *CommentHandler) Reply(w http.ResponseWriter, r *http.Request) {
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

	parentID, err := parseIDParam(r, "commentID")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment id")
		return
	}

	var req model.ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.ValidateComment(req.Body); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.commentService.Reply(r.Context(), postID, parentID, userID, &req)
	if err != nil {
		writeCommentError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Update edits a comment's body
// PUT /comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	commentID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment id")
		return
	}

	var req model.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.ValidateComment(req.Body); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.commentService.Update(r.Context(), commentID, userID, &req)
	if err != nil {
		writeCommentError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// GetThread returns the paginated comment thread of a post
// GET /posts/{id}/comments
func (h *CommentHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid post id")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	thread, err := h.commentService.GetThread(r.Context(), postID, page, pageSize)
	if err != nil {
		writeCommentError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, thread)
}

func writeCommentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrCommentNotFound):
		httputil.WriteNotFound(w, "Comment not found")
	case errors.Is(err, model.ErrNotCommentAuthor):
		httputil.WriteForbidden(w, "You are not the author of this comment")
	case errors.Is(err, model.ErrParentWrongPost):
		httputil.WriteBadRequest(w, "Parent comment belongs to a different post")
	case errors.Is(err, model.ErrCommentRequired),
		errors.Is(err, model.ErrCommentTooLong),
		errors.Is(err, model.ErrCommentTooDeep):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, "Something went wrong")
	}
}
