package model

import (
	"errors"
	"time"
)

// Reaction values for post reactions.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Post represents a blog post with its metadata.
type Post struct {
	ID           int64     `db:"id" json:"id"`
	AuthorID     int64     `db:"author_id" json:"author_id"`
	CategoryID   int64     `db:"category_id" json:"category_id"`
	Title        string    `db:"title" json:"title"`
	Body         string    `db:"body" json:"body"`
	Slug         string    `db:"slug" json:"slug"`
	ThumbnailURL *string   `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	LikeCount    int       `db:"like_count" json:"like_count"`
	DislikeCount int       `db:"dislike_count" json:"dislike_count"`
	IsPublic     bool      `db:"is_public" json:"is_public"`
	IsDeleted    bool      `db:"is_deleted" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields (not in posts table)
	Author   *UserSummary `json:"author,omitempty"`
	Category *Category    `json:"category,omitempty"`

	// ViewerReaction is the requesting user's own reaction, if any.
	ViewerReaction *string `db:"-" json:"viewer_reaction,omitempty"`
}

// CreatePostRequest carries the fields of the post creation form.
// The thumbnail file itself is handled separately by the handler.
type CreatePostRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	CategoryID int64  `json:"category_id"`
}

// UpdatePostRequest carries the partial fields of a post update.
// Nil fields are left unchanged.
type UpdatePostRequest struct {
	Title      *string `json:"title"`
	Body       *string `json:"body"`
	CategoryID *int64  `json:"category_id"`
}

// ReactionRequest is the request body for POST /posts/{id}/reaction.
type ReactionRequest struct {
	Reaction string `json:"reaction"` // "like" or "dislike"
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// PostListResponse is the paginated post list response.
type PostListResponse struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// Post constraints
const (
	MaxPostTitleLength = 200
	MaxPostBodyLength  = 100000
)

// Post errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("not the owner of this post")
	ErrSlugExists      = errors.New("a post with this slug already exists")
	ErrTitleRequired   = errors.New("post title is required")
	ErrBodyRequired    = errors.New("post body is required")
	ErrTitleTooLong    = errors.New("post title too long")
	ErrBodyTooLong     = errors.New("post body too long")
	ErrInvalidReaction = errors.New("reaction must be like or dislike")
	ErrNoFieldsToSet   = errors.New("at least one field must be provided")
)
