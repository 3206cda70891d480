package model

import (
	"errors"
	"time"
)

// Comment represents a comment on a post. A nil ParentCommentID marks a root
// comment attached directly to the post; replies carry the id of their parent.
// PostID, AuthorID and ParentCommentID are immutable after creation, which
// keeps the parent graph acyclic: a parent must already exist when its reply
// is inserted, and ids are never reused.
type Comment struct {
	ID              int64     `db:"id" json:"id"`
	PostID          int64     `db:"post_id" json:"post_id"`
	AuthorID        int64     `db:"author_id" json:"author_id"`
	Body            string    `db:"body" json:"body"`
	ParentCommentID *int64    `db:"parent_comment_id" json:"parent_comment_id,omitempty"`
	Depth           int       `db:"depth" json:"depth"`
	IsDeleted       bool      `db:"is_deleted" json:"-"` // present in the model, never set by any operation
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	// Joined field
	Author *UserSummary `json:"author,omitempty"`
}

// CommentNode is a comment with its direct replies resolved, in insertion order.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}

// CreateCommentRequest is the request body for creating a root comment.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// ReplyRequest is the request body for replying to an existing comment.
type ReplyRequest struct {
	Body string `json:"body"`
}

// UpdateCommentRequest is the request body for editing a comment.
type UpdateCommentRequest struct {
	Body string `json:"body"`
}

// CommentThreadResponse is the paginated thread response: a page of root
// comments, each expanded with its full reply subtree.
type CommentThreadResponse struct {
	Comments   []*CommentNode `json:"comments"`
	Pagination Pagination     `json:"pagination"`
}

// Comment constraints
const (
	MaxCommentLength = 2200

	// MaxCommentDepth bounds reply nesting so adversarial chains cannot
	// exhaust traversal resources. Root comments have depth 0.
	MaxCommentDepth = 32
)

// Comment errors
var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentAuthor = errors.New("not the author of this comment")
	ErrCommentRequired  = errors.New("comment body is required")
	ErrCommentTooLong   = errors.New("comment body too long")
	ErrCommentTooDeep   = errors.New("maximum reply depth exceeded")
	ErrParentWrongPost  = errors.New("parent comment belongs to a different post")
)
