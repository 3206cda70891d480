package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"inkpress/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment row. Parent linkage is a single immutable column,
// so the insert either records a valid parent or fails on the foreign key;
// there is no separate child-list append that could race or be retried into a
// duplicate.
func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `
		INSERT INTO comments (post_id, author_id, body, parent_comment_id, depth, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, is_deleted, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		c.PostID,
		c.AuthorID,
		c.Body,
		c.ParentCommentID,
		c.Depth,
	).Scan(&c.ID, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			// Either the post or the parent comment vanished between the
			// service's check and the insert.
			if c.ParentCommentID != nil {
				return model.ErrCommentNotFound
			}
			return model.ErrPostNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a single comment.
func (r *commentRepository) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	query := `
		SELECT id, post_id, author_id, body, parent_comment_id, depth, is_deleted, created_at, updated_at
		FROM comments
		WHERE id = $1
	`
	var c model.Comment
	err := r.db.GetContext(ctx, &c, query, commentID)
	if err == sql.ErrNoRows {
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

// Update replaces a comment's body. Only the author can update.
func (r *commentRepository) Update(ctx context.Context, commentID, authorID int64, body string) (*model.Comment, error) {
	query := `
		UPDATE comments
		SET body = $1, updated_at = NOW()
		WHERE id = $2 AND author_id = $3
		RETURNING id, post_id, author_id, body, parent_comment_id, depth, is_deleted, created_at, updated_at
	`
	var c model.Comment
	err := r.db.GetContext(ctx, &c, query, body, commentID, authorID)
	if err == sql.ErrNoRows {
		// Distinguish a missing comment from someone else's comment
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID); err != nil {
			return nil, fmt.Errorf("check comment exists: %w", err)
		}
		if exists {
			return nil, model.ErrNotCommentAuthor
		}
		return nil, model.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return &c, nil
}

// GetByPostID returns every comment of a post with author info, oldest first.
// Creation order doubles as reply insertion order, so children appear after
// their parent and the service can assemble the thread in one pass.
func (r *commentRepository) GetByPostID(ctx context.Context, postID int64) ([]model.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, c.body, c.parent_comment_id, c.depth,
		       c.is_deleted, c.created_at, c.updated_at,
		       u.id AS "author.id", u.full_name AS "author.full_name", u.email AS "author.email"
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`

	type commentRow struct {
		ID              int64     `db:"id"`
		PostID          int64     `db:"post_id"`
		AuthorID        int64     `db:"author_id"`
		Body            string    `db:"body"`
		ParentCommentID *int64    `db:"parent_comment_id"`
		Depth           int       `db:"depth"`
		IsDeleted       bool      `db:"is_deleted"`
		CreatedAt       time.Time `db:"created_at"`
		UpdatedAt       time.Time `db:"updated_at"`
		AuthorUserID    int64     `db:"author.id"`
		AuthorFullName  string    `db:"author.full_name"`
		AuthorEmail     string    `db:"author.email"`
	}

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = model.Comment{
			ID:              row.ID,
			PostID:          row.PostID,
			AuthorID:        row.AuthorID,
			Body:            row.Body,
			ParentCommentID: row.ParentCommentID,
			Depth:           row.Depth,
			IsDeleted:       row.IsDeleted,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
			Author: &model.UserSummary{
				ID:       row.AuthorUserID,
				FullName: row.AuthorFullName,
				Email:    row.AuthorEmail,
			},
		}
	}
	return comments, nil
}
