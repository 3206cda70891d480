package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"inkpress/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post.
func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		INSERT INTO posts (author_id, category_id, title, body, slug, thumbnail_url, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, like_count, dislike_count, is_public, is_deleted, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.AuthorID,
		p.CategoryID,
		p.Title,
		p.Body,
		p.Slug,
		p.ThumbnailURL,
		p.IsPublic,
	).Scan(&p.ID, &p.LikeCount, &p.DislikeCount, &p.IsPublic, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlugExists
		}
		if isForeignKeyViolation(err) {
			return model.ErrCategoryNotFound
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

const postColumns = `id, author_id, category_id, title, body, slug, thumbnail_url,
	       like_count, dislike_count, is_public, is_deleted, created_at, updated_at`

func (r *postRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND is_deleted = FALSE`

	var p model.Post
	err := r.db.GetContext(ctx, &p, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	query := `
		SELECT p.id, p.author_id, p.category_id, p.title, p.body, p.slug, p.thumbnail_url,
		       p.like_count, p.dislike_count, p.is_public, p.is_deleted, p.created_at, p.updated_at,
		       u.id AS "author.id", u.full_name AS "author.full_name", u.email AS "author.email",
		       c.id AS "category.id", c.author_id AS "category.author_id", c.name AS "category.name",
		       c.slug AS "category.slug", c.created_at AS "category.created_at", c.updated_at AS "category.updated_at"
		FROM posts p
		JOIN users u ON u.id = p.author_id
		JOIN categories c ON c.id = p.category_id
		WHERE p.slug = $1 AND p.is_deleted = FALSE
	`
	var row postRow
	err := r.db.GetContext(ctx, &row, query, slug)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post by slug: %w", err)
	}
	p := row.toPost()
	return &p, nil
}

// Update replaces the mutable fields of a post.
func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE posts
		SET category_id = $1, title = $2, body = $3, slug = $4, thumbnail_url = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		p.CategoryID, p.Title, p.Body, p.Slug, p.ThumbnailURL, p.ID,
	).Scan(&p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.ErrPostNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrSlugExists
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// SetDeleted soft-deletes a post. The row stays in storage.
func (r *postRepository) SetDeleted(ctx context.Context, postID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	return nil
}

func (r *postRepository) SetPublic(ctx context.Context, postID int64, public bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET is_public = $1, updated_at = NOW() WHERE id = $2`, public, postID)
	if err != nil {
		return fmt.Errorf("set post visibility: %w", err)
	}
	return nil
}

// ListPublic returns public, non-deleted posts newest-first with the total count.
func (r *postRepository) ListPublic(ctx context.Context, page, pageSize int) ([]model.Post, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM posts WHERE is_public = TRUE AND is_deleted = FALSE`)
	if err != nil {
		return nil, 0, fmt.Errorf("count public posts: %w", err)
	}

	query := listQuery(`WHERE p.is_public = TRUE AND p.is_deleted = FALSE
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2`)

	var rows []postRow
	offset := (page - 1) * pageSize
	if err := r.db.SelectContext(ctx, &rows, query, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("list public posts: %w", err)
	}

	return toPosts(rows), total, nil
}

// ListByAuthor returns the author's own non-deleted posts, public or not.
func (r *postRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	query := listQuery(`WHERE p.author_id = $1 AND p.is_deleted = FALSE
		ORDER BY p.created_at DESC, p.id DESC`)

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, authorID); err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return toPosts(rows), nil
}

// Search matches the keyword case-insensitively against title, body and slug
// of public, non-deleted posts.
func (r *postRepository) Search(ctx context.Context, keyword string) ([]model.Post, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(keyword)) + "%"
	query := listQuery(`WHERE p.is_public = TRUE AND p.is_deleted = FALSE
		  AND (p.title ILIKE $1 OR p.body ILIKE $1 OR p.slug ILIKE $1)
		ORDER BY p.created_at DESC, p.id DESC`)

	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, pattern); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return toPosts(rows), nil
}

func (r *postRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1 AND is_deleted = FALSE)`, postID)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// ToggleReaction applies a per-user like/dislike toggle in one transaction.
// The (post_id, user_id) row is locked so concurrent toggles by the same user
// serialize; toggles by different users touch different rows.
func (r *postRepository) ToggleReaction(ctx context.Context, postID, userID int64, reaction string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.GetContext(ctx, &current,
		`SELECT reaction FROM post_reactions WHERE post_id = $1 AND user_id = $2 FOR UPDATE`,
		postID, userID)

	var result string
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO post_reactions (post_id, user_id, reaction, created_at) VALUES ($1, $2, $3, NOW())`,
			postID, userID, reaction)
		if err != nil {
			if isForeignKeyViolation(err) {
				return "", model.ErrPostNotFound
			}
			return "", fmt.Errorf("insert reaction: %w", err)
		}
		if err = r.bumpCounter(ctx, tx, postID, reaction, 1); err != nil {
			return "", err
		}
		result = "added"

	case err != nil:
		return "", fmt.Errorf("get reaction: %w", err)

	case current == reaction:
		_, err = tx.ExecContext(ctx,
			`DELETE FROM post_reactions WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return "", fmt.Errorf("delete reaction: %w", err)
		}
		if err = r.bumpCounter(ctx, tx, postID, reaction, -1); err != nil {
			return "", err
		}
		result = "removed"

	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE post_reactions SET reaction = $1, created_at = NOW() WHERE post_id = $2 AND user_id = $3`,
			reaction, postID, userID)
		if err != nil {
			return "", fmt.Errorf("switch reaction: %w", err)
		}
		if err = r.bumpCounter(ctx, tx, postID, current, -1); err != nil {
			return "", err
		}
		if err = r.bumpCounter(ctx, tx, postID, reaction, 1); err != nil {
			return "", err
		}
		result = "switched"
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

func (r *postRepository) GetReaction(ctx context.Context, postID, userID int64) (*string, error) {
	var reaction string
	err := r.db.GetContext(ctx, &reaction,
		`SELECT reaction FROM post_reactions WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	return &reaction, nil
}

func (r *postRepository) bumpCounter(ctx context.Context, tx *sqlx.Tx, postID int64, reaction string, delta int) error {
	column := "like_count"
	if reaction == model.ReactionDislike {
		column = "dislike_count"
	}
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE posts SET %s = %s + $1 WHERE id = $2`, column, column), delta, postID)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return nil
}

// postRow scans a post joined with its author and category.
type postRow struct {
	ID           int64     `db:"id"`
	AuthorID     int64     `db:"author_id"`
	CategoryID   int64     `db:"category_id"`
	Title        string    `db:"title"`
	Body         string    `db:"body"`
	Slug         string    `db:"slug"`
	ThumbnailURL *string   `db:"thumbnail_url"`
	LikeCount    int       `db:"like_count"`
	DislikeCount int       `db:"dislike_count"`
	IsPublic     bool      `db:"is_public"`
	IsDeleted    bool      `db:"is_deleted"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`

	AuthorUserID   int64     `db:"author.id"`
	AuthorFullName string    `db:"author.full_name"`
	AuthorEmail    string    `db:"author.email"`
	CatID          int64     `db:"category.id"`
	CatAuthorID    int64     `db:"category.author_id"`
	CatName        string    `db:"category.name"`
	CatSlug        string    `db:"category.slug"`
	CatCreatedAt   time.Time `db:"category.created_at"`
	CatUpdatedAt   time.Time `db:"category.updated_at"`
}

func (row postRow) toPost() model.Post {
	return model.Post{
		ID:           row.ID,
		AuthorID:     row.AuthorID,
		CategoryID:   row.CategoryID,
		Title:        row.Title,
		Body:         row.Body,
		Slug:         row.Slug,
		ThumbnailURL: row.ThumbnailURL,
		LikeCount:    row.LikeCount,
		DislikeCount: row.DislikeCount,
		IsPublic:     row.IsPublic,
		IsDeleted:    row.IsDeleted,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		Author: &model.UserSummary{
			ID:       row.AuthorUserID,
			FullName: row.AuthorFullName,
			Email:    row.AuthorEmail,
		},
		Category: &model.Category{
			ID:        row.CatID,
			AuthorID:  row.CatAuthorID,
			Name:      row.CatName,
			Slug:      row.CatSlug,
			CreatedAt: row.CatCreatedAt,
			UpdatedAt: row.CatUpdatedAt,
		},
	}
}

func toPosts(rows []postRow) []model.Post {
	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toPost()
	}
	return posts
}

func listQuery(tail string) string {
	return `
		SELECT p.id, p.author_id, p.category_id, p.title, p.body, p.slug, p.thumbnail_url,
		       p.like_count, p.dislike_count, p.is_public, p.is_deleted, p.created_at, p.updated_at,
		       u.id AS "author.id", u.full_name AS "author.full_name", u.email AS "author.email",
		       c.id AS "category.id", c.author_id AS "category.author_id", c.name AS "category.name",
		       c.slug AS "category.slug", c.created_at AS "category.created_at", c.updated_at AS "category.updated_at"
		FROM posts p
		JOIN users u ON u.id = p.author_id
		JOIN categories c ON c.id = p.category_id
		` + tail
}

// escapeLike escapes LIKE metacharacters in user-supplied search input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
