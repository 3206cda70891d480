package repository

import (
	"context"
	"time"

	"inkpress/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	LinkGoogleID(ctx context.Context, userID int64, googleID string) error
	MarkVerified(ctx context.Context, userID int64) error
	UpdatePassword(ctx context.Context, userID int64, passwordHashed string) error
	// SetRefreshToken overwrites the single stored refresh token hash for the
	// user; a nil hash clears it. Overwriting implicitly invalidates the prior
	// token.
	SetRefreshToken(ctx context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error
	GetByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	ListAll(ctx context.Context) ([]model.Category, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id int64) error
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	SetDeleted(ctx context.Context, postID int64) error
	SetPublic(ctx context.Context, postID int64, public bool) error
	ListPublic(ctx context.Context, page, pageSize int) ([]model.Post, int, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]model.Post, error)
	Search(ctx context.Context, keyword string) ([]model.Post, error)
	// Exists reports whether a post exists and is not soft-deleted.
	Exists(ctx context.Context, postID int64) (bool, error)
	// ToggleReaction applies a like/dislike toggle for one user in a single
	// transaction and returns the resulting state: "added", "removed" or
	// "switched".
	ToggleReaction(ctx context.Context, postID, userID int64, reaction string) (string, error)
	GetReaction(ctx context.Context, postID, userID int64) (*string, error)
}

type CommentRepository interface {
	// Create inserts the comment row. For replies the caller fills PostID and
	// Depth from the parent; the parent_comment_id foreign key makes
	// parent-existence atomic with the insert.
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, commentID int64) (*model.Comment, error)
	// Update replaces the body. Only the author may update.
	Update(ctx context.Context, commentID, authorID int64, body string) (*model.Comment, error)
	// GetByPostID returns every comment of a post with author info, ordered by
	// creation. Thread assembly happens in the service.
	GetByPostID(ctx context.Context, postID int64) ([]model.Comment, error)
}
