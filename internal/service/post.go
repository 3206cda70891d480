package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"inkpress/internal/metrics"
	"inkpress/internal/model"
	"inkpress/internal/repository"
)

const (
	// DefaultPageSize is used when the client omits page_size.
	DefaultPageSize = 10

	// MaxPageSize caps page_size to keep list queries bounded.
	MaxPageSize = 50
)

// ThumbnailUpload carries a decoded thumbnail from the handler to the
// service.
type ThumbnailUpload struct {
	Data        []byte
	ContentType string
}

// Uploader abstracts thumbnail storage so the service can be tested
// without object storage.
type Uploader interface {
	UploadThumbnail(ctx context.Context, data []byte, contentType string) (*model.UploadResult, error)
	Delete(ctx context.Context, key string) error
}

// PostService handles business logic for posts: creation, updates,
// visibility, reactions, and listing.
type PostService struct {
	repo         repository.PostRepository
	categoryRepo repository.CategoryRepository
	uploader     Uploader
}

func NewPostService(repo repository.PostRepository, categoryRepo repository.CategoryRepository, uploader Uploader) *PostService {
	return &PostService{
		repo:         repo,
		categoryRepo: categoryRepo,
		uploader:     uploader,
	}
}

// Create validates and inserts a new post. New posts start public. If a
// thumbnail is supplied it is uploaded first; a failed insert afterwards
// deletes the uploaded object so storage doesn't accumulate orphans.
func (s *PostService) Create(ctx context.Context, authorID int64, req *model.CreatePostRequest, thumb *ThumbnailUpload) (*model.Post, error) {
	if err := validatePostContent(req.Title, req.Body); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	if category.AuthorID != authorID {
		return nil, model.ErrNotCategoryOwner
	}

	post := &model.Post{
		AuthorID:   authorID,
		CategoryID: req.CategoryID,
		Title:      strings.TrimSpace(req.Title),
		Body:       req.Body,
		Slug:       slug.Make(req.Title),
		IsPublic:   true,
	}

	var uploaded *model.UploadResult
	if thumb != nil {
		uploaded, err = s.uploader.UploadThumbnail(ctx, thumb.Data, thumb.ContentType)
		if err != nil {
			return nil, err
		}
		post.ThumbnailURL = &uploaded.URL
	}

	err = s.createWithUniqueSlug(ctx, post)
	if err != nil {
		if uploaded != nil {
			if delErr := s.uploader.Delete(ctx, uploaded.Key); delErr != nil {
				log.Printf("[PostService] Create: failed to delete orphaned thumbnail key=%s: %v", uploaded.Key, delErr)
			}
		}
		return nil, err
	}

	return post, nil
}

// createWithUniqueSlug inserts the post, retrying with a random suffix when
// the title-derived slug is already taken.
func (s *PostService) createWithUniqueSlug(ctx context.Context, post *model.Post) error {
	base := post.Slug
	for attempt := 0; attempt < 3; attempt++ {
		err := s.repo.Create(ctx, post)
		if err != model.ErrSlugExists {
			return err
		}
		post.Slug = base + "-" + uuid.New().String()[:8]
	}
	return model.ErrSlugExists
}

// Update applies a partial update. Only the author can update; the slug is
// regenerated when the title changes. A replacement thumbnail is uploaded
// before the row update and deleted again if the update fails, mirroring the
// compensation in Create.
func (s *PostService) Update(ctx context.Context, postID, userID int64, req *model.UpdatePostRequest, thumb *ThumbnailUpload) (*model.Post, error) {
	if req.Title == nil && req.Body == nil && req.CategoryID == nil && thumb == nil {
		return nil, model.ErrNoFieldsToSet
	}

	post, err := s.getOwned(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := *req.Title
		body := post.Body
		if req.Body != nil {
			body = *req.Body
		}
		if err := validatePostContent(title, body); err != nil {
			return nil, err
		}
		post.Title = strings.TrimSpace(title)
		post.Slug = slug.Make(title)
	}
	if req.Body != nil {
		if err := validatePostContent(post.Title, *req.Body); err != nil {
			return nil, err
		}
		post.Body = *req.Body
	}
	if req.CategoryID != nil {
		category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		if category.AuthorID != userID {
			return nil, model.ErrNotCategoryOwner
		}
		post.CategoryID = *req.CategoryID
	}

	var uploaded *model.UploadResult
	if thumb != nil {
		uploaded, err = s.uploader.UploadThumbnail(ctx, thumb.Data, thumb.ContentType)
		if err != nil {
			return nil, err
		}
		post.ThumbnailURL = &uploaded.URL
	}

	if err := s.updateWithSlugRetry(ctx, post); err != nil {
		if uploaded != nil {
			if delErr := s.uploader.Delete(ctx, uploaded.Key); delErr != nil {
				log.Printf("[PostService] Update: failed to delete orphaned thumbnail key=%s: %v", uploaded.Key, delErr)
			}
		}
		return nil, err
	}
	return post, nil
}

// updateWithSlugRetry persists the post, retrying once with a random suffix
// when the regenerated slug collides.
func (s *PostService) updateWithSlugRetry(ctx context.Context, post *model.Post) error {
	err := s.repo.Update(ctx, post)
	if err == model.ErrSlugExists {
		post.Slug = post.Slug + "-" + uuid.New().String()[:8]
		return s.repo.Update(ctx, post)
	}
	return err
}

// Delete soft-deletes a post. The row stays for audit; all read paths
// filter it out.
func (s *PostService) Delete(ctx context.Context, postID, userID int64) error {
	if _, err := s.getOwned(ctx, postID, userID); err != nil {
		return err
	}
	return s.repo.SetDeleted(ctx, postID)
}

// ToggleVisibility flips a post between public and private.
func (s *PostService) ToggleVisibility(ctx context.Context, postID, userID int64) (*model.Post, error) {
	post, err := s.getOwned(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPublic(ctx, postID, !post.IsPublic); err != nil {
		return nil, err
	}
	post.IsPublic = !post.IsPublic
	return post, nil
}

// ToggleReaction records a like or dislike for the user. Repeating the same
// reaction removes it; the opposite reaction replaces it. Returns the
// outcome: "added", "removed" or "switched".
func (s *PostService) ToggleReaction(ctx context.Context, postID, userID int64, reaction string) (string, error) {
	if reaction != model.ReactionLike && reaction != model.ReactionDislike {
		return "", model.ErrInvalidReaction
	}

	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	// Private posts can only be reacted to by their author.
	if !post.IsPublic && post.AuthorID != userID {
		return "", model.ErrPostNotFound
	}

	outcome, err := s.repo.ToggleReaction(ctx, postID, userID, reaction)
	if err != nil {
		return "", err
	}

	metrics.ObserveReaction(reaction, outcome)
	return outcome, nil
}

// GetBySlug retrieves a post for display. Private posts are only visible to
// their author; everyone else sees not-found rather than forbidden so the
// post's existence isn't leaked. An authenticated viewer also gets their own
// reaction so clients can render the toggle state.
func (s *PostService) GetBySlug(ctx context.Context, postSlug string, viewerID *int64) (*model.Post, error) {
	post, err := s.repo.GetBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if !post.IsPublic && (viewerID == nil || *viewerID != post.AuthorID) {
		return nil, model.ErrPostNotFound
	}

	if viewerID != nil {
		reaction, err := s.repo.GetReaction(ctx, post.ID, *viewerID)
		if err != nil {
			return nil, err
		}
		post.ViewerReaction = reaction
	}
	return post, nil
}

// ListPublic returns a page of public posts, newest first.
func (s *PostService) ListPublic(ctx context.Context, page, pageSize int) (*model.PostListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	posts, total, err := s.repo.ListPublic(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &model.PostListResponse{
		Posts: posts,
		Pagination: model.Pagination{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}, nil
}

// ListByAuthor returns the author's own posts, including private ones.
func (s *PostService) ListByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	return s.repo.ListByAuthor(ctx, authorID)
}

// Search finds public posts whose title, body or slug contains the keyword.
func (s *PostService) Search(ctx context.Context, keyword string) ([]model.Post, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []model.Post{}, nil
	}
	return s.repo.Search(ctx, keyword)
}

func (s *PostService) getOwned(ctx context.Context, postID, userID int64) (*model.Post, error) {
	post, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, model.ErrNotPostOwner
	}
	return post, nil
}

func validatePostContent(title, body string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.ErrTitleRequired
	}
	if len(title) > model.MaxPostTitleLength {
		return model.ErrTitleTooLong
	}
	if strings.TrimSpace(body) == "" {
		return model.ErrBodyRequired
	}
	if len(body) > model.MaxPostBodyLength {
		return model.ErrBodyTooLong
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
