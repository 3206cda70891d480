package service

import (
	"context"
	"errors"
	"testing"

	"inkpress/internal/model"
)

type mockPostRepository struct {
	createFn         func(ctx context.Context, post *model.Post) error
	getByIDFn        func(ctx context.Context, id int64) (*model.Post, error)
	getBySlugFn      func(ctx context.Context, slug string) (*model.Post, error)
	updateFn         func(ctx context.Context, post *model.Post) error
	setDeletedFn     func(ctx context.Context, postID int64) error
	setPublicFn      func(ctx context.Context, postID int64, public bool) error
	listPublicFn     func(ctx context.Context, page, pageSize int) ([]model.Post, int, error)
	listByAuthorFn   func(ctx context.Context, authorID int64) ([]model.Post, error)
	searchFn         func(ctx context.Context, keyword string) ([]model.Post, error)
	existsFn         func(ctx context.Context, postID int64) (bool, error)
	toggleReactionFn func(ctx context.Context, postID, userID int64, reaction string) (string, error)
	getReactionFn    func(ctx context.Context, postID, userID int64) (*string, error)

	createCalls     []*model.Post
	setDeletedCalls []int64
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	m.createCalls = append(m.createCalls, post)
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	post.ID = int64(len(m.createCalls))
	return nil
}

func (m *mockPostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, model.ErrPostNotFound
}

func (m *mockPostRepository) Update(ctx context.Context, post *model.Post) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) SetDeleted(ctx context.Context, postID int64) error {
	m.setDeletedCalls = append(m.setDeletedCalls, postID)
	if m.setDeletedFn != nil {
		return m.setDeletedFn(ctx, postID)
	}
	return nil
}

func (m *mockPostRepository) SetPublic(ctx context.Context, postID int64, public bool) error {
	if m.setPublicFn != nil {
		return m.setPublicFn(ctx, postID, public)
	}
	return nil
}

func (m *mockPostRepository) ListPublic(ctx context.Context, page, pageSize int) ([]model.Post, int, error) {
	if m.listPublicFn != nil {
		return m.listPublicFn(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func (m *mockPostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, authorID)
	}
	return nil, nil
}

func (m *mockPostRepository) Search(ctx context.Context, keyword string) ([]model.Post, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, keyword)
	}
	return nil, nil
}

func (m *mockPostRepository) Exists(ctx context.Context, postID int64) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, postID)
	}
	return false, nil
}

func (m *mockPostRepository) ToggleReaction(ctx context.Context, postID, userID int64, reaction string) (string, error) {
	if m.toggleReactionFn != nil {
		return m.toggleReactionFn(ctx, postID, userID, reaction)
	}
	return "added", nil
}

func (m *mockPostRepository) GetReaction(ctx context.Context, postID, userID int64) (*string, error) {
	if m.getReactionFn != nil {
		return m.getReactionFn(ctx, postID, userID)
	}
	return nil, nil
}

type mockCategoryRepository struct {
	createFn       func(ctx context.Context, category *model.Category) error
	getByIDFn      func(ctx context.Context, id int64) (*model.Category, error)
	listAllFn      func(ctx context.Context) ([]model.Category, error)
	listByAuthorFn func(ctx context.Context, authorID int64) ([]model.Category, error)
	updateFn       func(ctx context.Context, category *model.Category) error
	deleteFn       func(ctx context.Context, id int64) error
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if m.createFn != nil {
		return m.createFn(ctx, category)
	}
	category.ID = 1
	return nil
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrCategoryNotFound
}

func (m *mockCategoryRepository) ListAll(ctx context.Context) ([]model.Category, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockCategoryRepository) ListByAuthor(ctx context.Context, authorID int64) ([]model.Category, error) {
	if m.listByAuthorFn != nil {
		return m.listByAuthorFn(ctx, authorID)
	}
	return nil, nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *model.Category) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockUploader struct {
	uploadFn    func(ctx context.Context, data []byte, contentType string) (*model.UploadResult, error)
	deleteCalls []string
}

func (m *mockUploader) UploadThumbnail(ctx context.Context, data []byte, contentType string) (*model.UploadResult, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, data, contentType)
	}
	return &model.UploadResult{URL: "https://cdn.example.com/thumbnails/x.jpg", Key: "thumbnails/x.jpg"}, nil
}

func (m *mockUploader) Delete(ctx context.Context, key string) error {
	m.deleteCalls = append(m.deleteCalls, key)
	return nil
}

func ownCategory(authorID int64) *mockCategoryRepository {
	return &mockCategoryRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Category, error) {
			return &model.Category{ID: id, AuthorID: authorID, Name: "Tech", Slug: "tech"}, nil
		},
	}
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestPostService_Create_Success(t *testing.T) {
	mockRepo := &mockPostRepository{}
	svc := NewPostService(mockRepo, ownCategory(1), &mockUploader{})

	post, err := svc.Create(context.Background(), 1, &model.CreatePostRequest{
		Title:      "Hello World",
		Body:       "First post.",
		CategoryID: 3,
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if post.Slug != "hello-world" {
		t.Errorf("slug = %q, want %q", post.Slug, "hello-world")
	}
	if !post.IsPublic {
		t.Error("new posts must start public")
	}
}

func TestPostService_Create_SlugCollisionRetries(t *testing.T) {
	attempts := 0
	mockRepo := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error {
			attempts++
			if attempts == 1 {
				return model.ErrSlugExists
			}
			post.ID = 1
			return nil
		},
	}
	svc := NewPostService(mockRepo, ownCategory(1), &mockUploader{})

	post, err := svc.Create(context.Background(), 1, &model.CreatePostRequest{
		Title:      "Hello World",
		Body:       "Body.",
		CategoryID: 3,
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if post.Slug == "hello-world" {
		t.Error("expected a suffixed slug after collision")
	}
	if attempts != 2 {
		t.Errorf("create attempts = %d, want 2", attempts)
	}
}

func TestPostService_Create_OtherUsersCategory(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, ownCategory(99), &mockUploader{})

	_, err := svc.Create(context.Background(), 1, &model.CreatePostRequest{
		Title:      "Hello",
		Body:       "Body.",
		CategoryID: 3,
	}, nil)
	if !errors.Is(err, model.ErrNotCategoryOwner) {
		t.Fatalf("expected ErrNotCategoryOwner, got: %v", err)
	}
}

func TestPostService_Create_InsertFailureDeletesThumbnail(t *testing.T) {
	mockRepo := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error {
			return errors.New("db down")
		},
	}
	uploader := &mockUploader{}
	svc := NewPostService(mockRepo, ownCategory(1), uploader)

	_, err := svc.Create(context.Background(), 1, &model.CreatePostRequest{
		Title:      "Hello",
		Body:       "Body.",
		CategoryID: 3,
	}, &ThumbnailUpload{Data: []byte{0xFF}, ContentType: model.ContentTypeJPEG})

	if err == nil {
		t.Fatal("expected error from failed insert")
	}
	if len(uploader.deleteCalls) != 1 || uploader.deleteCalls[0] != "thumbnails/x.jpg" {
		t.Errorf("delete calls = %v, want the orphaned key", uploader.deleteCalls)
	}
}

func TestPostService_Create_Validation(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, ownCategory(1), &mockUploader{})

	tests := []struct {
		name    string
		req     model.CreatePostRequest
		wantErr error
	}{
		{"empty title", model.CreatePostRequest{Title: "  ", Body: "b", CategoryID: 1}, model.ErrTitleRequired},
		{"empty body", model.CreatePostRequest{Title: "t", Body: "", CategoryID: 1}, model.ErrBodyRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, &tt.req, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// OWNERSHIP TESTS
// =============================================================================

func TestPostService_Delete_NotOwner(t *testing.T) {
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 99}, nil
		},
	}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, &mockUploader{})

	err := svc.Delete(context.Background(), 5, 1)
	if !errors.Is(err, model.ErrNotPostOwner) {
		t.Fatalf("expected ErrNotPostOwner, got: %v", err)
	}
	if len(mockRepo.setDeletedCalls) != 0 {
		t.Error("SetDeleted must not run for a non-owner")
	}
}

func TestPostService_Update_NoFields(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, &mockCategoryRepository{}, &mockUploader{})

	_, err := svc.Update(context.Background(), 5, 1, &model.UpdatePostRequest{}, nil)
	if !errors.Is(err, model.ErrNoFieldsToSet) {
		t.Fatalf("expected ErrNoFieldsToSet, got: %v", err)
	}
}

func TestPostService_Update_ReplacesThumbnail(t *testing.T) {
	old := "https://cdn.example.com/thumbnails/old.jpg"
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 1, Title: "Hello", Slug: "hello", ThumbnailURL: &old}, nil
		},
	}
	uploader := &mockUploader{}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, uploader)

	post, err := svc.Update(context.Background(), 5, 1, &model.UpdatePostRequest{},
		&ThumbnailUpload{Data: []byte{0xFF}, ContentType: model.ContentTypeJPEG})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if post.ThumbnailURL == nil || *post.ThumbnailURL != "https://cdn.example.com/thumbnails/x.jpg" {
		t.Errorf("thumbnail url = %v, want the newly uploaded URL", post.ThumbnailURL)
	}
	if len(uploader.deleteCalls) != 0 {
		t.Errorf("delete calls = %v, want none on success", uploader.deleteCalls)
	}
}

func TestPostService_Update_FailureDeletesThumbnail(t *testing.T) {
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 1, Title: "Hello", Slug: "hello"}, nil
		},
		updateFn: func(ctx context.Context, post *model.Post) error {
			return errors.New("db down")
		},
	}
	uploader := &mockUploader{}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, uploader)

	_, err := svc.Update(context.Background(), 5, 1, &model.UpdatePostRequest{},
		&ThumbnailUpload{Data: []byte{0xFF}, ContentType: model.ContentTypeJPEG})
	if err == nil {
		t.Fatal("expected error from failed update")
	}
	if len(uploader.deleteCalls) != 1 || uploader.deleteCalls[0] != "thumbnails/x.jpg" {
		t.Errorf("delete calls = %v, want the orphaned key", uploader.deleteCalls)
	}
}

// =============================================================================
// REACTION TESTS
// =============================================================================

func TestPostService_ToggleReaction_Outcomes(t *testing.T) {
	// Simulate the repository's toggle state machine for one user
	var current *string
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 99, IsPublic: true}, nil
		},
		toggleReactionFn: func(ctx context.Context, postID, userID int64, reaction string) (string, error) {
			switch {
			case current == nil:
				current = &reaction
				return "added", nil
			case *current == reaction:
				current = nil
				return "removed", nil
			default:
				current = &reaction
				return "switched", nil
			}
		},
	}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, &mockUploader{})
	ctx := context.Background()

	steps := []struct {
		reaction string
		want     string
	}{
		{model.ReactionLike, "added"},
		{model.ReactionLike, "removed"}, // same reaction twice toggles off
		{model.ReactionLike, "added"},
		{model.ReactionDislike, "switched"}, // opposite reaction replaces
		{model.ReactionDislike, "removed"},
	}

	for i, step := range steps {
		outcome, err := svc.ToggleReaction(ctx, 1, 7, step.reaction)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if outcome != step.want {
			t.Errorf("step %d: outcome = %q, want %q", i, outcome, step.want)
		}
	}
}

func TestPostService_ToggleReaction_InvalidReaction(t *testing.T) {
	svc := NewPostService(&mockPostRepository{}, &mockCategoryRepository{}, &mockUploader{})

	_, err := svc.ToggleReaction(context.Background(), 1, 7, "love")
	if !errors.Is(err, model.ErrInvalidReaction) {
		t.Fatalf("expected ErrInvalidReaction, got: %v", err)
	}
}

func TestPostService_ToggleReaction_PrivatePostHidden(t *testing.T) {
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 99, IsPublic: false}, nil
		},
	}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, &mockUploader{})

	_, err := svc.ToggleReaction(context.Background(), 1, 7, model.ReactionLike)
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for someone else's private post, got: %v", err)
	}
}

// =============================================================================
// VISIBILITY AND READ TESTS
// =============================================================================

func TestPostService_GetBySlug_PrivateVisibility(t *testing.T) {
	mockRepo := &mockPostRepository{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Post, error) {
			return &model.Post{ID: 1, AuthorID: 9, Slug: slug, IsPublic: false}, nil
		},
	}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, &mockUploader{})
	ctx := context.Background()

	// Anonymous viewer: hidden
	if _, err := svc.GetBySlug(ctx, "secret", nil); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("anonymous: expected ErrPostNotFound, got: %v", err)
	}

	// Another user: hidden
	other := int64(2)
	if _, err := svc.GetBySlug(ctx, "secret", &other); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("other user: expected ErrPostNotFound, got: %v", err)
	}

	// Author: visible
	author := int64(9)
	post, err := svc.GetBySlug(ctx, "secret", &author)
	if err != nil {
		t.Fatalf("author: expected no error, got: %v", err)
	}
	if post.Slug != "secret" {
		t.Errorf("slug = %q, want %q", post.Slug, "secret")
	}
}

func TestPostService_GetBySlug_ViewerReaction(t *testing.T) {
	like := model.ReactionLike
	mockRepo := &mockPostRepository{
		getBySlugFn: func(ctx context.Context, slug string) (*model.Post, error) {
			return &model.Post{ID: 1, AuthorID: 9, Slug: slug, IsPublic: true}, nil
		},
		getReactionFn: func(ctx context.Context, postID, userID int64) (*string, error) {
			return &like, nil
		},
	}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, &mockUploader{})

	viewer := int64(2)
	post, err := svc.GetBySlug(context.Background(), "hello", &viewer)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if post.ViewerReaction == nil || *post.ViewerReaction != model.ReactionLike {
		t.Errorf("viewer reaction = %v, want %q", post.ViewerReaction, model.ReactionLike)
	}

	// Anonymous viewers carry no reaction
	post, err = svc.GetBySlug(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if post.ViewerReaction != nil {
		t.Errorf("viewer reaction = %v, want nil for anonymous viewer", post.ViewerReaction)
	}
}

func TestPostService_ToggleVisibility_Flips(t *testing.T) {
	public := true
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 9, IsPublic: public}, nil
		},
		setPublicFn: func(ctx context.Context, postID int64, p bool) error {
			public = p
			return nil
		},
	}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, &mockUploader{})
	ctx := context.Background()

	post, err := svc.ToggleVisibility(ctx, 1, 9)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if post.IsPublic || public {
		t.Error("first toggle should make the post private")
	}

	post, err = svc.ToggleVisibility(ctx, 1, 9)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !post.IsPublic || !public {
		t.Error("second toggle should make the post public again")
	}
}

func TestPostService_ToggleVisibility_NotOwner(t *testing.T) {
	mockRepo := &mockPostRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 9, IsPublic: true}, nil
		},
	}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, &mockUploader{})

	if _, err := svc.ToggleVisibility(context.Background(), 1, 2); !errors.Is(err, model.ErrNotPostOwner) {
		t.Fatalf("expected ErrNotPostOwner, got: %v", err)
	}
}

func TestPostService_ListPublic_Pagination(t *testing.T) {
	var gotPage, gotPageSize int
	mockRepo := &mockPostRepository{
		listPublicFn: func(ctx context.Context, page, pageSize int) ([]model.Post, int, error) {
			gotPage, gotPageSize = page, pageSize
			return []model.Post{{ID: 1}}, 25, nil
		},
	}
	svc := NewPostService(mockRepo, &mockCategoryRepository{}, &mockUploader{})

	resp, err := svc.ListPublic(context.Background(), 0, 500)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Out-of-range inputs are clamped
	if gotPage != 1 || gotPageSize != MaxPageSize {
		t.Errorf("page=%d pageSize=%d, want 1 and %d", gotPage, gotPageSize, MaxPageSize)
	}
	if resp.Pagination.Total != 25 || resp.Pagination.TotalPages != 1 {
		t.Errorf("pagination = %+v", resp.Pagination)
	}
}
