package service

import (
	"context"
	"strings"

	"inkpress/internal/model"
	"inkpress/internal/repository"
)

// CommentService handles threaded comments on posts.
type CommentService struct {
	repo     repository.CommentRepository
	postRepo repository.PostRepository
}

func NewCommentService(repo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		repo:     repo,
		postRepo: postRepo,
	}
}

// Create adds a root comment to a post.
func (s *CommentService) Create(ctx context.Context, postID, authorID int64, req *model.CreateCommentRequest) (*model.Comment, error) {
	body, err := validateCommentBody(req.Body)
	if err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Body:     body,
		Depth:    0,
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Reply adds a comment under an existing comment on the same post. Depth is
// parent depth plus one, capped at MaxCommentDepth.
func (s *CommentService) Reply(ctx context.Context, postID, parentID, authorID int64, req *model.ReplyRequest) (*model.Comment, error) {
	body, err := validateCommentBody(req.Body)
	if err != nil {
		return nil, err
	}

	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.PostID != postID {
		return nil, model.ErrParentWrongPost
	}
	if parent.Depth+1 > model.MaxCommentDepth {
		return nil, model.ErrCommentTooDeep
	}

	comment := &model.Comment{
		PostID:          parent.PostID,
		AuthorID:        authorID,
		Body:            body,
		ParentCommentID: &parent.ID,
		Depth:           parent.Depth + 1,
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Update edits a comment's body. Only the author can edit; parentage and
// position in the thread never change.
func (s *CommentService) Update(ctx context.Context, commentID, userID int64, req *model.UpdateCommentRequest) (*model.Comment, error) {
	body, err := validateCommentBody(req.Body)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, commentID, userID, body)
}

// GetThread returns a page of root comments, each expanded with its full
// reply subtree. Replies within a parent appear in insertion order.
func (s *CommentService) GetThread(ctx context.Context, postID int64, page, pageSize int) (*model.CommentThreadResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrPostNotFound
	}

	comments, err := s.repo.GetByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	roots := buildThread(comments)

	total := len(roots)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &model.CommentThreadResponse{
		Comments: roots[start:end],
		Pagination: model.Pagination{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}, nil
}

// buildThread assembles the comment forest in one pass. Input is ordered by
// creation, so every parent is indexed before any of its replies and reply
// lists come out in insertion order without sorting.
func buildThread(comments []model.Comment) []*model.CommentNode {
	nodes := make(map[int64]*model.CommentNode, len(comments))
	roots := make([]*model.CommentNode, 0)

	for i := range comments {
		node := &model.CommentNode{
			Comment: comments[i],
			Replies: []*model.CommentNode{},
		}
		nodes[node.ID] = node

		if node.ParentCommentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentCommentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}

	return roots
}

func validateCommentBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", model.ErrCommentRequired
	}
	if len(body) > model.MaxCommentLength {
		return "", model.ErrCommentTooLong
	}
	return body, nil
}
