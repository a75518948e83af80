package service

import (
	"context"

	"postline/internal/models"
	"postline/internal/repository"
	"postline/internal/validation"
)

// CommentService adds comments to posts.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts}
}

// AddComment stores a comment by authorID on postID.
func (s *CommentService) AddComment(ctx context.Context, postID, authorID uint, in validation.CommentInput) (*models.Comment, error) {
	if authorID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	if _, err := s.posts.GetByID(ctx, postID); repository.IsNotFound(err) {
		return nil, models.NewNotFoundError("Post", postID)
	} else if err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := in.Validate().Err(); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     in.Text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	return comment, nil
}
