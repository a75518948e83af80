package service

import (
	"context"

	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/observability"
	"postline/internal/repository"
)

// FollowService manages follow edges between users.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository) *FollowService {
	return &FollowService{follows: follows, users: users}
}

func (s *FollowService) resolveAuthor(ctx context.Context, username string) (*models.User, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if repository.IsNotFound(err) {
		return nil, models.NewNotFoundError("User", username)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return author, nil
}

// Follow makes userID follow username. Following yourself or an author you
// already follow is a no-op.
func (s *FollowService) Follow(ctx context.Context, userID uint, username string) error {
	author, err := s.resolveAuthor(ctx, username)
	if err != nil {
		return err
	}
	if author.ID == userID {
		observability.FollowActions.WithLabelValues("follow", "self").Inc()
		return nil
	}

	created, err := s.follows.Create(ctx, userID, author.ID)
	if err != nil {
		observability.FollowActions.WithLabelValues("follow", "error").Inc()
		return models.NewInternalError(err)
	}
	if created {
		observability.FollowActions.WithLabelValues("follow", "created").Inc()
		middleware.Logger.InfoContext(ctx, "follow created", "author_id", author.ID)
	} else {
		observability.FollowActions.WithLabelValues("follow", "exists").Inc()
	}
	return nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, username string) error {
	author, err := s.resolveAuthor(ctx, username)
	if err != nil {
		return err
	}

	removed, err := s.follows.Delete(ctx, userID, author.ID)
	if err != nil {
		observability.FollowActions.WithLabelValues("unfollow", "error").Inc()
		return models.NewInternalError(err)
	}
	if removed {
		observability.FollowActions.WithLabelValues("unfollow", "removed").Inc()
	} else {
		observability.FollowActions.WithLabelValues("unfollow", "absent").Inc()
	}
	return nil
}
