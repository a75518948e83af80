package service

import (
	"context"

	"postline/internal/cache"
	"postline/internal/models"
	"postline/internal/observability"
	"postline/internal/pagination"
	"postline/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedPage is one page of posts plus its paging metadata.
type FeedPage struct {
	Posts []models.Post
	Page  pagination.Page
}

// GroupFeed is a group's page of posts.
type GroupFeed struct {
	Group *models.Group
	FeedPage
}

// Profile is an author's page of posts with counters and the viewer's
// follow state. Follow is FollowUnknown for anonymous viewers.
type Profile struct {
	Author    *models.User
	PostCount int64
	Followers int64
	Following int64
	Follow    models.FollowStatus
	FeedPage
}

// FeedService builds the paginated post listings.
type FeedService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	pageSize int
}

func NewFeedService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	pageSize int,
) *FeedService {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &FeedService{
		posts:    posts,
		groups:   groups,
		users:    users,
		follows:  follows,
		pageSize: pageSize,
	}
}

func (s *FeedService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (FeedPage, error) {
	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return FeedPage{}, models.NewInternalError(err)
	}
	page := pagination.FromQuery(total, s.pageSize, rawPage)
	posts, err := s.posts.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return FeedPage{}, models.NewInternalError(err)
	}
	return FeedPage{Posts: posts, Page: page}, nil
}

// Index returns the site-wide feed.
func (s *FeedService) Index(ctx context.Context, rawPage string) (_ *FeedPage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "Index")
	defer func() { span.End(err) }()

	feed, err := s.page(ctx, repository.PostFilter{}, rawPage)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// Group returns the feed of the group with slug.
func (s *FeedService) Group(ctx context.Context, slug, rawPage string) (_ *GroupFeed, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "Group", attribute.String("group.slug", slug))
	defer func() { span.End(err) }()

	group, err := s.GroupBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	feed, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, FeedPage: feed}, nil
}

// GroupBySlug resolves a group through the lookup cache.
func (s *FeedService) GroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := cache.Aside(ctx, cache.GroupKey(slug), &group, cache.GroupTTL, func() error {
		found, err := s.groups.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		group = *found
		return nil
	})
	if repository.IsNotFound(err) {
		return nil, models.NewNotFoundError("Group", slug)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &group, nil
}

// Profile returns username's posts. viewerID is zero for anonymous viewers.
func (s *FeedService) Profile(ctx context.Context, username string, viewerID uint, rawPage string) (_ *Profile, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "Profile", attribute.String("profile.username", username))
	defer func() { span.End(err) }()

	author, err := s.users.GetByUsername(ctx, username)
	if repository.IsNotFound(err) {
		return nil, models.NewNotFoundError("User", username)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	feed, err := s.page(ctx, repository.PostFilter{AuthorID: author.ID}, rawPage)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		Author:    author,
		PostCount: feed.Page.Total,
		FeedPage:  feed,
	}
	if profile.Followers, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, models.NewInternalError(err)
	}
	if profile.Following, err = s.follows.CountFollowing(ctx, author.ID); err != nil {
		return nil, models.NewInternalError(err)
	}
	if profile.Follow, err = followStatus(ctx, s.follows, viewerID, author.ID); err != nil {
		return nil, err
	}
	return profile, nil
}

// Following returns posts by authors viewerID follows.
func (s *FeedService) Following(ctx context.Context, viewerID uint, rawPage string) (_ *FeedPage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "Following")
	defer func() { span.End(err) }()

	if viewerID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	feed, err := s.page(ctx, repository.PostFilter{FollowerID: viewerID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func followStatus(ctx context.Context, follows repository.FollowRepository, viewerID, authorID uint) (models.FollowStatus, error) {
	if viewerID == 0 {
		return models.FollowUnknown, nil
	}
	ok, err := follows.Exists(ctx, viewerID, authorID)
	if err != nil {
		return models.FollowUnknown, models.NewInternalError(err)
	}
	if ok {
		return models.FollowFollowing, nil
	}
	return models.FollowNotFollowing, nil
}
