package service

import (
	"context"

	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/observability"
	"postline/internal/repository"
	"postline/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// TitleLength is how much of a post's text is used as the detail page title.
const TitleLength = 30

// PostDetail is everything the post page shows.
type PostDetail struct {
	Post            *models.Post
	Title           string
	AuthorPostCount int64
	Comments        []models.Comment
}

// PostService creates, edits and loads single posts.
type PostService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	comments repository.CommentRepository
	images   *ImageService
}

func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	comments repository.CommentRepository,
	images *ImageService,
) *PostService {
	return &PostService{
		posts:    posts,
		groups:   groups,
		comments: comments,
		images:   images,
	}
}

func (s *PostService) getPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, models.NewNotFoundError("Post", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// GetPostDetail loads a post with its comments and the author's post count.
func (s *PostService) GetPostDetail(ctx context.Context, id uint) (_ *PostDetail, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "GetPostDetail", attribute.Int64("post.id", int64(id)))
	defer func() { span.End(err) }()

	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &PostDetail{
		Post:            post,
		Title:           post.Excerpt(TitleLength),
		AuthorPostCount: count,
		Comments:        comments,
	}, nil
}

// GetForEdit loads a post that userID may edit. Other users get a forbidden error.
func (s *PostService) GetForEdit(ctx context.Context, id, userID uint) (*models.Post, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return post, models.NewForbiddenError("Only the author can edit this post")
	}
	return post, nil
}

// Groups lists the choices for the post form.
func (s *PostService) Groups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

// validate runs form checks plus the ones needing storage: the group must
// exist and the image must decode.
func (s *PostService) validate(ctx context.Context, in *validation.PostInput) error {
	in.Normalize()
	v := in.Validate()
	if in.GroupID != nil && *in.GroupID > 0 {
		if _, err := s.groups.GetByID(ctx, *in.GroupID); repository.IsNotFound(err) {
			v.AddError("group", validation.MsgInvalidChoice)
		} else if err != nil {
			return models.NewInternalError(err)
		}
	}
	if in.Image != nil && len(in.Image.Content) > 0 {
		if err := s.images.Validate(in.Image); err != nil {
			for field, msg := range models.FieldErrors(err) {
				v.AddError(field, msg)
			}
		}
	}
	return v.Err()
}

func (s *PostService) storeImage(ctx context.Context, post *models.Post, upload *validation.ImageUpload) (*StoredImage, error) {
	if upload == nil || len(upload.Content) == 0 {
		return nil, nil
	}
	stored, err := s.images.Save(ctx, upload)
	if err != nil {
		return nil, err
	}
	post.Image = stored.Name
	post.ImagePreview = stored.Preview
	return stored, nil
}

// discardImage removes files written for a failed save, keeping any that a
// post still references.
func (s *PostService) discardImage(ctx context.Context, stored *StoredImage) {
	if stored == nil {
		return
	}
	orphan := &StoredImage{}
	if s.orphaned(ctx, stored.Name) {
		orphan.Name = stored.Name
	}
	if s.orphaned(ctx, stored.Preview) {
		orphan.Preview = stored.Preview
	}
	s.images.Remove(orphan)
}

func (s *PostService) orphaned(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	inUse, err := s.posts.ImageInUse(ctx, name)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "image cleanup skipped", "image", name, "error", err)
		return false
	}
	return !inUse
}

// CreatePost validates in and publishes it under authorID.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, in validation.PostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer func() { span.End(err) }()

	if authorID == 0 {
		return nil, models.NewUnauthorizedError("Login required")
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     in.Text,
		AuthorID: authorID,
		GroupID:  in.GroupID,
	}
	stored, err := s.storeImage(ctx, post, in.Image)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.discardImage(ctx, stored)
		return nil, models.NewInternalError(err)
	}

	observability.PostsPublished.Inc()
	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID, "group_id", post.GroupID)
	return post, nil
}

// UpdatePost edits a post owned by userID. A new image replaces the old one;
// no image keeps the current one.
func (s *PostService) UpdatePost(ctx context.Context, id, userID uint, in validation.PostInput) (_ *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "UpdatePost", attribute.Int64("post.id", int64(id)))
	defer func() { span.End(err) }()

	post, err := s.GetForEdit(ctx, id, userID)
	if err != nil {
		return post, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return post, err
	}

	post.Text = in.Text
	post.GroupID = in.GroupID
	stored, err := s.storeImage(ctx, post, in.Image)
	if err != nil {
		return post, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		s.discardImage(ctx, stored)
		return post, models.NewInternalError(err)
	}
	return post, nil
}
