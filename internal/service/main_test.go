package service

import (
	"testing"

	"postline/internal/config"
	"postline/internal/repository"
	"postline/internal/testutil"

	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	feed     *FeedService
	posts    *PostService
	comments *CommentService
	follows  *FollowService
	users    *UserService
	images   *ImageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	images := NewImageService(&config.Config{MediaRoot: t.TempDir(), ImageMaxUploadMB: 1})

	return &testEnv{
		db:       db,
		feed:     NewFeedService(postRepo, groupRepo, userRepo, followRepo, 10),
		posts:    NewPostService(postRepo, groupRepo, commentRepo, images),
		comments: NewCommentService(commentRepo, postRepo),
		follows:  NewFollowService(followRepo, userRepo),
		users:    NewUserService(userRepo).WithHashCost(4),
		images:   images,
	}
}
