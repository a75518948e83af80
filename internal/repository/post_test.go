package repository

import (
	"context"
	"testing"

	"postline/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListOrderAndPaging(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "leo")
	testutil.CreatePosts(t, db, author, nil, 23, "post")

	total, err := repo.Count(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(23), total)

	first, err := repo.List(ctx, PostFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "post 23", first[0].Text)
	assert.Equal(t, "leo", first[0].Author.Username)

	last, err := repo.List(ctx, PostFilter{}, 10, 20)
	require.NoError(t, err)
	require.Len(t, last, 3)
	assert.Equal(t, "post 1", last[2].Text)
}

func TestPostRepository_Filters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	mia := testutil.CreateUser(t, db, "mia")
	reader := testutil.CreateUser(t, db, "reader")
	cats := testutil.CreateGroup(t, db, "cats")

	testutil.CreatePosts(t, db, leo, cats, 2, "leo cats")
	testutil.CreatePosts(t, db, leo, nil, 1, "leo solo")
	testutil.CreatePosts(t, db, mia, nil, 3, "mia")
	testutil.Follow(t, db, reader, mia)

	tests := []struct {
		name   string
		filter PostFilter
		want   int64
	}{
		{"all", PostFilter{}, 6},
		{"by author", PostFilter{AuthorID: leo.ID}, 3},
		{"by group", PostFilter{GroupID: cats.ID}, 2},
		{"followed authors", PostFilter{FollowerID: reader.ID}, 3},
		{"follows nobody", PostFilter{FollowerID: leo.ID}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := repo.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)

			posts, err := repo.List(ctx, tt.filter, 10, 0)
			require.NoError(t, err)
			assert.Len(t, posts, int(tt.want))
		})
	}

	followed, err := repo.List(ctx, PostFilter{FollowerID: reader.ID}, 10, 0)
	require.NoError(t, err)
	for _, p := range followed {
		assert.Equal(t, mia.ID, p.AuthorID)
	}

	grouped, err := repo.List(ctx, PostFilter{GroupID: cats.ID}, 10, 0)
	require.NoError(t, err)
	require.NotNil(t, grouped[0].Group)
	assert.Equal(t, "cats", grouped[0].Group.Slug)
}

func TestPostRepository_UpdateKeepsAuthorAndDate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	cats := testutil.CreateGroup(t, db, "cats")
	post := testutil.CreatePosts(t, db, leo, cats, 1, "draft")[0]

	post.Text = "final"
	post.GroupID = nil
	require.NoError(t, repo.Update(ctx, &post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, leo.ID, got.AuthorID)
	assert.True(t, got.PubDate.Equal(post.PubDate))

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, IsNotFound(err))
}

func TestPostRepository_ImageInUse(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	post := testutil.CreatePosts(t, db, leo, nil, 1, "pic")[0]
	require.NoError(t, db.Model(&post).Updates(map[string]any{
		"image":         "posts/small.gif",
		"image_preview": "posts/previews/small.webp",
	}).Error)

	inUse, err := repo.ImageInUse(ctx, "posts/small.gif")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = repo.ImageInUse(ctx, "posts/previews/small.webp")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = repo.ImageInUse(ctx, "posts/other.gif")
	require.NoError(t, err)
	assert.False(t, inUse)
}
