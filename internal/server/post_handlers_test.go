package server

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"postline/internal/models"
	"postline/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_AnonymousRedirectsToLogin(t *testing.T) {
	a := newTestApp(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			var resp *http.Response
			if method == http.MethodGet {
				resp = a.get("/create/", nil)
			} else {
				resp = a.postForm("/create/", url.Values{"text": {"hi"}}, nil)
			}
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/auth/login/?next=/create/", resp.Header.Get("Location"))
		})
	}

	var count int64
	require.NoError(t, a.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreatePost(t *testing.T) {
	a := newTestApp(t)
	user := testutil.CreateUser(t, a.db, "leo")
	group := testutil.CreateGroup(t, a.db, "cats")

	t.Run("form lists groups", func(t *testing.T) {
		resp := a.get("/create/", user)
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, fmt.Sprintf(`<option value="%d"`, group.ID))
	})

	t.Run("valid post redirects to profile", func(t *testing.T) {
		resp := a.postForm("/create/", url.Values{
			"text":  {"A fresh post"},
			"group": {fmt.Sprint(group.ID)},
		}, user)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))

		var post models.Post
		require.NoError(t, a.db.Where("text = ?", "A fresh post").First(&post).Error)
		assert.Equal(t, user.ID, post.AuthorID)
		require.NotNil(t, post.GroupID)
		assert.Equal(t, group.ID, *post.GroupID)
	})

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"empty text", url.Values{"text": {"   "}}, "text"},
		{"unknown group", url.Values{"text": {"hello"}, "group": {"9999"}}, "group"},
		{"garbage group", url.Values{"text": {"hello"}, "group": {"cats"}}, "group"},
	}
	for _, tt := range tests {
		t.Run(tt.name+" re-renders the form", func(t *testing.T) {
			resp := a.postForm("/create/", tt.form, user)
			body := readBody(t, resp)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, fmt.Sprintf(`data-field="%s"`, tt.field))
		})
	}
}

func TestCreatePost_ImageUpload(t *testing.T) {
	a := newTestApp(t)
	user := testutil.CreateUser(t, a.db, "leo")

	t.Run("gif is stored under posts", func(t *testing.T) {
		resp := a.postMultipart("/create/", map[string]string{"text": "Post with image"}, "small.gif", testutil.SmallGIF, user)
		require.Equal(t, http.StatusFound, resp.StatusCode)

		var post models.Post
		require.NoError(t, a.db.Where("text = ?", "Post with image").First(&post).Error)
		assert.Equal(t, "posts/small.gif", post.Image)
		_, err := os.Stat(filepath.Join(a.cfg.MediaRoot, "posts", "small.gif"))
		assert.NoError(t, err)

		detail := readBody(t, a.get(postURL(post.ID), nil))
		assert.Contains(t, detail, "/media/posts/small.gif")

		media := a.get("/media/posts/small.gif", nil)
		assert.Equal(t, http.StatusOK, media.StatusCode)
	})

	t.Run("non-image is rejected", func(t *testing.T) {
		resp := a.postMultipart("/create/", map[string]string{"text": "Not an image"}, "notes.txt", []byte("plain text, not pixels"), user)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `data-field="image"`)
		assert.Contains(t, body, "Not an image")

		var count int64
		require.NoError(t, a.db.Model(&models.Post{}).Where("text = ?", "Not an image").Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestPostDetail(t *testing.T) {
	a := newTestApp(t)
	author := testutil.CreateUser(t, a.db, "leo")
	posts := testutil.CreatePosts(t, a.db, author, nil, 3, "A rather long post text that goes past thirty characters")
	post := posts[0]

	t.Run("shows title and author post count", func(t *testing.T) {
		resp := a.get(postURL(post.ID), nil)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "<title>Post "+post.Excerpt(30)+"</title>")
		assert.Contains(t, body, "Author's posts: <span>3</span>")
		assert.NotContains(t, body, "Add a comment")
	})

	t.Run("author sees edit link", func(t *testing.T) {
		body := readBody(t, a.get(postURL(post.ID), author))
		assert.Contains(t, body, fmt.Sprintf("/posts/%d/edit/", post.ID))
		assert.Contains(t, body, "Add a comment")
	})

	for _, path := range []string{"/posts/9999/", "/posts/abc/", "/posts/0/"} {
		t.Run("not found "+path, func(t *testing.T) {
			resp := a.get(path, nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), "Custom 404")
		})
	}
}

func TestEditPost(t *testing.T) {
	a := newTestApp(t)
	author := testutil.CreateUser(t, a.db, "leo")
	other := testutil.CreateUser(t, a.db, "anna")
	post := testutil.CreatePosts(t, a.db, author, nil, 1, "original")[0]
	detail := postURL(post.ID)
	edit := fmt.Sprintf("/posts/%d/edit/", post.ID)

	storedText := func() string {
		var p models.Post
		require.NoError(t, a.db.First(&p, post.ID).Error)
		return p.Text
	}

	t.Run("non-author GET redirects to detail", func(t *testing.T) {
		resp := a.get(edit, other)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, detail, resp.Header.Get("Location"))
	})

	t.Run("non-author POST changes nothing", func(t *testing.T) {
		resp := a.postForm(edit, url.Values{"text": {"hijacked"}}, other)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, detail, resp.Header.Get("Location"))
		assert.Equal(t, "original 1", storedText())
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		resp := a.get(edit, nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/auth/login/?next="+edit, resp.Header.Get("Location"))
	})

	t.Run("author sees filled form", func(t *testing.T) {
		resp := a.get(edit, author)
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "original 1</textarea>")
		assert.Contains(t, body, "Edit post")
	})

	t.Run("author invalid edit re-renders", func(t *testing.T) {
		resp := a.postForm(edit, url.Values{"text": {""}}, author)
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `data-field="text"`)
		assert.Equal(t, "original 1", storedText())
	})

	t.Run("author edit saves and redirects", func(t *testing.T) {
		resp := a.postForm(edit, url.Values{"text": {"revised"}}, author)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, detail, resp.Header.Get("Location"))
		assert.Equal(t, "revised", storedText())
	})

	t.Run("unknown post", func(t *testing.T) {
		resp := a.get("/posts/9999/edit/", author)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAddComment(t *testing.T) {
	a := newTestApp(t)
	author := testutil.CreateUser(t, a.db, "leo")
	reader := testutil.CreateUser(t, a.db, "anna")
	post := testutil.CreatePosts(t, a.db, author, nil, 1, "discuss")[0]
	target := fmt.Sprintf("/posts/%d/comment/", post.ID)

	countComments := func() int64 {
		var n int64
		require.NoError(t, a.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&n).Error)
		return n
	}

	t.Run("valid comment is stored", func(t *testing.T) {
		resp := a.postForm(target, url.Values{"text": {"Nice one"}}, reader)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
		assert.EqualValues(t, 1, countComments())
	})

	t.Run("empty comment is dropped", func(t *testing.T) {
		resp := a.postForm(target, url.Values{"text": {"  "}}, reader)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
		assert.EqualValues(t, 1, countComments())
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		resp := a.postForm(target, url.Values{"text": {"drive-by"}}, nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/auth/login/?next="))
		assert.EqualValues(t, 1, countComments())
	})

	t.Run("comment shows on detail page", func(t *testing.T) {
		body := readBody(t, a.get(postURL(post.ID), author))
		assert.Contains(t, body, "Nice one")
	})

	t.Run("unknown post", func(t *testing.T) {
		resp := a.postForm("/posts/9999/comment/", url.Values{"text": {"hi"}}, reader)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
