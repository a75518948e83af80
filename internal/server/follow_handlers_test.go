package server

import (
	"net/http"
	"testing"

	"postline/internal/models"
	"postline/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFollowAndUnfollow(t *testing.T) {
	a := newTestApp(t)
	author := testutil.CreateUser(t, a.db, "leo")
	reader := testutil.CreateUser(t, a.db, "anna")

	edges := func(userID, authorID uint) int64 {
		var n int64
		require.NoError(t, a.db.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", userID, authorID).Count(&n).Error)
		return n
	}

	t.Run("follow is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			resp := a.get("/profile/leo/follow/", reader)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
		}
		assert.EqualValues(t, 1, edges(reader.ID, author.ID))
	})

	t.Run("self follow is a no-op", func(t *testing.T) {
		resp := a.get("/profile/leo/follow/", author)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Zero(t, edges(author.ID, author.ID))
	})

	t.Run("unfollow removes the edge and tolerates repeats", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			resp := a.get("/profile/leo/unfollow/", reader)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
		}
		assert.Zero(t, edges(reader.ID, author.ID))
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		resp := a.get("/profile/leo/follow/", nil)
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/auth/login/?next=/profile/leo/follow/", resp.Header.Get("Location"))
	})

	t.Run("unknown author", func(t *testing.T) {
		resp := a.get("/profile/nobody/follow/", reader)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
