package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"postline/internal/cache"
	"postline/internal/config"
	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestSignup(t *testing.T) {
	a := newTestApp(t)

	t.Run("creates account and logs in", func(t *testing.T) {
		resp := a.postForm("/auth/signup/", url.Values{
			"first_name": {"Anna"},
			"last_name":  {"Karenina"},
			"username":   {"anna"},
			"email":      {"anna@example.com"},
			"password1":  {"vronsky-1877-train"},
			"password2":  {"vronsky-1877-train"},
		}, nil)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
		cookie := sessionCookie(resp)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)

		var user models.User
		require.NoError(t, a.db.Where("username = ?", "anna").First(&user).Error)
		assert.Equal(t, "Anna Karenina", user.FullName())
	})

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{
			name: "mismatched passwords",
			form: url.Values{
				"username": {"ivan"}, "password1": {"first-secret-99"}, "password2": {"second-secret-99"},
			},
			field: "password2",
		},
		{
			name: "taken username",
			form: url.Values{
				"username": {"anna"}, "password1": {"another-secret-1"}, "password2": {"another-secret-1"},
			},
			field: "username",
		},
		{
			name:  "missing username",
			form:  url.Values{"password1": {"another-secret-1"}, "password2": {"another-secret-1"}},
			field: "username",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.postForm("/auth/signup/", tt.form, nil)
			body := readBody(t, resp)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, `data-field="`+tt.field+`"`)
			assert.Nil(t, sessionCookie(resp))
		})
	}
}

func TestLogin(t *testing.T) {
	a := newTestApp(t)
	testutil.CreateUser(t, a.db, "leo")

	t.Run("form keeps next", func(t *testing.T) {
		body := readBody(t, a.get("/auth/login/?next=/create/", nil))
		assert.Contains(t, body, `name="next" value="/create/"`)
	})

	tests := []struct {
		name     string
		next     string
		location string
	}{
		{"local next", "/create/", "/create/"},
		{"no next", "", "/"},
		{"external next is ignored", "//evil.example.com/", "/"},
		{"absolute url is ignored", "https://evil.example.com/", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.postForm("/auth/login/", url.Values{
				"username": {"leo"},
				"password": {testutil.TestPassword},
				"next":     {tt.next},
			}, nil)

			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
			assert.NotNil(t, sessionCookie(resp))
		})
	}

	t.Run("bad password re-renders", func(t *testing.T) {
		resp := a.postForm("/auth/login/", url.Values{
			"username": {"leo"},
			"password": {"wrong-password"},
		}, nil)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `data-field="__all__"`)
		assert.Nil(t, sessionCookie(resp))
	})
}

func TestLogout_RevokesSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	a := newTestAppWith(t, rdb, cache.NewRedisPageStore(rdb, ""))
	user := testutil.CreateUser(t, a.db, "leo")

	token, _, err := a.srv.sessions.IssueToken(user.ID)
	require.NoError(t, err)
	withToken := func(target string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
		return req
	}

	resp := a.do(withToken("/create/"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(withToken("/auth/logout/"), nil)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "You have been logged out.")

	resp = a.do(withToken("/create/"), nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/create/", resp.Header.Get("Location"))
}

func TestLogin_RateLimitFollowsConfiguredEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	a := newTestAppWith(t, rdb, cache.NewRedisPageStore(rdb, ""), func(cfg *config.Config) {
		cfg.Env = "staging"
	})

	form := url.Values{"username": {"nobody"}, "password": {"wrong-password"}}
	for i := 0; i < 10; i++ {
		resp := a.postForm("/auth/login/", form, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, "attempt %d", i+1)
	}
	resp := a.postForm("/auth/login/", form, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
