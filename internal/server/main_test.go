package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"postline/internal/cache"
	"postline/internal/config"
	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	t     *testing.T
	cfg   *config.Config
	db    *gorm.DB
	srv   *Server
	app   *fiber.App
	pages *cache.MemoryPageStore
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                 "test",
		Port:                "0",
		DBDriver:            config.DriverSQLite,
		SessionSecret:       "test-session-secret-with-32-plus-chars",
		SessionTTLHours:     1,
		MediaRoot:           t.TempDir(),
		MediaURL:            "/media/",
		PageSize:            10,
		PageCacheTTLSeconds: 1200,
		ImageMaxUploadMB:    1,
		RateLimitPerMinute:  1000,
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWith(t, nil, nil)
}

// newTestAppWith builds the app over a fresh SQLite database. A nil store
// means an in-memory page cache.
func newTestAppWith(t *testing.T, rdb *redis.Client, store cache.PageStore, configure ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := testConfig(t)
	for _, fn := range configure {
		fn(cfg)
	}
	db := testutil.NewTestDB(t)

	ta := &testApp{t: t, cfg: cfg, db: db}
	if store == nil {
		ta.pages = cache.NewMemoryPageStore()
		store = ta.pages
	}

	srv, err := NewServerWithDeps(cfg, db, rdb, store)
	require.NoError(t, err)
	ta.srv = srv
	ta.app = srv.NewApp()
	return ta
}

// do runs req as user; a nil user is an anonymous visitor.
func (a *testApp) do(req *http.Request, user *models.User) *http.Response {
	a.t.Helper()
	if user != nil {
		token, _, err := a.srv.sessions.IssueToken(user.ID)
		require.NoError(a.t, err)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	return resp
}

func (a *testApp) get(target string, user *models.User) *http.Response {
	a.t.Helper()
	return a.do(httptest.NewRequest(http.MethodGet, target, nil), user)
}

func (a *testApp) postForm(target string, form url.Values, user *models.User) *http.Response {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return a.do(req, user)
}

// postMultipart submits fields plus an optional image file.
func (a *testApp) postMultipart(target string, fields map[string]string, filename string, content []byte, user *models.User) *http.Response {
	a.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(a.t, err)
		_, err = part.Write(content)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return a.do(req, user)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func countPosts(body string) int {
	return strings.Count(body, `<article class="post">`)
}
