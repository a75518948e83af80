package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"postline/internal/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionCookie is the name of the cookie carrying the signed session token.
	SessionCookie = "postline_session"
	// LoginURL is where LoginRequired sends anonymous visitors.
	LoginURL = "/auth/login/"

	tokenIssuer   = "postline"
	tokenAudience = "postline-web"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrRevokedToken = errors.New("session token revoked")
)

// SessionManager issues and verifies HMAC-signed session tokens kept in an
// HTTP-only cookie. Revoked token IDs are blacklisted in Redis when available.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	rdb    *redis.Client
}

// NewSessionManager builds a manager. rdb may be nil, in which case logout
// only clears the cookie.
func NewSessionManager(secret string, ttl time.Duration, secure bool, rdb *redis.Client) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, secure: secure, rdb: rdb}
}

// IssueToken signs a token for userID.
func (m *SessionManager) IssueToken(userID uint) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseToken validates signature, issuer, audience, expiry and blacklist state.
func (m *SessionManager) ParseToken(ctx context.Context, raw string) (uint, *jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil || !token.Valid {
		return 0, nil, ErrInvalidToken
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || uid == 0 {
		return 0, nil, ErrInvalidToken
	}

	if m.rdb != nil && claims.ID != "" {
		n, err := m.rdb.Exists(ctx, cache.BlacklistKey(claims.ID)).Result()
		if err == nil && n > 0 {
			return 0, nil, ErrRevokedToken
		}
	}
	return uint(uid), claims, nil
}

// Login issues a token for userID and sets the session cookie.
func (m *SessionManager) Login(c *fiber.Ctx, userID uint) error {
	token, expires, err := m.IssueToken(userID)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals("userID", userID)
	return nil
}

// Logout revokes the current token and expires the cookie.
func (m *SessionManager) Logout(c *fiber.Ctx) {
	if raw := c.Cookies(SessionCookie); raw != "" {
		if _, claims, err := m.ParseToken(c.UserContext(), raw); err == nil && m.rdb != nil {
			ttl := time.Until(claims.ExpiresAt.Time)
			if ttl > 0 {
				if err := m.rdb.Set(c.UserContext(), cache.BlacklistKey(claims.ID), "1", ttl).Err(); err != nil {
					Logger.WarnContext(c.UserContext(), "failed to revoke session", "error", err)
				}
			}
		}
	}
	c.ClearCookie(SessionCookie)
	c.Locals("userID", nil)
}

// Session resolves the session cookie into c.Locals("userID"). It never
// rejects a request; an invalid cookie is cleared and the visitor is anonymous.
func (m *SessionManager) Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(SessionCookie)
		if raw == "" {
			return c.Next()
		}
		uid, _, err := m.ParseToken(c.UserContext(), raw)
		if err != nil {
			c.ClearCookie(SessionCookie)
			return c.Next()
		}
		c.Locals("userID", uid)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, uid))
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user ID, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals("userID").(uint)
	return uid, ok && uid != 0
}

// LoginRequired redirects anonymous visitors to the login page, carrying the
// requested path in the next parameter.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUserID(c); ok {
			return c.Next()
		}
		return c.Redirect(LoginRedirectURL(c.OriginalURL()), fiber.StatusFound)
	}
}

// LoginRedirectURL builds the login URL for next, keeping slashes readable.
func LoginRedirectURL(next string) string {
	return LoginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext returns next when it is a local absolute path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}
