// Package testutil provides shared fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"postline/internal/config"
	"postline/internal/database"
	"postline/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "correct-horse-battery"

// NewTestDB opens a private in-memory SQLite database with the full schema.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     config.DriverSQLite,
		DBPath:       ":memory:",
		DBSchemaMode: database.SchemaModeHybrid,
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

var fixtureHash []byte

// CreateUser inserts a user whose password is TestPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	if fixtureHash == nil {
		h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		fixtureHash = h
	}
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(fixtureHash),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateGroup inserts a group with the given slug.
func CreateGroup(t testing.TB, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	g := &models.Group{
		Title:       "Group " + slug,
		Slug:        slug,
		Description: "Posts about " + slug,
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return g
}

// CreatePosts inserts n posts by author, optionally in group, one minute
// apart so the newest is "<prefix> n".
func CreatePosts(t testing.TB, db *gorm.DB, author *models.User, group *models.Group, n int, prefix string) []models.Post {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := make([]models.Post, 0, n)
	for i := 1; i <= n; i++ {
		p := models.Post{
			Text:     fmt.Sprintf("%s %d", prefix, i),
			AuthorID: author.ID,
			PubDate:  base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			gid := group.ID
			p.GroupID = &gid
		}
		if err := db.Omit("Author", "Group").Create(&p).Error; err != nil {
			t.Fatalf("create post: %v", err)
		}
		posts = append(posts, p)
	}
	return posts
}

// Follow inserts a follow edge from user to author.
func Follow(t testing.TB, db *gorm.DB, user, author *models.User) {
	t.Helper()
	if err := db.Omit("User", "Author").Create(&models.Follow{UserID: user.ID, AuthorID: author.ID}).Error; err != nil {
		t.Fatalf("follow: %v", err)
	}
}
