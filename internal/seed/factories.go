// Package seed creates demo data for local development and tests.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"postline/internal/models"
	"postline/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "postline-demo-2026"

// SeedOptions tunes generated content.
type SeedOptions struct {
	// RandSeed makes output reproducible; zero picks a random seed.
	RandSeed int64
	// MaxDays spreads publication dates over this many past days.
	MaxDays int
	// HashCost is the bcrypt cost for DemoPassword.
	HashCost int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  SeedOptions
	faker *gofakeit.Faker
	hash  string
	now   time.Time
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(opts.RandSeed),
		now:   time.Now(),
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), f.opts.HashCost)
		if err != nil {
			return "", err
		}
		f.hash = string(h)
	}
	return f.hash, nil
}

// pastTime picks a moment within the configured window.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}

// CreateUser persists a user with a generated name. overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	first := f.faker.FirstName()
	last := f.faker.LastName()
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), f.faker.Number(100, 999)),
		Email:     f.faker.Email(),
		FirstName: first,
		LastName:  last,
		Password:  hash,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateGroup persists a group with a generated title and unique slug.
func (f *Factory) CreateGroup(ctx context.Context, overrides ...func(*models.Group)) (*models.Group, error) {
	word := strings.ToLower(strings.ReplaceAll(f.faker.Noun(), " ", "-"))
	group := &models.Group{
		Title:       strings.ToUpper(word[:1]) + word[1:] + " lovers",
		Slug:        fmt.Sprintf("%s-%d", word, f.faker.Number(100, 9999)),
		Description: f.faker.Sentence(12),
	}
	for _, override := range overrides {
		override(group)
	}
	if err := validation.ValidateGroupSlug(group.Slug); err != nil {
		return nil, fmt.Errorf("group slug %q: %w", group.Slug, err)
	}
	if err := validation.ValidateGroupTitle(group.Title); err != nil {
		return nil, fmt.Errorf("group title: %w", err)
	}

	if err := f.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, fmt.Errorf("create group %s: %w", group.Slug, err)
	}
	return group, nil
}

// CreatePost persists a post by author, optionally in group.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, group *models.Group, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Text:     f.faker.Paragraph(1, 3, 12, "\n"),
		AuthorID: author.ID,
		PubDate:  f.pastTime(),
	}
	if group != nil {
		gid := group.ID
		post.GroupID = &gid
	}
	for _, override := range overrides {
		override(post)
	}

	if err := f.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Text:     f.faker.Sentence(f.faker.Number(3, 15)),
	}
	if err := f.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// CreateFollow makes user follow author. Self-follows and existing edges are
// skipped; the result reports whether a row was written.
func (f *Factory) CreateFollow(ctx context.Context, user, author *models.User) (bool, error) {
	if user.ID == author.ID {
		return false, nil
	}
	res := f.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{UserID: user.ID, AuthorID: author.ID})
	if res.Error != nil {
		return false, fmt.Errorf("create follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Pick returns a random element index below n.
func (f *Factory) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// Chance reports true with probability p in [0, 1].
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}
