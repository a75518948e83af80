package seed

import (
	"context"
	"fmt"
	"log/slog"

	"postline/internal/cache"
	"postline/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	Users           int
	Groups          int
	Posts           int
	CommentsPerPost int
	FollowsPerUser  int
	// GroupedShare is the fraction of posts filed under a group.
	GroupedShare float64
}

// DefaultOptions is a small but browsable dataset.
func DefaultOptions() Options {
	return Options{
		Users:           12,
		Groups:          4,
		Posts:           120,
		CommentsPerPost: 3,
		FollowsPerUser:  4,
		GroupedShare:    0.6,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
}

// Seeder fills the database with demo content.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	logger  *slog.Logger
}

// NewSeeder creates a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts SeedOptions, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{db: db, factory: NewFactory(db, opts), logger: logger}
}

// ClearAll deletes every row of the content tables, children first, and
// drops cached group lookups for the removed slugs.
func (s *Seeder) ClearAll(ctx context.Context) error {
	var slugs []string
	if err := s.db.WithContext(ctx).Model(&models.Group{}).Pluck("slug", &slugs).Error; err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	for _, slug := range slugs {
		cache.InvalidateGroup(ctx, slug)
	}
	s.logger.InfoContext(ctx, "database cleared", "groups", len(slugs))
	return nil
}

// Run creates users, groups, posts, comments and follows per opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	f := s.factory
	sum := &Summary{}

	if opts.Users <= 0 {
		return sum, nil
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return sum, err
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	groups := make([]*models.Group, 0, opts.Groups)
	for i := 0; i < opts.Groups; i++ {
		g, err := f.CreateGroup(ctx)
		if err != nil {
			return sum, err
		}
		groups = append(groups, g)
	}
	sum.Groups = len(groups)

	for i := 0; i < opts.Posts; i++ {
		author := users[f.Pick(len(users))]
		var group *models.Group
		if len(groups) > 0 && f.Chance(opts.GroupedShare) {
			group = groups[f.Pick(len(groups))]
		}
		post, err := f.CreatePost(ctx, author, group)
		if err != nil {
			return sum, err
		}
		sum.Posts++

		for c := 0; c < opts.CommentsPerPost; c++ {
			if _, err := f.CreateComment(ctx, users[f.Pick(len(users))], post); err != nil {
				return sum, err
			}
			sum.Comments++
		}
	}

	for _, u := range users {
		for j := 0; j < opts.FollowsPerUser; j++ {
			created, err := f.CreateFollow(ctx, u, users[f.Pick(len(users))])
			if err != nil {
				return sum, err
			}
			if created {
				sum.Follows++
			}
		}
	}

	s.logger.InfoContext(ctx, "seed complete",
		"users", sum.Users,
		"groups", sum.Groups,
		"posts", sum.Posts,
		"comments", sum.Comments,
		"follows", sum.Follows,
	)
	return sum, nil
}
