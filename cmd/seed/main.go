// Command seed fills the database with demo users, groups, posts and follows.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"postline/internal/config"
	"postline/internal/database"
	"postline/internal/middleware"
	"postline/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	defaults := seed.DefaultOptions()
	users := flag.Int("users", defaults.Users, "number of users to create")
	groups := flag.Int("groups", defaults.Groups, "number of groups to create")
	posts := flag.Int("posts", defaults.Posts, "number of posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "comments per post")
	follows := flag.Int("follows", defaults.FollowsPerUser, "follow attempts per user")
	randSeed := flag.Int64("seed", 0, "random seed (0 = random)")
	clean := flag.Bool("clean", false, "delete existing content before seeding")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := middleware.InitLogger(cfg.Env, os.Stdout)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	seeder := seed.NewSeeder(db, seed.SeedOptions{RandSeed: *randSeed}, logger)
	if *clean {
		if err := seeder.ClearAll(ctx); err != nil {
			log.Fatalf("Failed to clear database: %v", err)
		}
	}

	opts := defaults
	opts.Users = *users
	opts.Groups = *groups
	opts.Posts = *posts
	opts.CommentsPerPost = *comments
	opts.FollowsPerUser = *follows

	if _, err := seeder.Run(ctx, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("demo accounts ready", "password", seed.DemoPassword)
}
