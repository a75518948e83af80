// Package server wires the HTTP routes, middleware chain and HTML rendering.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postline/internal/cache"
	"postline/internal/config"
	"postline/internal/database"
	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/repository"
	"postline/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	pages          cache.PageStore
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *middleware.SessionManager
	renderer       *Renderer
	userRepo       repository.UserRepository
	groupRepo      repository.GroupRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	followRepo     repository.FollowRepository
	feedService    *service.FeedService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	userService    *service.UserService
}

// NewServer connects to the database and Redis and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("schema setup failed: %w", err)
	}

	// Redis is optional: without it pages are cached in process and
	// logout cannot revoke tokens server-side.
	redisClient := cache.InitRedis(cfg.RedisURL)

	var pages cache.PageStore
	if redisClient != nil {
		pages = cache.NewRedisPageStore(redisClient, "")
	} else {
		middleware.Logger.Warn("redis unavailable, using in-memory page cache")
		pages = cache.NewMemoryPageStore()
	}

	return NewServerWithDeps(cfg, db, redisClient, pages)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with an in-memory database and page store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, pages cache.PageStore) (*Server, error) {
	renderer, err := NewRenderer(cfg.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		pages:          pages,
		promMiddleware: middleware.InitMetrics("postline"),
		sessions:       middleware.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL(), cfg.IsProduction(), redisClient),
		renderer:       renderer,
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
	}

	images := service.NewImageService(cfg)
	server.feedService = service.NewFeedService(server.postRepo, server.groupRepo, server.userRepo, server.followRepo, cfg.PageSize)
	server.postService = service.NewPostService(server.postRepo, server.groupRepo, server.commentRepo, images)
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo)
	server.followService = service.NewFollowService(server.followRepo, server.userRepo)
	server.userService = service.NewUserService(server.userRepo)

	return server, nil
}

// PageStore exposes the page cache, e.g. for clearing it from tooling.
func (s *Server) PageStore() cache.PageStore {
	return s.pages
}

// NewApp builds a fiber app with the HTML error handler, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "postline",
		BodyLimit:    (s.config.ImageMaxUploadMB + 1) * 1024 * 1024,
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Resolve the session cookie before anything reads the user ID
	app.Use(s.sessions.Session())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))

	app.Use(compress.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	limit := s.config.RateLimitPerMinute
	if limit <= 0 {
		limit = 300
	}
	app.Use(limiter.New(limiter.Config{
		Max:        limit,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "postline metrics",
	}))

	app.Static(s.config.MediaURL, s.config.MediaRoot)

	ttl := s.config.PageCacheTTL()
	login := middleware.LoginRequired()

	// Auth routes
	auth := app.Group("/auth")
	auth.Get("/signup/", s.SignupForm)
	auth.Post("/signup/", middleware.RateLimit(s.redis, s.config.Env, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login/", s.LoginForm)
	auth.Post("/login/", middleware.RateLimit(s.redis, s.config.Env, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/logout/", s.Logout)
	auth.Post("/logout/", s.Logout)

	app.Get("/", middleware.CachePage(s.pages, ttl, "index"), s.Index)
	app.Get("/group/:slug/", s.GroupPosts)
	app.Get("/follow/", login, s.FollowIndex)

	app.Get("/create/", login, s.CreatePostForm)
	app.Post("/create/", login, s.CreatePost)

	// Define specific /:id/:action routes BEFORE generic /:id route
	posts := app.Group("/posts")
	posts.Get("/:id/edit/", login, s.EditPostForm)
	posts.Post("/:id/edit/", login, s.EditPost)
	posts.Post("/:id/comment/", login, s.AddComment)
	posts.Get("/:id/", middleware.CachePage(s.pages, ttl, "post_detail"), s.PostDetail)

	profile := app.Group("/profile")
	profile.Get("/:username/follow/", login, s.ProfileFollow)
	profile.Get("/:username/unfollow/", login, s.ProfileUnfollow)
	profile.Get("/:username/", s.Profile)

	// Anything else is a 404 rendered by the error handler
	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// ErrorHandler renders the custom not-found and server-error pages. Other
// statuses are sent as plain text.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	code := models.HTTPStatus(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	switch {
	case code == fiber.StatusNotFound:
		if rerr := s.render(c, fiber.StatusNotFound, "core/404", &PageData{Title: "Page not found"}); rerr == nil {
			return nil
		}
	case code >= fiber.StatusInternalServerError:
		if fe == nil {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				"path", c.Path(), "error", err)
		}
		if rerr := s.render(c, code, "core/500", &PageData{Title: "Server error"}); rerr == nil {
			return nil
		}
	}

	msg := err.Error()
	if fe == nil && code >= fiber.StatusInternalServerError {
		msg = "Internal server error"
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(msg)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck verifies the database and Redis connections.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; its absence degrades caching but not readiness.
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown releases the database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if len(errs) > 0 {
		middleware.Logger.ErrorContext(ctx, "shutdown incomplete", "errors", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
