package server

import (
	"github.com/gofiber/fiber/v2"
)

// Index renders the site-wide feed.
func (s *Server) Index(c *fiber.Ctx) error {
	feed, err := s.feedService.Index(c.UserContext(), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/index", &PageData{
		Title: "Latest posts",
		Posts: feed.Posts,
		Page:  &feed.Page,
	})
}

// GroupPosts renders the feed of one group.
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	feed, err := s.feedService.Group(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/group_list", &PageData{
		Title: feed.Group.Title,
		Group: feed.Group,
		Posts: feed.Posts,
		Page:  &feed.Page,
	})
}

// Profile renders an author's posts, counters and follow button.
func (s *Server) Profile(c *fiber.Ctx) error {
	profile, err := s.feedService.Profile(c.UserContext(), c.Params("username"), viewerID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/profile", &PageData{
		Title:   "Profile of " + profile.Author.FullName(),
		Profile: profile,
		Posts:   profile.Posts,
		Page:    &profile.Page,
	})
}

// FollowIndex renders posts by the authors the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	feed, err := s.feedService.Following(c.UserContext(), viewerID(c), c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/follow", &PageData{
		Title: "Your subscriptions",
		Posts: feed.Posts,
		Page:  &feed.Page,
	})
}
