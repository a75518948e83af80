package server

import (
	"github.com/gofiber/fiber/v2"
)

// ProfileFollow subscribes the viewer to an author and returns to the profile.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := s.followService.Follow(c.UserContext(), viewerID(c), username); err != nil {
		return err
	}
	return redirect(c, profileURL(username))
}

// ProfileUnfollow removes the subscription, if any, and returns to the profile.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	username := c.Params("username")
	if err := s.followService.Unfollow(c.UserContext(), viewerID(c), username); err != nil {
		return err
	}
	return redirect(c, profileURL(username))
}
