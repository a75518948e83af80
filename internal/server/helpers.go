package server

import (
	"io"
	"mime/multipart"
	"strconv"

	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a route parameter as a positive uint. Anything else is a
// not-found error, since no such page exists.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError("Page", c.Params(param))
	}
	return uint(id), nil
}

// currentUser loads the signed-in user, or nil for anonymous visitors. A
// session pointing at a deleted account is treated as anonymous.
func (s *Server) currentUser(c *fiber.Ctx) *models.User {
	uid, ok := middleware.CurrentUserID(c)
	if !ok {
		return nil
	}
	if u, ok := c.Locals("currentUser").(*models.User); ok {
		return u
	}
	user, err := s.userService.GetByID(c.UserContext(), uid)
	if err != nil {
		return nil
	}
	c.Locals("currentUser", user)
	return user
}

// viewerID is the signed-in user's ID or zero.
func viewerID(c *fiber.Ctx) uint {
	uid, _ := middleware.CurrentUserID(c)
	return uid
}

// redirect sends a 302 to location.
func redirect(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusFound)
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

// postInputFromForm reads the post form, including an optional image file.
func postInputFromForm(c *fiber.Ctx) (validation.PostInput, map[string]string, error) {
	in := validation.PostInput{Text: c.FormValue("text")}
	values := map[string]string{
		"text":  in.Text,
		"group": c.FormValue("group"),
	}

	if raw := c.FormValue("group"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		gid := uint(id)
		if err != nil {
			// Invalid choices fail validation rather than the request
			gid = 0
		}
		in.GroupID = &gid
	}

	// Browsers send an unnamed empty part when no file was chosen
	if fh, err := c.FormFile("image"); err == nil && (fh.Filename != "" || fh.Size > 0) {
		upload, err := readUpload(fh)
		if err != nil {
			return in, values, models.NewInternalError(err)
		}
		in.Image = upload
	}
	return in, values, nil
}

func readUpload(fh *multipart.FileHeader) (*validation.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &validation.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}
