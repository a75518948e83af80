package server

import (
	"strconv"

	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// PostDetail renders one post with its comments and the comment form.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	detail, err := s.postService.GetPostDetail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/post_detail", &PageData{
		Title:  detail.Title,
		Detail: detail,
		Post:   detail.Post,
	})
}

// renderPostForm shows the create or edit form. Validation failures are
// rendered with 200 like a fresh form.
func (s *Server) renderPostForm(c *fiber.Ctx, data *PageData) error {
	groups, err := s.postService.Groups(c.UserContext())
	if err != nil {
		return err
	}
	data.Groups = groups
	if data.Title == "" {
		data.Title = "New post"
		if data.IsEdit {
			data.Title = "Edit post"
		}
	}
	return s.render(c, fiber.StatusOK, "posts/create_post", data)
}

// CreatePostForm renders an empty post form.
func (s *Server) CreatePostForm(c *fiber.Ctx) error {
	return s.renderPostForm(c, &PageData{})
}

// CreatePost publishes a post and redirects to the author's profile.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in, values, err := postInputFromForm(c)
	if err != nil {
		return err
	}

	_, err = s.postService.CreatePost(c.UserContext(), viewerID(c), in)
	if fields := models.FieldErrors(err); fields != nil {
		return s.renderPostForm(c, &PageData{Form: values, Errors: fields})
	}
	if err != nil {
		return err
	}

	user := s.currentUser(c)
	if user == nil {
		return redirect(c, "/")
	}
	return redirect(c, profileURL(user.Username))
}

// EditPostForm renders the form filled with the post. Only the author may
// edit; anyone else is sent to the post page.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetForEdit(c.UserContext(), id, viewerID(c))
	if models.IsCode(err, models.CodeForbidden) {
		return redirect(c, postURL(id))
	}
	if err != nil {
		return err
	}

	values := map[string]string{"text": post.Text}
	if post.GroupID != nil {
		values["group"] = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	return s.renderPostForm(c, &PageData{Form: values, IsEdit: true, Post: post})
}

// EditPost saves the author's changes and redirects to the post page.
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	in, values, err := postInputFromForm(c)
	if err != nil {
		return err
	}

	post, err := s.postService.UpdatePost(c.UserContext(), id, viewerID(c), in)
	if models.IsCode(err, models.CodeForbidden) {
		return redirect(c, postURL(id))
	}
	if fields := models.FieldErrors(err); fields != nil {
		return s.renderPostForm(c, &PageData{Form: values, Errors: fields, IsEdit: true, Post: post})
	}
	if err != nil {
		return err
	}
	return redirect(c, postURL(id))
}

// AddComment stores a comment and returns to the post. An empty comment is
// dropped without an error message.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	_, err = s.commentService.AddComment(c.UserContext(), id, viewerID(c), validation.CommentInput{Text: c.FormValue("text")})
	if fields := models.FieldErrors(err); fields != nil {
		middleware.Logger.DebugContext(c.UserContext(), "comment rejected", "post_id", id, "fields", fields)
	} else if err != nil {
		return err
	}
	return redirect(c, postURL(id))
}
