package server

import (
	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SignupForm renders the account creation form.
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "auth/signup", &PageData{Title: "Sign up"})
}

// Signup creates the account, logs the user in and redirects home.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := validation.SignupInput{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}

	user, err := s.userService.Signup(c.UserContext(), in)
	if fields := models.FieldErrors(err); fields != nil {
		return s.render(c, fiber.StatusOK, "auth/signup", &PageData{
			Title: "Sign up",
			Form: map[string]string{
				"first_name": in.FirstName,
				"last_name":  in.LastName,
				"username":   in.Username,
				"email":      in.Email,
			},
			Errors: fields,
		})
	}
	if err != nil {
		return err
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return models.NewInternalError(err)
	}
	return redirect(c, "/")
}

// LoginForm renders the login form, keeping the next parameter.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "auth/login", &PageData{
		Title: "Log in",
		Next:  middleware.SafeNext(c.Query("next"), ""),
	})
}

// Login checks credentials and redirects to a local next path or home.
func (s *Server) Login(c *fiber.Ctx) error {
	in := validation.LoginInput{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	next := c.FormValue("next", c.Query("next"))

	user, err := s.userService.Authenticate(c.UserContext(), in)
	if fields := models.FieldErrors(err); fields != nil {
		return s.render(c, fiber.StatusOK, "auth/login", &PageData{
			Title:  "Log in",
			Form:   map[string]string{"username": in.Username},
			Errors: fields,
			Next:   middleware.SafeNext(next, ""),
		})
	}
	if err != nil {
		return err
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", user.ID)
	return redirect(c, middleware.SafeNext(next, "/"))
}

// Logout ends the session and renders the logged-out page.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.sessions.Logout(c)
	c.Locals("currentUser", nil)
	return s.render(c, fiber.StatusOK, "auth/logged_out", &PageData{Title: "Logged out"})
}
