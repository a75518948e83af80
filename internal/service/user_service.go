package service

import (
	"context"
	"strings"

	"postline/internal/middleware"
	"postline/internal/models"
	"postline/internal/repository"
	"postline/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgUsernameTaken  = "A user with that username already exists."
	msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	// NonFieldErrorsKey holds form errors not tied to one field.
	NonFieldErrorsKey = "__all__"
)

// UserService handles signup and credential checks.
type UserService struct {
	users    repository.UserRepository
	hashCost int
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users, hashCost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

// Signup validates in and creates the account.
func (s *UserService) Signup(ctx context.Context, in validation.SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	v := in.Validate()
	if _, taken := v.Errors["username"]; !taken && in.Username != "" {
		exists, err := s.users.ExistsByUsername(ctx, in.Username)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		v.Check(!exists, "username", msgUsernameTaken)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password1), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewFormError(map[string]string{"username": msgUsernameTaken})
		}
		return nil, models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// Authenticate returns the user for valid credentials.
func (s *UserService) Authenticate(ctx context.Context, in validation.LoginInput) (*models.User, error) {
	if err := in.Validate().Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if repository.IsNotFound(err) {
		return nil, badCredentials()
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, badCredentials()
	}
	return user, nil
}

// GetByID loads a user for the session.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, models.NewNotFoundError("User", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func badCredentials() error {
	return models.NewFormError(map[string]string{NonFieldErrorsKey: msgBadCredentials})
}
