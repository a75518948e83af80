package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("Post", 7), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", NewNotFoundError("Group", "cats")), http.StatusNotFound},
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"forbidden", NewForbiddenError("nope"), http.StatusForbidden},
		{"internal", NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestFieldErrors(t *testing.T) {
	err := fmt.Errorf("create: %w", NewFormError(map[string]string{"text": "required"}))
	assert.Equal(t, map[string]string{"text": "required"}, FieldErrors(err))
	assert.True(t, IsCode(err, CodeValidation))
	assert.Nil(t, FieldErrors(NewNotFoundError("Post", 1)))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: connection reset", err.Error())
}

func TestPostExcerpt(t *testing.T) {
	p := Post{Text: "Привет, это довольно длинный текст поста для проверки"}
	assert.Equal(t, 30, len([]rune(p.Excerpt(30))))
	assert.Equal(t, "short", Post{Text: "short"}.Excerpt(30))
}

func TestFollowStatus(t *testing.T) {
	assert.False(t, FollowUnknown.Known())
	assert.True(t, FollowNotFollowing.Known())
	assert.False(t, FollowNotFollowing.Following())
	assert.True(t, FollowFollowing.Following())
	assert.Equal(t, "unknown", FollowUnknown.String())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "leo", User{Username: "leo"}.FullName())
	assert.Equal(t, "Leo Tolstoy", User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}.FullName())
}
