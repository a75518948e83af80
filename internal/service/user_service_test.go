package service

import (
	"context"
	"testing"

	"postline/internal/models"
	"postline/internal/testutil"
	"postline/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Signup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := validation.SignupInput{
		FirstName: "Leo",
		LastName:  "Tolstoy",
		Username:  "leo",
		Email:     "leo@example.com",
		Password1: "war-and-peace-1869",
		Password2: "war-and-peace-1869",
	}

	user, err := env.users.Signup(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, in.Password1, user.Password)
	assert.Equal(t, "Leo Tolstoy", user.FullName())

	_, err = env.users.Signup(ctx, in)
	require.Error(t, err)
	assert.Equal(t, msgUsernameTaken, models.FieldErrors(err)["username"])

	in.Username = "other"
	in.Password2 = "mismatch-password"
	_, err = env.users.Signup(ctx, in)
	assert.Contains(t, models.FieldErrors(err), "password2")
}

func TestUserService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := testutil.CreateUser(t, env.db, "leo")

	user, err := env.users.Authenticate(ctx, validation.LoginInput{Username: "leo", Password: testutil.TestPassword})
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	tests := []struct {
		name string
		in   validation.LoginInput
		key  string
	}{
		{"wrong password", validation.LoginInput{Username: "leo", Password: "nope"}, NonFieldErrorsKey},
		{"unknown user", validation.LoginInput{Username: "ghost", Password: "nope"}, NonFieldErrorsKey},
		{"missing password", validation.LoginInput{Username: "leo"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Authenticate(ctx, tt.in)
			assert.True(t, models.IsCode(err, models.CodeValidation))
			assert.Contains(t, models.FieldErrors(err), tt.key)
		})
	}

	got, err := env.users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "leo", got.Username)

	_, err = env.users.GetByID(ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
