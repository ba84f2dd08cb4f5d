package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/alexander-library/internal/auth"
	"github.com/prn-tf/alexander-library/internal/domain"
	"github.com/prn-tf/alexander-library/internal/repository"
	"github.com/prn-tf/alexander-library/internal/validation"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.Users.Register(ctx, RegisterInput{
		Name:     "Ada",
		Email:    "  Ada@Example.COM ",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "Passw0rd!", user.PasswordHash)

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"duplicate email", RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Passw0rd!"}, domain.ErrUserAlreadyExists},
		{"missing name", RegisterInput{Email: "x@example.com", Password: "Passw0rd!"}, validation.ErrValidation},
		{"missing password", RegisterInput{Name: "X", Email: "x@example.com"}, validation.ErrValidation},
		{"bad email", RegisterInput{Name: "X", Email: "not-an-email", Password: "Passw0rd!"}, domain.ErrInvalidEmail},
		{"short password", RegisterInput{Name: "X", Email: "x@example.com", Password: "Pa0!"}, ErrInvalidPassword},
		{"no digit", RegisterInput{Name: "X", Email: "x@example.com", Password: "Password!"}, ErrInvalidPassword},
		{"no special", RegisterInput{Name: "X", Email: "x@example.com", Password: "Passw0rdd"}, ErrInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Users.Register(ctx, tt.input)
			require.ErrorIs(t, err, tt.want)
		})
	}

	count, err := env.repos.User.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUserService_LoginLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.user(t, "ada@example.com")

	_, err := env.svc.Users.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.svc.Users.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Passw0rd!"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = env.svc.Users.Login(ctx, LoginInput{Email: "ada@example.com"})
	require.ErrorIs(t, err, validation.ErrValidation)

	out, err := env.svc.Users.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, out.User.ID)
	assert.NotEmpty(t, out.Token)
	assert.True(t, out.ExpiresAt.After(user.CreatedAt))

	identity, err := env.sessions.Resolve(ctx, out.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)

	require.NoError(t, env.svc.Users.Logout(ctx, out.Token))

	_, err = env.sessions.Resolve(ctx, out.Token)
	require.Error(t, err)

	err = env.svc.Users.Logout(ctx, out.Token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	err = env.svc.Users.Logout(ctx, "")
	require.ErrorIs(t, err, auth.ErrMissingToken)
}

func TestUserService_SessionsDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Sessions = nil
	users := New(env.deps).Users
	env.user(t, "ada@example.com")

	_, err := users.Login(context.Background(), LoginInput{Email: "ada@example.com", Password: "Passw0rd!"})
	require.ErrorIs(t, err, ErrSessionsDisabled)
}

func TestUserService_MeAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	shelf := env.shelf(t, alice.ID, "A")
	env.shelf(t, alice.ID, "B")
	category := env.category(t, alice.ID, shelf.ID, "C")
	env.book(t, alice.ID, shelf.ID, &category.ID, "one")
	env.book(t, alice.ID, shelf.ID, nil, "two")
	env.shelf(t, bob.ID, "Bob")

	profile, err := env.svc.Users.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.User.ID)
	assert.EqualValues(t, 2, profile.NBookshelves)
	assert.EqualValues(t, 1, profile.NCategories)
	assert.EqualValues(t, 2, profile.NBooks)

	profile, err = env.svc.Users.Me(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, profile.NBookshelves)
	assert.Zero(t, profile.NBooks)

	stats, err := env.svc.Users.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 2, Bookshelves: 3, Categories: 1, Books: 2}, *stats)

	users, err := env.svc.Users.List(ctx, repository.DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserService_RepositoriesOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	users := NewUserService(Deps{
		Repos:      env.repos,
		BcryptCost: env.deps.BcryptCost,
		Logger:     env.deps.Logger,
	})

	user, err := users.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "Passw0rd!"})
	require.NoError(t, err)

	_, err = users.Register(ctx, RegisterInput{Name: "X", Email: "x@example.com", Password: "weak"})
	require.ErrorIs(t, err, ErrInvalidPassword)

	listed, err := users.List(ctx, repository.DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, user.ID, listed[0].ID)

	env.shelf(t, user.ID, "A")
	stats, err := users.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 1, Bookshelves: 1}, *stats)

	_, err = users.Login(ctx, LoginInput{Email: "ada@example.com", Password: "Passw0rd!"})
	require.ErrorIs(t, err, ErrSessionsDisabled)
}
