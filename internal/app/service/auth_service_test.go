package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u, err := f.auth.Register(ctx, RegisterRequest{
		Username: "  Alice ",
		Password: "secret123",
		Role:     "owner",
		Email:    strptr("Alice@Example.com"),
		Phone:    strptr("+55 (95) 99999-0000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)
	assert.Equal(t, "+5595999990000", *u.Phone)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.False(t, u.IsModerator)

	tests := []struct {
		name string
		req  RegisterRequest
		want error
	}{
		{"username differs only by case", RegisterRequest{Username: "alice", Password: "secret123", Role: "user"}, common.ErrUsernameTaken},
		{"email differs only by case", RegisterRequest{Username: "bob", Password: "secret123", Role: "user", Email: strptr("ALICE@example.com")}, common.ErrEmailTaken},
		{"phone already used", RegisterRequest{Username: "bob", Password: "secret123", Role: "user", Phone: strptr("+5595999990000")}, common.ErrPhoneTaken},
		{"short username", RegisterRequest{Username: "bo", Password: "secret123", Role: "user"}, common.ErrValidation},
		{"short password", RegisterRequest{Username: "bob", Password: "123", Role: "user"}, common.ErrValidation},
		{"unknown role", RegisterRequest{Username: "bob", Password: "secret123", Role: "admin"}, common.ErrValidation},
		{"invalid email", RegisterRequest{Username: "bob", Password: "secret123", Role: "user", Email: strptr("not-an-email")}, common.ErrValidation},
		{"invalid phone", RegisterRequest{Username: "bob", Password: "secret123", Role: "user", Phone: strptr("12ab")}, common.ErrValidation},
		{"profane username", RegisterRequest{Username: "m3rda", Password: "secret123", Role: "user"}, common.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_RegisterModerator(t *testing.T) {
	f := newFixture(t)
	u, err := f.auth.Register(context.Background(), RegisterRequest{Username: "Admin", Password: "secret123", Role: "user"})
	require.NoError(t, err)
	assert.True(t, u.IsModerator)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.auth.Register(ctx, RegisterRequest{
		Username: "alice", Password: "secret123", Role: "owner",
		Email: strptr("alice@example.com"), Phone: strptr("95999990000"),
	})
	require.NoError(t, err)

	for _, identifier := range []string{"ALICE", "Alice@Example.com", "95999990000", "(95) 99999-0000"} {
		sess, err := f.auth.Login(ctx, LoginRequest{Identifier: identifier, Password: "secret123"})
		require.NoError(t, err, identifier)
		assert.Equal(t, "alice", sess.User.Username)
		assert.WithinDuration(t, time.Now().Add(time.Hour), sess.Expires, time.Minute)

		stored, err := f.sessions.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.User.ID, stored.User.ID)
	}

	// legacy field name
	_, err = f.auth.Login(ctx, LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, LoginRequest{Identifier: "alice", Password: "wrong-pass"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	wrongPass := err.Error()

	_, err = f.auth.Login(ctx, LoginRequest{Identifier: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Equal(t, wrongPass, err.Error(), "unknown user and wrong password look the same")

	_, err = f.auth.Login(ctx, LoginRequest{Identifier: "alice"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAuthService_LoginReconcilesModerator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.auth.Register(ctx, RegisterRequest{Username: "carol", Password: "secret123", Role: "user"})
	require.NoError(t, err)

	f.auth.moderator = "carol"
	sess, err := f.auth.Login(ctx, LoginRequest{Identifier: "carol", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, sess.User.IsModerator)

	stored, err := f.repos.Users(f.db).FindByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, stored.IsModerator)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := f.signUp(t, "alice", "owner")

	require.NoError(t, f.auth.Logout(ctx, sess.ID))
	_, err := f.sessions.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
