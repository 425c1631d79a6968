package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
)

func TestUserService_ChangeUsernameCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.signUp(t, "alice", "owner")
	f.signUp(t, "bob", "owner")
	p := f.publish(t, alice)

	_, err := f.users.ChangeUsername(ctx, alice, alice.User.ID, "BOB")
	assert.ErrorIs(t, err, common.ErrUsernameTaken)
	_, err = f.users.ChangeUsername(ctx, alice, alice.User.ID, "al")
	assert.ErrorIs(t, err, common.ErrValidation)

	name, err := f.users.ChangeUsername(ctx, alice, alice.User.ID, "alicia")
	require.NoError(t, err)
	assert.Equal(t, "alicia", name)

	got, err := f.properties.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.OwnerUsername)

	stored, err := f.sessions.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", stored.User.Username)

	// changing only the case of one's own name is allowed
	_, err = f.users.ChangeUsername(ctx, alice, alice.User.ID, "Alicia")
	require.NoError(t, err)
}

func TestUserService_ChangesReachEverySession(t *testing.T) {
	for _, tc := range []struct {
		name  string
		build func(t *testing.T) *fixture
	}{
		{"sql", newFixture},
		{"redis", newRedisFixture},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := tc.build(t)
			laptop := f.signUp(t, "alice", "owner")
			phone, err := f.auth.Login(ctx, LoginRequest{Identifier: "alice", Password: "secret123"})
			require.NoError(t, err)
			bob := f.signUp(t, "bob", "owner")

			_, err = f.users.ChangeUsername(ctx, laptop, laptop.User.ID, "alicia")
			require.NoError(t, err)
			_, err = f.users.ChangeEmail(ctx, laptop, laptop.User.ID, "alicia@example.com")
			require.NoError(t, err)

			for _, sid := range []string{laptop.ID, phone.ID} {
				stored, err := f.sessions.Get(ctx, sid)
				require.NoError(t, err)
				assert.Equal(t, "alicia", stored.User.Username)
				require.NotNil(t, stored.User.Email)
				assert.Equal(t, "alicia@example.com", *stored.User.Email)
			}
			stored, err := f.sessions.Get(ctx, bob.ID)
			require.NoError(t, err)
			assert.Equal(t, "bob", stored.User.Username)
		})
	}
}

func TestUserService_SelfServiceOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.signUp(t, "alice", "owner")
	mod := f.signUp(t, "admin", "user")

	_, err := f.users.ChangeUsername(ctx, mod, alice.User.ID, "renamed")
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = f.users.ChangeEmail(ctx, nil, alice.User.ID, "x@example.com")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.ErrorIs(t, f.users.DeleteAccount(ctx, mod, alice.User.ID), common.ErrForbidden)
	assert.ErrorIs(t, f.users.DeleteAccount(ctx, mod, mod.User.ID), common.ErrForbidden, "moderator account is kept")
}

func TestUserService_ChangeEmailAndPhone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.signUp(t, "alice", "owner")
	f.signUp(t, "bob", "owner")

	_, err := f.users.ChangeEmail(ctx, alice, alice.User.ID, "BOB@example.com")
	assert.ErrorIs(t, err, common.ErrEmailTaken)
	_, err = f.users.ChangeEmail(ctx, alice, alice.User.ID, "nope")
	assert.ErrorIs(t, err, common.ErrValidation)

	email, err := f.users.ChangeEmail(ctx, alice, alice.User.ID, " new@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", *email)

	email, err = f.users.ChangeEmail(ctx, alice, alice.User.ID, "")
	require.NoError(t, err)
	assert.Nil(t, email)
	stored, err := f.sessions.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.User.Email)

	phone, err := f.users.ChangePhone(ctx, alice, alice.User.ID, "(95) 99999-0000")
	require.NoError(t, err)
	assert.Equal(t, "95999990000", *phone)

	phone, err = f.users.ChangePhone(ctx, alice, alice.User.ID, "")
	require.NoError(t, err)
	assert.Nil(t, phone)
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.signUp(t, "alice", "owner")

	err := f.users.ChangePassword(ctx, alice, alice.User.ID, ChangePasswordRequest{CurrentPassword: "wrong-one", NewPassword: "another1"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	err = f.users.ChangePassword(ctx, alice, alice.User.ID, ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "123"})
	assert.ErrorIs(t, err, common.ErrValidation)

	require.NoError(t, f.users.ChangePassword(ctx, alice, alice.User.ID, ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "another1"}))

	_, err = f.auth.Login(ctx, LoginRequest{Identifier: "alice", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{Identifier: "alice", Password: "another1"})
	require.NoError(t, err)
}

func TestUserService_DeleteAccountCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.signUp(t, "alice", "owner")
	bob := f.signUp(t, "bob", "owner")
	p1 := f.publish(t, alice, "a.png", "b.png")
	p2 := f.publish(t, alice)
	kept := f.publish(t, bob, "c.png")

	require.NoError(t, f.users.DeleteAccount(ctx, alice, alice.User.ID))

	for _, id := range []string{p1.ID, p2.ID} {
		_, err := f.properties.Get(ctx, id)
		assert.ErrorIs(t, err, common.ErrNotFound)
	}
	_, err := f.sessions.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.repos.Users(f.db).FindByID(ctx, alice.User.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	for _, url := range p1.Images {
		assert.False(t, f.blobs.has(url))
	}
	assert.True(t, f.blobs.has(kept.Images[0]))
	_, err = f.properties.Get(ctx, kept.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.users.DeleteAccount(ctx, alice, alice.User.ID), common.ErrNotFound)
}

func TestUserService_DeleteAccountIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.signUp(t, "alice", "owner")
	p := f.publish(t, alice, "a.png")

	// fail the last step of the cascade
	_, err := f.db.ExecContext(ctx, `CREATE TRIGGER users_no_delete BEFORE DELETE ON users
		BEGIN SELECT RAISE(ABORT, 'simulated failure'); END`)
	require.NoError(t, err)

	err = f.users.DeleteAccount(ctx, alice, alice.User.ID)
	require.Error(t, err)

	got, err := f.properties.Get(ctx, p.ID)
	require.NoError(t, err, "listings survive a failed cascade")
	assert.Equal(t, p.Images, got.Images)
	_, err = f.sessions.Get(ctx, alice.ID)
	require.NoError(t, err, "sessions survive a failed cascade")
	_, err = f.repos.Users(f.db).FindByID(ctx, alice.User.ID)
	require.NoError(t, err)
	assert.True(t, f.blobs.has(p.Images[0]), "images are only reclaimed after commit")
}

func TestUserService_DeleteAccountWithRedisSessions(t *testing.T) {
	ctx := context.Background()
	f := newRedisFixture(t)
	alice := f.signUp(t, "alice", "owner")
	bob := f.signUp(t, "bob", "owner")

	require.NoError(t, f.users.DeleteAccount(ctx, alice, alice.User.ID))

	_, err := f.sessions.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.sessions.Get(ctx, bob.ID)
	require.NoError(t, err)
}
