package store_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
	"taskboard/internal/persist"
	"taskboard/internal/store"
)

func TestLoginLogoutRestoresAnonymous(t *testing.T) {
	env := newTestEnv(t)
	auth := store.OpenAuth(env.Ctx, env.Deps, nil)
	assert.False(t, auth.Authenticated())

	require.NoError(t, auth.Login(env.Ctx, "a@b.com", "x"))
	state := auth.State()
	require.NotNil(t, state.User)
	assert.Equal(t, "a@b.com", state.User.Email)
	require.NotNil(t, state.Token)

	require.NoError(t, auth.Logout(env.Ctx))
	assert.Equal(t, domain.AuthState{}, auth.State())
	assert.Equal(t, domain.AuthState{}, persist.Load(env.Ctx, env.Deps.Adapter, persist.Auth, domain.AuthState{User: &domain.AuthUser{}}))
}

func TestMockTokenIsDeterministicPerDay(t *testing.T) {
	env := newTestEnv(t)
	auth := store.OpenAuth(env.Ctx, env.Deps, store.MockIssuer{})
	require.NoError(t, auth.Login(env.Ctx, "a@b.com", "x"))
	first := *auth.State().Token
	assert.Equal(t, "mock-jwt."+base64.StdEncoding.EncodeToString([]byte("a@b.com"))+".2024-01-01", first)

	env.Clock.Advance(3 * time.Hour)
	require.NoError(t, auth.Login(env.Ctx, "a@b.com", "different"))
	assert.Equal(t, first, *auth.State().Token, "same email, same day")

	env.Clock.Advance(24 * time.Hour)
	require.NoError(t, auth.Login(env.Ctx, "a@b.com", "x"))
	assert.NotEqual(t, first, *auth.State().Token)
}

func TestJWTIssuerRoundTrip(t *testing.T) {
	issuer := store.JWTIssuer{Secret: []byte("s3cret")}
	now := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	a, err := issuer.Issue("a@b.com", now)
	require.NoError(t, err)
	b, err := issuer.Issue("a@b.com", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, a, b, "deterministic within a day")

	email, err := issuer.Verify(a, now)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", email)

	_, err = issuer.Verify(a, now.Add(72*time.Hour))
	assert.Error(t, err, "expired")
	_, err = store.JWTIssuer{Secret: []byte("other")}.Verify(a, now)
	assert.Error(t, err, "wrong secret")

	_, err = store.JWTIssuer{}.Issue("a@b.com", now)
	assert.Error(t, err)
}

func TestLoginFailsWithoutStateChangeWhenIssuerFails(t *testing.T) {
	env := newTestEnv(t)
	auth := store.OpenAuth(env.Ctx, env.Deps, store.JWTIssuer{})
	assert.Error(t, auth.Login(env.Ctx, "a@b.com", "x"))
	assert.False(t, auth.Authenticated())
}

func TestRestoreDoesNotPersist(t *testing.T) {
	env := newTestEnv(t)
	auth := store.OpenAuth(env.Ctx, env.Deps, nil)
	token := "tok"
	auth.Restore(domain.AuthState{User: &domain.AuthUser{Email: "r@x.io"}, Token: &token})
	assert.True(t, auth.Authenticated())
	_, err := env.KV.Get(env.Ctx, persist.Key(persist.Auth))
	assert.Error(t, err, "restore must not write a snapshot")

	user, ok := auth.CheckToken("tok")
	assert.True(t, ok)
	assert.Equal(t, "r@x.io", user.Email)
	_, ok = auth.CheckToken("nope")
	assert.False(t, ok)
}

func TestAuthRehydratesSession(t *testing.T) {
	env := newTestEnv(t)
	first := store.OpenAuth(env.Ctx, env.Deps, nil)
	require.NoError(t, first.Login(env.Ctx, "a@b.com", "x"))
	second := store.OpenAuth(env.Ctx, env.Deps, nil)
	assert.Equal(t, first.State(), second.State())
	assert.True(t, second.Authenticated())
}

func TestExpiredJWTSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	auth := store.OpenAuth(env.Ctx, env.Deps, store.JWTIssuer{Secret: []byte("s3cret"), TTL: 24 * time.Hour})
	require.NoError(t, auth.Login(env.Ctx, "a@b.com", "x"))
	token := *auth.State().Token

	user, ok := auth.CheckToken(token)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", user.Email)

	env.Clock.Advance(30 * 24 * time.Hour)
	_, ok = auth.CheckToken(token)
	assert.False(t, ok, "expired token must not authenticate")
	assert.True(t, auth.Authenticated(), "session itself is left in place")
}
