package store

import (
	"context"
	"crypto/subtle"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/events"
	"taskboard/internal/persist"
)

// Auth holds at most one logged-in user. Credentials are not verified.
type Auth struct {
	mu     sync.Mutex
	deps   Deps
	issuer TokenIssuer
	state  domain.AuthState
}

// OpenAuth rehydrates the session; with nothing persisted it starts anonymous.
func OpenAuth(ctx context.Context, deps Deps, issuer TokenIssuer) *Auth {
	if issuer == nil {
		issuer = MockIssuer{}
	}
	state := persist.Load(ctx, deps.Adapter, persist.Auth, domain.AuthState{})
	return &Auth{deps: deps, issuer: issuer, state: state}
}

// State returns a copy of the current session.
func (a *Auth) State() domain.AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyAuth(a.state)
}

func (a *Auth) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.User != nil
}

// Login accepts any password and stores {email} plus a token derived from
// email and today's date. An error means the token could not be issued (state
// unchanged) or the snapshot could not be written (state changed).
func (a *Auth) Login(ctx context.Context, email, password string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	token, err := a.issuer.Issue(email, a.deps.now())
	if err != nil {
		return err
	}
	a.state = domain.AuthState{User: &domain.AuthUser{Email: email}, Token: &token}
	return a.deps.commit(ctx, persist.Auth, a.state, events.Event{Op: "login", EntityID: email})
}

func (a *Auth) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var email string
	if a.state.User != nil {
		email = a.state.User.Email
	}
	a.state = domain.AuthState{}
	return a.deps.commit(ctx, persist.Auth, a.state, events.Event{Op: "logout", EntityID: email})
}

// Restore replaces the in-memory session without persisting it.
func (a *Auth) Restore(state domain.AuthState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = copyAuth(state)
}

// CheckToken reports the current user when token matches the active session
// and, for verifying issuers, is still valid at the current time.
func (a *Auth) CheckToken(token string) (domain.AuthUser, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.User == nil || a.state.Token == nil || token == "" {
		return domain.AuthUser{}, false
	}
	if subtle.ConstantTimeCompare([]byte(*a.state.Token), []byte(token)) != 1 {
		return domain.AuthUser{}, false
	}
	if v, ok := a.issuer.(TokenVerifier); ok {
		if _, err := v.Verify(token, a.deps.now()); err != nil {
			a.deps.logger().Printf("WARNING: session token rejected: %v", err)
			return domain.AuthUser{}, false
		}
	}
	return *a.state.User, true
}

func copyAuth(s domain.AuthState) domain.AuthState {
	var out domain.AuthState
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Token != nil {
		t := *s.Token
		out.Token = &t
	}
	return out
}
