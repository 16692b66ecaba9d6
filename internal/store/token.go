package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer derives the session token stored by Auth on login. Issuers are
// deterministic per (email, UTC calendar date).
type TokenIssuer interface {
	Issue(email string, now time.Time) (string, error)
}

// TokenVerifier is implemented by issuers whose tokens carry their own
// validity (signature, expiry) on top of matching the stored session.
type TokenVerifier interface {
	Verify(token string, now time.Time) (string, error)
}

// MockIssuer produces "mock-jwt.<base64(email)>.<YYYY-MM-DD>". It is a
// placeholder, not a credential: anyone can compute it.
type MockIssuer struct{}

func (MockIssuer) Issue(email string, now time.Time) (string, error) {
	return fmt.Sprintf("mock-jwt.%s.%s", base64.StdEncoding.EncodeToString([]byte(email)), now.UTC().Format(time.DateOnly)), nil
}

const jwtIssuer = "taskboard"

// JWTIssuer signs an HS256 token whose subject is the email and whose
// issued-at is the start of the UTC day.
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
}

func (j JWTIssuer) Issue(email string, now time.Time) (string, error) {
	if len(j.Secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	ttl := j.TTL
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	day := startOfDay(now)
	claims := jwt.RegisteredClaims{
		Issuer:    jwtIssuer,
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(day),
		ExpiresAt: jwt.NewNumericDate(day.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
}

// Verify checks signature and expiry at now and returns the subject email.
func (j JWTIssuer) Verify(token string, now time.Time) (string, error) {
	if len(j.Secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return j.Secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
