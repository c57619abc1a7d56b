// Package session keeps the bearer-token sessions of signed-in profiles.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"techsync/api/internal/erp"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	Token     string    `json:"token"`
	ProfileID string    `json:"profile_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      erp.Role  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Store persists sessions by token. Load returns ErrNotFound for unknown or
// expired tokens.
type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// New opens a session for p that lives for ttl.
func New(p erp.Profile, now time.Time, ttl time.Duration) Session {
	return Session{
		Token:     NewToken(),
		ProfileID: p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: now.UTC(),
		ExpiresAt: now.UTC().Add(ttl),
	}
}

func NewToken() string { return uuid.NewString() }

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
