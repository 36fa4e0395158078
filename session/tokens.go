package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const TokenTTL = 12 * time.Hour

// Claims is the signed credential carried in the token cookie.
type Claims struct {
	SessionID string      `json:"sid"`
	Role      access.Rank `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.Unauthenticated, "malformed token subject")
	}
	return uint(id), nil
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Tokens issues HS256 tokens and verifies them against the session
// registry.
type Tokens struct {
	secret []byte
	store  *AppSessionStore
	Now    func() time.Time
}

func NewTokens(secret string, store *AppSessionStore) *Tokens {
	return &Tokens{secret: []byte(secret), store: store, Now: time.Now}
}

func (t *Tokens) TTL() time.Duration { return t.store.TTL() }

func (t *Tokens) Issue(ctx context.Context, userID uint, role access.Rank) (string, *Claims, error) {
	now := t.Now()
	claims := &Claims{
		SessionID: uuid.NewString(),
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.store.TTL())),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Upstream, err, "sign token")
	}
	if err := t.store.Create(ctx, claims.SessionID, userID, now); err != nil {
		return "", nil, apperr.Wrap(apperr.Upstream, err, "store session")
	}
	return signed, claims, nil
}

func (t *Tokens) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, apperr.New(apperr.Unauthenticated, "not logged in")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.New(apperr.Unauthenticated, "session expired")
		}
		return nil, apperr.New(apperr.Unauthenticated, "invalid token")
	}
	uid, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	as, err := t.store.Get(ctx, claims.SessionID)
	if errors.Is(err, redis.Nil) {
		return nil, apperr.New(apperr.Unauthenticated, "session revoked")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "load session")
	}
	if as.UserID != uid {
		return nil, apperr.New(apperr.Unauthenticated, "invalid token")
	}
	return claims, nil
}

// Revoke ends the session behind claims.
func (t *Tokens) Revoke(ctx context.Context, claims *Claims) error {
	return apperr.Wrap(apperr.Upstream, t.store.Delete(ctx, claims.SessionID), "delete session")
}

func (t *Tokens) RevokeAllForUser(ctx context.Context, userID uint) error {
	return apperr.Wrap(apperr.Upstream, t.store.RevokeAllForUser(ctx, userID), "revoke sessions")
}
