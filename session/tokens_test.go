package session

import (
	"testing"
	"time"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

func newTokens(t *testing.T) (*Tokens, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokens("test-secret", NewAppSessionStore(rdb, TokenTTL)), mr
}

func TestIssueAndVerify(t *testing.T) {
	tk, mr := newTokens(t)
	ctx := t.Context()

	raw, issued, err := tk.Issue(ctx, 42, access.Editor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := tk.Verify(ctx, raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	uid, _ := claims.UserID()
	if uid != 42 || claims.Role != access.Editor || claims.SessionID != issued.SessionID {
		t.Fatalf("claims = %+v", claims)
	}
	if ttl := mr.TTL(key(claims.SessionID)); ttl != TokenTTL {
		t.Fatalf("session ttl = %v", ttl)
	}
}

func TestVerifyRejects(t *testing.T) {
	tk, _ := newTokens(t)
	ctx := t.Context()
	raw, _, err := tk.Issue(ctx, 7, access.Viewer)
	if err != nil {
		t.Fatal(err)
	}

	other := NewTokens("another-secret", tk.store)
	forged, _, _ := other.Issue(ctx, 7, access.Admin)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, token := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"tampered":  raw[:len(raw)-2] + "xx",
		"wrong key": forged,
		"alg none":  none,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := tk.Verify(ctx, token); !apperr.Is(err, apperr.Unauthenticated) {
				t.Fatalf("err = %v, want unauthenticated", err)
			}
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	tk, _ := newTokens(t)
	ctx := t.Context()
	raw, _, _ := tk.Issue(ctx, 7, access.Viewer)

	tk.Now = func() time.Time { return time.Now().Add(TokenTTL + time.Minute) }
	if _, err := tk.Verify(ctx, raw); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("err = %v", err)
	}
}

func TestRevoke(t *testing.T) {
	tk, _ := newTokens(t)
	ctx := t.Context()

	a, ca, _ := tk.Issue(ctx, 7, access.Viewer)
	b, _, _ := tk.Issue(ctx, 7, access.Viewer)
	c, _, _ := tk.Issue(ctx, 8, access.Viewer)

	if err := tk.Revoke(ctx, ca); err != nil {
		t.Fatal(err)
	}
	if _, err := tk.Verify(ctx, a); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("revoked token: err = %v", err)
	}
	if _, err := tk.Verify(ctx, b); err != nil {
		t.Fatalf("sibling session: %v", err)
	}

	if err := tk.RevokeAllForUser(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := tk.Verify(ctx, b); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("after revoke all: err = %v", err)
	}
	if _, err := tk.Verify(ctx, c); err != nil {
		t.Fatalf("other user: %v", err)
	}
}
