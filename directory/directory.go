// Package directory is the narrow bridge to the organization's user
// directory. It answers one question: who is this username/password pair.
package directory

import (
	"context"
	"strings"

	"Gin_postgres_redis_inventory_tool/apperr"
)

// Identity is what the directory vouches for after a successful bind.
// GUID is the RFC 4122 form of the account's objectGUID.
type Identity struct {
	GUID        string
	Username    string
	DisplayName string
}

type Directory interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}

func invalidCredentials() error {
	return apperr.New(apperr.Unauthenticated, "invalid username or password")
}

// Static is an in-memory directory keyed by lower-cased username.
type Static struct {
	Users map[string]StaticUser
}

type StaticUser struct {
	Password string
	Identity Identity
}

func (s *Static) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Upstream, err, "directory")
	}
	u, ok := s.Users[strings.ToLower(strings.TrimSpace(username))]
	if !ok || password == "" || u.Password != password {
		return nil, invalidCredentials()
	}
	id := u.Identity
	return &id, nil
}
