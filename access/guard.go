// Package access decides whether a principal may perform an action. The
// functions are pure; callers apply the outcome.
package access

import (
	"Gin_postgres_redis_inventory_tool/apperr"
)

// Rank is the ordered authorization level of a user.
type Rank int

const (
	Viewer Rank = 0
	Editor Rank = 1
	Admin  Rank = 2
)

func (r Rank) Valid() bool { return r >= Viewer && r <= Admin }

func (r Rank) String() string {
	switch r {
	case Viewer:
		return "viewer"
	case Editor:
		return "editor"
	case Admin:
		return "admin"
	default:
		return "unknown"
	}
}

// Principal is the authenticated caller as loaded from the user table.
type Principal struct {
	UserID    uint
	Username  string
	Rank      Rank
	Activated bool
}

// Authorize approves p for an action that needs at least min.
func Authorize(p *Principal, min Rank) error {
	if p == nil {
		return apperr.New(apperr.Unauthenticated, "not logged in")
	}
	if !p.Activated {
		return apperr.Forbiddenf("account is not activated")
	}
	if p.Rank < min {
		return apperr.Forbiddenf("requires %s role", min)
	}
	return nil
}

// AuthorizeSelfRead is the only check an unactivated principal can pass.
func AuthorizeSelfRead(p *Principal, targetID uint) error {
	if p == nil {
		return apperr.New(apperr.Unauthenticated, "not logged in")
	}
	if p.UserID == targetID {
		return nil
	}
	return Authorize(p, Admin)
}

// AuthorizeOwnerOr passes when p owns the record or holds min.
func AuthorizeOwnerOr(p *Principal, ownerID uint, min Rank) error {
	if err := Authorize(p, Viewer); err != nil {
		return err
	}
	if p.UserID == ownerID {
		return nil
	}
	return Authorize(p, min)
}

// CheckRoleChange guards admins against removing their own admin rank.
func CheckRoleChange(actor *Principal, targetID uint, newRank Rank) error {
	if err := Authorize(actor, Admin); err != nil {
		return err
	}
	if !newRank.Valid() {
		return apperr.Invalidf("invalid role (0=viewer, 1=editor, 2=admin)")
	}
	if actor.UserID == targetID && newRank != Admin {
		return apperr.Invalidf("you cannot remove your own admin role")
	}
	return nil
}

// CheckDeactivation guards admins against deactivating themselves.
func CheckDeactivation(actor *Principal, targetID uint) error {
	if err := Authorize(actor, Admin); err != nil {
		return err
	}
	if actor.UserID == targetID {
		return apperr.Invalidf("you cannot deactivate yourself")
	}
	return nil
}
