package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/directory"
	"Gin_postgres_redis_inventory_tool/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repo) now() time.Time { return r.Now().UTC() }

// ErrInvalidTransition marks a lending or reservation move that the
// record's current state does not allow.
var ErrInvalidTransition = errors.New("invalid transition")

// translate maps gorm errors onto apperr kinds. what names the record.
func translate(err error, what string) error {
	var ae *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFoundf("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.Conflict, err, what+" already exists")
	default:
		return apperr.Wrap(apperr.Upstream, err, what)
	}
}

// likePattern builds a case-folded substring match for LIKE ? ESCAPE '!',
// so % and _ in user input match themselves.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Users

// ResolveOrProvisionUser upserts the local record for a directory identity.
// Role and activation are decided on first insert only; bootstrapAdmin makes
// that first insert an activated admin.
func (r *Repo) ResolveOrProvisionUser(ctx context.Context, id directory.Identity, bootstrapAdmin bool) (*models.User, error) {
	if strings.TrimSpace(id.GUID) == "" {
		return nil, apperr.Invalidf("directory identity has no GUID")
	}
	now := r.now()
	u := models.User{
		ADGuid:      id.GUID,
		Username:    id.Username,
		DisplayName: id.DisplayName,
		Role:        access.Viewer,
		LastLoginAt: &now,
		LastSeenAt:  &now,
		LoginCount:  1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if bootstrapAdmin {
		u.Role = access.Admin
		u.IsActivated = true
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ad_guid"}},
			DoUpdates: clause.Assignments(map[string]any{
				"username":      id.Username,
				"display_name":  id.DisplayName,
				"last_login_at": now,
				"last_seen_at":  now,
				"updated_at":    now,
				"login_count":   gorm.Expr(models.UserTable + ".login_count + 1"),
			}),
		}).Create(&u).Error; err != nil {
			return err
		}
		return tx.First(&u, "ad_guid = ?", id.GUID).Error
	})
	if err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *Repo) TouchUserSeen(ctx context.Context, userID uint) error {
	return translate(r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", r.now()).Error, "user")
}

func (r *Repo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

type ListUsersResult struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

func (r *Repo) ListUsers(ctx context.Context, q string, page, size int) (ListUsersResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.User{})
	if q = strings.TrimSpace(q); q != "" {
		like := likePattern(q)
		tx = tx.Where("LOWER(username) LIKE ? ESCAPE '!' OR LOWER(display_name) LIKE ? ESCAPE '!'", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListUsersResult{}, translate(err, "users")
	}
	var users []models.User
	if err := tx.
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error; err != nil {
		return ListUsersResult{}, translate(err, "users")
	}
	return ListUsersResult{Users: users, Total: total}, nil
}

func (r *Repo) ListPendingUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).
		Where("is_activated = ?", false).
		Order("created_at ASC").
		Find(&users).Error
	return users, translate(err, "users")
}

// ActivateUser activates a user, optionally setting the rank in the same
// write.
func (r *Repo) ActivateUser(ctx context.Context, actor *access.Principal, id uint, role *access.Rank) (*models.User, error) {
	if err := access.Authorize(actor, access.Admin); err != nil {
		return nil, err
	}
	cols := map[string]any{"is_activated": true}
	if role != nil {
		if err := access.CheckRoleChange(actor, id, *role); err != nil {
			return nil, err
		}
		cols["role"] = *role
	}
	return r.updateUser(ctx, actor, id, cols, "user.activate")
}

func (r *Repo) SetUserRole(ctx context.Context, actor *access.Principal, id uint, role access.Rank) (*models.User, error) {
	if err := access.CheckRoleChange(actor, id, role); err != nil {
		return nil, err
	}
	return r.updateUser(ctx, actor, id, map[string]any{"role": role}, "user.role")
}

// DeactivateUser clears activation. The caller revokes live sessions.
func (r *Repo) DeactivateUser(ctx context.Context, actor *access.Principal, id uint) (*models.User, error) {
	if err := access.CheckDeactivation(actor, id); err != nil {
		return nil, err
	}
	return r.updateUser(ctx, actor, id, map[string]any{"is_activated": false}, "user.deactivate")
}

func (r *Repo) updateUser(ctx context.Context, actor *access.Principal, id uint, cols map[string]any, action string) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols["updated_at"] = r.now()
		res := tx.Model(&models.User{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return err
		}
		return writeAudit(tx, actor, action, "user", uintID(id), nil, r.now())
	})
	if err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}
