package db

import (
	"context"
	"errors"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestLending opens a pending lending for the caller.
func (r *Repo) RequestLending(ctx context.Context, actor *access.Principal, deviceID uint, in models.LendingInput) (*models.Lending, error) {
	if err := access.Authorize(actor, access.Viewer); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var l *models.Lending
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock the device so a concurrent delete cannot orphan the request
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&d, "id = ?", deviceID).Error; err != nil {
			return err
		}
		now := r.now()
		l = &models.Lending{
			ID:           uuid.NewString(),
			DeviceID:     deviceID,
			UserID:       actor.UserID,
			Status:       models.LendingPending,
			AusleihDatum: now,
			Notes:        in.Notes,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		return writeAudit(tx, actor, "lending.request", "lending", l.ID, nil, now)
	})
	if err != nil {
		return nil, translate(err, "device")
	}
	return l, nil
}

// TransitionLending applies one move of the lending state machine as a
// single conditional update on the expected source state.
func (r *Repo) TransitionLending(ctx context.Context, actor *access.Principal, id string, action models.LendingAction) (*models.Lending, error) {
	tr, ok := models.LendingTransitions[action]
	if !ok {
		return nil, apperr.Invalidf("unknown lending action %q", action)
	}
	if err := access.Authorize(actor, access.Viewer); err != nil {
		return nil, err
	}

	var out models.Lending
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Lending
		if err := tx.First(&cur, "id = ?", id).Error; err != nil {
			return err
		}
		if tr.RequesterOnly {
			if cur.UserID != actor.UserID {
				return apperr.Forbiddenf("only the requester can %s this lending", action)
			}
		} else if err := access.Authorize(actor, tr.MinRank); err != nil {
			return err
		}

		now := r.now()
		cols := map[string]any{"status": tr.To, "updated_at": now}
		q := tx.Model(&models.Lending{}).Where("id = ? AND status = ?", id, tr.From)
		switch action {
		case models.LendingAccept:
			cols["freigeschaltet"] = true
			cols["decided_by"] = actor.UserID
			cols["decided_at"] = now
		case models.LendingDecline:
			cols["decided_by"] = actor.UserID
			cols["decided_at"] = now
		case models.LendingCancel:
			q = q.Where("user_id = ? AND freigeschaltet = ?", actor.UserID, false)
		case models.LendingReturn:
			cols["rueckgabe"] = now
		}

		res := q.Updates(cols)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return apperr.Wrap(apperr.Conflict, ErrInvalidTransition, "device is already lent out")
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return rejectLending(tx, id, action)
		}
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		return writeAudit(tx, actor, "lending."+string(action), "lending", id, nil, now)
	})
	if err != nil {
		return nil, translate(err, "lending")
	}
	return &out, nil
}

// rejectLending re-reads the record after a failed conditional update to
// tell a vanished lending from one in the wrong state.
func rejectLending(tx *gorm.DB, id string, action models.LendingAction) error {
	var cur models.Lending
	if err := tx.Select("id", "status", "freigeschaltet").First(&cur, "id = ?", id).Error; err != nil {
		return err
	}
	if action == models.LendingCancel && cur.Freigeschaltet {
		return apperr.Wrap(apperr.Conflict, ErrInvalidTransition, "lending was already approved")
	}
	if cur.Status.Terminal() {
		return apperr.Wrap(apperr.Conflict, ErrInvalidTransition, "lending is already "+string(cur.Status))
	}
	return apperr.Wrap(apperr.Conflict, ErrInvalidTransition, "cannot "+string(action)+" a "+string(cur.Status)+" lending")
}

type LendingFilter struct {
	UserID   *uint
	DeviceID *uint
	Status   models.LendingStatus
}

func (r *Repo) ListLendings(ctx context.Context, f LendingFilter) ([]models.Lending, error) {
	q := r.DB.WithContext(ctx).Preload("Device").Preload("User").Order("ausleih_datum DESC").Order("id DESC")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.DeviceID != nil {
		q = q.Where("device_id = ?", *f.DeviceID)
	}
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, apperr.Invalidf("unknown lending status %q", f.Status)
		}
		q = q.Where("status = ?", f.Status)
	}
	var ls []models.Lending
	if err := q.Find(&ls).Error; err != nil {
		return nil, translate(err, "lendings")
	}
	return ls, nil
}

// FindLending returns a lending visible to actor: the requester or editor+.
func (r *Repo) FindLending(ctx context.Context, actor *access.Principal, id string) (*models.Lending, error) {
	var l models.Lending
	if err := r.DB.WithContext(ctx).Preload("Device").Preload("User").First(&l, "id = ?", id).Error; err != nil {
		return nil, translate(err, "lending")
	}
	if err := access.AuthorizeOwnerOr(actor, l.UserID, access.Editor); err != nil {
		return nil, err
	}
	return &l, nil
}
