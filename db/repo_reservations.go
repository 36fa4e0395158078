package db

import (
	"context"
	"time"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateReservation holds a device for [StartAt, EndAt). The device row is
// locked so two overlapping requests cannot both pass the overlap check.
func (r *Repo) CreateReservation(ctx context.Context, actor *access.Principal, deviceID uint, in models.ReservationInput) (*models.Reservation, error) {
	if err := access.Authorize(actor, access.Viewer); err != nil {
		return nil, err
	}
	now := r.now()
	if err := in.Validate(now); err != nil {
		return nil, err
	}
	start, end := in.StartAt.UTC(), in.EndAt.UTC()

	var res *models.Reservation
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&d, "id = ?", deviceID).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Reservation{}).
			Where("device_id = ? AND status = ? AND end_at > ?", deviceID, models.ReservationActive, now).
			Where("start_at < ? AND end_at > ?", end, start).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflictf("device is already reserved in that window")
		}
		res = &models.Reservation{
			ID:        uuid.NewString(),
			DeviceID:  deviceID,
			UserID:    actor.UserID,
			StartAt:   start,
			EndAt:     end,
			Status:    models.ReservationActive,
			Notes:     in.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(res).Error; err != nil {
			return err
		}
		return writeAudit(tx, actor, "reservation.create", "reservation", res.ID, nil, now)
	})
	if err != nil {
		return nil, translate(err, "device")
	}
	return res.WithExpiry(now), nil
}

// CancelReservation is open to the holder and to editors. Elapsed or
// already cancelled reservations cannot be cancelled.
func (r *Repo) CancelReservation(ctx context.Context, actor *access.Principal, id string) (*models.Reservation, error) {
	var out models.Reservation
	now := r.now()
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Reservation
		if err := tx.First(&cur, "id = ?", id).Error; err != nil {
			return err
		}
		if err := access.AuthorizeOwnerOr(actor, cur.UserID, access.Editor); err != nil {
			return err
		}
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ? AND end_at > ?", id, models.ReservationActive, now).
			Updates(map[string]any{
				"status":       models.ReservationCancelled,
				"cancelled_at": now,
				"cancelled_by": actor.UserID,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			reason := "reservation is already cancelled"
			if cur.Status == models.ReservationActive {
				reason = "reservation has already ended"
			}
			return apperr.Wrap(apperr.Conflict, ErrInvalidTransition, reason)
		}
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		return writeAudit(tx, actor, "reservation.cancel", "reservation", id, nil, now)
	})
	if err != nil {
		return nil, translate(err, "reservation")
	}
	return out.WithExpiry(now), nil
}

type ReservationFilter struct {
	UserID   *uint
	DeviceID *uint
	// Current limits the list to active, unexpired reservations.
	Current bool
}

func (r *Repo) ListReservations(ctx context.Context, f ReservationFilter) ([]models.Reservation, error) {
	now := r.now()
	q := r.DB.WithContext(ctx).Preload("Device").Preload("User").Order("start_at DESC").Order("id DESC")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.DeviceID != nil {
		q = q.Where("device_id = ?", *f.DeviceID)
	}
	if f.Current {
		q = q.Where("status = ? AND end_at > ?", models.ReservationActive, now)
	}
	var out []models.Reservation
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "reservations")
	}
	return withExpiry(out, now), nil
}

func (r *Repo) FindReservation(ctx context.Context, actor *access.Principal, id string) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.DB.WithContext(ctx).Preload("Device").Preload("User").First(&res, "id = ?", id).Error; err != nil {
		return nil, translate(err, "reservation")
	}
	if err := access.AuthorizeOwnerOr(actor, res.UserID, access.Editor); err != nil {
		return nil, err
	}
	return res.WithExpiry(r.now()), nil
}

func withExpiry(rs []models.Reservation, now time.Time) []models.Reservation {
	for i := range rs {
		rs[i].WithExpiry(now)
	}
	return rs
}
