package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func preloadDevice(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Category").Preload("Status").Preload("Location").
		Preload("NetworkEnvironment").Preload("DepreciationPeriod").Preload("IPAddress")
}

// deviceErr names the unique inventory number on duplicate keys and
// leaves every other error, domain conflicts included, to translate.
func deviceErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.Conflict, err, "inventory number already exists")
	}
	return translate(err, "device")
}

func (r *Repo) CreateDevice(ctx context.Context, actor *access.Principal, in *models.DeviceInput) (*models.Device, error) {
	if err := access.Authorize(actor, access.Editor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var d *models.Device
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, in.Refs()); err != nil {
			return err
		}
		d = in.ToDevice(actor.UserID, r.now())
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		return writeAudit(tx, actor, "device.create", "device", uintID(d.ID), &d.InventoryNumber, d.CreatedAt)
	})
	if err != nil {
		return nil, deviceErr(err)
	}
	return r.FindDeviceByID(ctx, d.ID)
}

// UpdateDevice applies a partial update. Absent fields are untouched and
// the edit stamps are always refreshed.
func (r *Repo) UpdateDevice(ctx context.Context, actor *access.Principal, id uint, patch *models.DevicePatch) (*models.Device, error) {
	if err := access.Authorize(actor, access.Editor); err != nil {
		return nil, err
	}
	cols, err := patch.Columns()
	if err != nil {
		return nil, err
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deviceExists(tx, id); err != nil {
			return err
		}
		if err := checkRefs(tx, patch.Refs()); err != nil {
			return err
		}
		now := r.now()
		cols["last_edit_by"] = actor.UserID
		cols["last_edit_at"] = now
		res := tx.Model(&models.Device{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		detail := fmt.Sprintf("%d fields", len(cols)-2)
		return writeAudit(tx, actor, "device.update", "device", uintID(id), &detail, now)
	})
	if err != nil {
		return nil, deviceErr(err)
	}
	return r.FindDeviceByID(ctx, id)
}

// DeleteDevice removes a device with its closed history. It is refused
// while a lending is pending or active or an unexpired reservation holds it.
func (r *Repo) DeleteDevice(ctx context.Context, actor *access.Principal, id uint) error {
	if err := access.Authorize(actor, access.Admin); err != nil {
		return err
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "inventory_number").First(&d, "id = ?", id).Error; err != nil {
			return err
		}
		now := r.now()

		var open int64
		if err := tx.Model(&models.Lending{}).
			Where("device_id = ? AND status IN ?", id, models.OpenLendingStatuses()).
			Count(&open).Error; err != nil {
			return err
		}
		var held int64
		if err := tx.Model(&models.Reservation{}).
			Where("device_id = ? AND status = ? AND end_at > ?", id, models.ReservationActive, now).
			Count(&held).Error; err != nil {
			return err
		}
		if open > 0 || held > 0 {
			return apperr.Conflictf("device has %d open lendings and %d active reservations", open, held)
		}

		for _, child := range []any{&models.ElectronicTest{}, &models.Lending{}, &models.Reservation{}} {
			if err := tx.Where("device_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Device{}, id).Error; err != nil {
			return err
		}
		return writeAudit(tx, actor, "device.delete", "device", uintID(id), &d.InventoryNumber, now)
	})
	return deviceErr(err)
}

func (r *Repo) FindDeviceByID(ctx context.Context, id uint) (*models.Device, error) {
	var d models.Device
	if err := preloadDevice(r.DB.WithContext(ctx)).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err, "device")
	}
	return &d, nil
}

// GetDeviceDetail returns the device with its lookups, its active
// electronic test and the derived dates.
func (r *Repo) GetDeviceDetail(ctx context.Context, id uint) (*models.DeviceDetail, error) {
	d, err := r.FindDeviceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &models.DeviceDetail{Device: *d, DepreciationEnd: d.DepreciationEnd()}

	t, err := r.ActiveElectronicTest(ctx, id)
	if err != nil {
		return nil, err
	}
	if t != nil {
		out.ElectronicTest = t
		out.NextTestDue = t.NextDueAt
	}

	holds, err := r.loadHolds(r.DB.WithContext(ctx), []uint{id})
	if err != nil {
		return nil, translate(err, "device")
	}
	out.Availability = holds.availability(d, r.now())
	return out, nil
}

// ListDevicesByAvailability lists the devices whose derived availability
// is, or with available false is not, "available".
func (r *Repo) ListDevicesByAvailability(ctx context.Context, available bool) ([]models.DeviceDetail, error) {
	db := r.DB.WithContext(ctx)
	var devices []models.Device
	if err := preloadDevice(db).Order("inventory_number ASC").Order("id ASC").Find(&devices).Error; err != nil {
		return nil, translate(err, "devices")
	}
	ids := make([]uint, len(devices))
	for i := range devices {
		ids[i] = devices[i].ID
	}
	holds, err := r.loadHolds(db, ids)
	if err != nil {
		return nil, translate(err, "devices")
	}
	now := r.now()
	out := make([]models.DeviceDetail, 0, len(devices))
	for i := range devices {
		d := &devices[i]
		a := holds.availability(d, now)
		if (a == models.StatusAvailable) != available {
			continue
		}
		out = append(out, models.DeviceDetail{Device: *d, DepreciationEnd: d.DepreciationEnd(), Availability: a})
	}
	return out, nil
}

// deviceHolds is what currently keeps devices from being free: active
// lendings and the active reservations that have not ended yet.
type deviceHolds struct {
	lent     map[uint]bool
	reserved map[uint][]models.Reservation
}

func (r *Repo) loadHolds(db *gorm.DB, ids []uint) (*deviceHolds, error) {
	h := &deviceHolds{lent: map[uint]bool{}, reserved: map[uint][]models.Reservation{}}
	if len(ids) == 0 {
		return h, nil
	}
	var lent []uint
	if err := db.Model(&models.Lending{}).
		Where("device_id IN ? AND status = ?", ids, models.LendingActive).
		Pluck("device_id", &lent).Error; err != nil {
		return nil, err
	}
	for _, id := range lent {
		h.lent[id] = true
	}
	var res []models.Reservation
	if err := db.Where("device_id IN ? AND status = ? AND end_at > ?", ids, models.ReservationActive, r.now()).
		Find(&res).Error; err != nil {
		return nil, err
	}
	for _, rv := range res {
		h.reserved[rv.DeviceID] = append(h.reserved[rv.DeviceID], rv)
	}
	return h, nil
}

// availability derives a device's state: an active lending wins over a
// reservation covering now, which wins over the stored status.
func (h *deviceHolds) availability(d *models.Device, now time.Time) string {
	if h.lent[d.ID] {
		return models.StatusLent
	}
	for i := range h.reserved[d.ID] {
		if h.reserved[d.ID][i].Covers(now) {
			return models.StatusReserved
		}
	}
	if d.Status != nil {
		return d.Status.Name
	}
	return ""
}
