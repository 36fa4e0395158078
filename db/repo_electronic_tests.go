package db

import (
	"context"
	"errors"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/models"

	"gorm.io/gorm"
)

// newest inspection first, undated entries last, newest insert breaks ties
const electronicTestOrder = "last_test IS NULL, last_test DESC, id DESC"

func activeElectronicTest(db *gorm.DB, deviceID uint) (*models.ElectronicTest, error) {
	var t models.ElectronicTest
	err := db.Where("device_id = ?", deviceID).Order(electronicTestOrder).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func deviceExists(db *gorm.DB, id uint) error {
	var n int64
	if err := db.Model(&models.Device{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) AddElectronicTest(ctx context.Context, actor *access.Principal, deviceID uint, in *models.ElectronicTestInput) (*models.ElectronicTest, error) {
	if err := access.Authorize(actor, access.Editor); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var t *models.ElectronicTest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deviceExists(tx, deviceID); err != nil {
			return err
		}
		t = in.ToTest(deviceID, actor.UserID, r.now())
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		detail := string(t.LastTestResult)
		return writeAudit(tx, actor, "electronic_test.create", "device", uintID(deviceID), &detail, t.CreatedAt)
	})
	if err != nil {
		return nil, translate(err, "device")
	}
	return t.WithNextDue(), nil
}

// ElectronicTests lists a device's history, active entry first.
func (r *Repo) ElectronicTests(ctx context.Context, deviceID uint) ([]models.ElectronicTest, error) {
	db := r.DB.WithContext(ctx)
	if err := deviceExists(db, deviceID); err != nil {
		return nil, translate(err, "device")
	}
	var out []models.ElectronicTest
	if err := db.Where("device_id = ?", deviceID).Order(electronicTestOrder).Find(&out).Error; err != nil {
		return nil, translate(err, "electronic tests")
	}
	for i := range out {
		out[i].WithNextDue()
	}
	return out, nil
}

func (r *Repo) ActiveElectronicTest(ctx context.Context, deviceID uint) (*models.ElectronicTest, error) {
	t, err := activeElectronicTest(r.DB.WithContext(ctx), deviceID)
	if err != nil {
		return nil, translate(err, "electronic test")
	}
	if t == nil {
		return nil, nil
	}
	return t.WithNextDue(), nil
}
