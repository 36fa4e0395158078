package models

import (
	"time"

	"Gin_postgres_redis_inventory_tool/apperr"
)

const ReservationTable = "node_reservations"

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation holds a device for a time window. An active reservation
// whose window has ended is reported as expired but never rewritten.
type Reservation struct {
	ID          string            `gorm:"size:36;primaryKey" json:"id"`
	DeviceID    uint              `gorm:"index;not null" json:"deviceId"`
	Device      *Device           `json:"device,omitempty"`
	UserID      uint              `gorm:"index;not null" json:"userId"`
	User        *User             `json:"user,omitempty"`
	StartAt     time.Time         `gorm:"index;not null" json:"startAt"`
	EndAt       time.Time         `gorm:"index;not null" json:"endAt"`
	Status      ReservationStatus `gorm:"size:12;index;not null" json:"status"`
	CancelledAt *time.Time        `json:"cancelledAt,omitempty"`
	CancelledBy *uint             `json:"cancelledBy,omitempty"`
	Notes       string            `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`

	Expired bool `gorm:"-" json:"expired"`
}

func (Reservation) TableName() string { return ReservationTable }

func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationActive && !r.EndAt.After(now)
}

// Covers reports whether the reservation is active and now lies in its window.
func (r *Reservation) Covers(now time.Time) bool {
	return r.Status == ReservationActive && !now.Before(r.StartAt) && now.Before(r.EndAt)
}

func (r *Reservation) WithExpiry(now time.Time) *Reservation {
	r.Expired = r.IsExpired(now)
	return r
}

type ReservationInput struct {
	StartAt time.Time `json:"startAt" binding:"required"`
	EndAt   time.Time `json:"endAt" binding:"required,gtfield=StartAt"`
	Notes   string    `json:"notes" binding:"max=500"`
}

func (in *ReservationInput) Validate(now time.Time) error {
	if err := Check(in); err != nil {
		return err
	}
	if !in.EndAt.After(now) {
		return apperr.Invalidf("reservation window is already over")
	}
	return nil
}
