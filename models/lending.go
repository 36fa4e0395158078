// models/lending.go
package models

import (
	"time"

	"Gin_postgres_redis_inventory_tool/access"
)

const LendingTable = "node_lendings"

type LendingStatus string

const (
	LendingPending   LendingStatus = "pending"
	LendingActive    LendingStatus = "active"
	LendingDeclined  LendingStatus = "declined"
	LendingCancelled LendingStatus = "cancelled"
	LendingReturned  LendingStatus = "returned"
)

var LendingStatuses = []LendingStatus{LendingPending, LendingActive, LendingDeclined, LendingCancelled, LendingReturned}

func (s LendingStatus) Valid() bool {
	for _, v := range LendingStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s LendingStatus) Terminal() bool {
	return s == LendingDeclined || s == LendingCancelled || s == LendingReturned
}

// OpenLendingStatuses are the states in which a lending still holds its device.
func OpenLendingStatuses() []LendingStatus {
	var open []LendingStatus
	for _, s := range LendingStatuses {
		if !s.Terminal() {
			open = append(open, s)
		}
	}
	return open
}

// Lending is a borrow request against one device.
// Rueckgabe is set iff Status == returned.
type Lending struct {
	ID             string        `gorm:"size:36;primaryKey" json:"id"`
	DeviceID       uint          `gorm:"index;not null" json:"deviceId"`
	Device         *Device       `json:"device,omitempty"`
	UserID         uint          `gorm:"index;not null" json:"userId"`
	User           *User         `json:"user,omitempty"`
	Status         LendingStatus `gorm:"size:12;index;not null" json:"status"`
	AusleihDatum   time.Time     `gorm:"index;not null" json:"ausleihDatum"`
	Rueckgabe      *time.Time    `json:"rueckgabe,omitempty"`
	Freigeschaltet bool          `gorm:"not null;default:false" json:"freigeschaltet"`
	DecidedBy      *uint         `json:"decidedBy,omitempty"`
	DecidedAt      *time.Time    `json:"decidedAt,omitempty"`
	Notes          string        `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func (Lending) TableName() string { return LendingTable }

type LendingAction string

const (
	LendingAccept  LendingAction = "accept"
	LendingDecline LendingAction = "decline"
	LendingCancel  LendingAction = "cancel"
	LendingReturn  LendingAction = "return"
)

// LendingTransition is one row of the lending state machine.
type LendingTransition struct {
	From LendingStatus
	To   LendingStatus
	// MinRank gates moderator actions; RequesterOnly replaces it for cancel.
	MinRank       access.Rank
	RequesterOnly bool
}

// LendingTransitions is the complete set of legal moves after request.
var LendingTransitions = map[LendingAction]LendingTransition{
	LendingAccept:  {From: LendingPending, To: LendingActive, MinRank: access.Editor},
	LendingDecline: {From: LendingPending, To: LendingDeclined, MinRank: access.Editor},
	LendingCancel:  {From: LendingPending, To: LendingCancelled, RequesterOnly: true},
	LendingReturn:  {From: LendingActive, To: LendingReturned, MinRank: access.Editor},
}

func ParseLendingAction(s string) (LendingAction, bool) {
	a := LendingAction(s)
	_, ok := LendingTransitions[a]
	return a, ok
}

type LendingInput struct {
	Notes string `json:"notes" binding:"max=500"`
}

func (in *LendingInput) Validate() error { return Check(in) }
