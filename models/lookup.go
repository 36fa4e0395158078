package models

import (
	"time"

	"Gin_postgres_redis_inventory_tool/calendar"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required,notblank,max=120"`
	Description string `gorm:"size:500" json:"description" binding:"max=500"`
}

// Status rows are seeded by the migration and form a fixed enumeration.
type Status struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:60;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
}

const (
	StatusAvailable   = "available"
	StatusAssigned    = "assigned"
	StatusReserved    = "reserved"
	StatusLent        = "lent"
	StatusMaintenance = "maintenance"
	StatusRetired     = "retired"
)

// DefaultStatuses is the enumeration seeded on migrate, in id order.
var DefaultStatuses = []Status{
	{ID: 1, Name: StatusAvailable, Description: "in stock and free to use"},
	{ID: 2, Name: StatusAssigned, Description: "permanently handed to a custodian"},
	{ID: 3, Name: StatusReserved, Description: "held for an upcoming reservation"},
	{ID: 4, Name: StatusLent, Description: "temporarily lent out"},
	{ID: 5, Name: StatusMaintenance, Description: "under repair or inspection"},
	{ID: 6, Name: StatusRetired, Description: "written off"},
}

type Location struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	City        string  `gorm:"size:120;not null" json:"city" binding:"required,notblank,max=120"`
	Address     string  `gorm:"size:255;not null" json:"address" binding:"required,notblank,max=255"`
	HouseNumber *string `gorm:"size:20" json:"houseNumber,omitempty" binding:"omitempty,max=20"`
	Room        *string `gorm:"size:60" json:"room,omitempty" binding:"omitempty,max=60"`
}

type NetworkEnvironment struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:120;uniqueIndex;not null" json:"name" binding:"required,notblank,max=120"`
}

// DepreciationPeriod is the amortisation length referenced by devices.
type DepreciationPeriod struct {
	ID    uint           `gorm:"primaryKey" json:"id"`
	Time  int            `gorm:"not null" json:"time" binding:"min=1"`
	Scale calendar.Scale `gorm:"size:10;not null" json:"scale" binding:"required,oneof=months years"`
}

func (p DepreciationPeriod) EndFrom(start time.Time) (time.Time, error) {
	return calendar.Add(start, p.Time, p.Scale)
}

type IPType string

const (
	IPStatic  IPType = "static"
	IPDynamic IPType = "dynamic"
)

// IPAddress is how a device is addressed on the network: a dynamic lease
// or a fixed list of static addresses.
type IPAddress struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	Type      IPType                      `gorm:"size:10;not null" json:"type" binding:"required,oneof=static dynamic"`
	StaticIPs datatypes.JSONSlice[string] `json:"staticIps" binding:"omitempty,dive,ip"`
}

// static addresses need at least one IP, dynamic ones none
func ipAddressRules(sl validator.StructLevel) {
	ip := sl.Current().Interface().(IPAddress)
	switch {
	case ip.Type == IPStatic && len(ip.StaticIPs) == 0:
		sl.ReportError(ip.StaticIPs, "staticIps", "StaticIPs", "required_if", "")
	case ip.Type == IPDynamic && len(ip.StaticIPs) > 0:
		sl.ReportError(ip.StaticIPs, "staticIps", "StaticIPs", "excluded_if", "")
	}
}
