package models

import (
	"time"

	"Gin_postgres_redis_inventory_tool/access"
)

const UserTable = "node_users"

// User is the local record of a directory identity. ADGuid is the natural
// key; Role and IsActivated are only changed by admins.
type User struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	ADGuid      string      `gorm:"column:ad_guid;uniqueIndex;size:64;not null" json:"adGuid"`
	Username    string      `gorm:"size:255;not null;index" json:"username"`
	DisplayName string      `gorm:"size:255;not null" json:"displayName"`
	Role        access.Rank `gorm:"not null;default:0" json:"role"`
	IsActivated bool        `gorm:"not null;default:false" json:"isActivated"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLogin,omitempty"`
	LastSeenAt  *time.Time `json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return UserTable }

func (u *User) Principal() *access.Principal {
	return &access.Principal{
		UserID:    u.ID,
		Username:  u.Username,
		Rank:      u.Role,
		Activated: u.IsActivated,
	}
}
