package models

import "time"

// AuditLog records who changed what. Written in the same transaction as
// the change it describes.
type AuditLog struct {
	ID            string    `gorm:"size:36;primaryKey" json:"id"`
	ActorID       uint      `gorm:"index;not null" json:"actorId"`
	ActorUsername string    `gorm:"size:255" json:"actorUsername"`
	Action        string    `gorm:"size:64;index;not null" json:"action"`
	TargetType    string    `gorm:"size:32;not null" json:"targetType"`
	TargetID      string    `gorm:"size:64;index;not null" json:"targetId"`
	Detail        *string   `json:"detail,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}

func (AuditLog) TableName() string { return "node_audit_log" }
