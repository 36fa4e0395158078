package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func uintID(id uint) string { return strconv.FormatUint(uint64(id), 10) }

// writeAudit appends an audit row inside the caller's transaction.
func writeAudit(tx *gorm.DB, actor *access.Principal, action, targetType, targetID string, detail *string, at time.Time) error {
	// v7 ids sort by creation, so id breaks created_at ties in insert order
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("audit id: %w", err)
	}
	entry := &models.AuditLog{
		ID:         id.String(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  at,
	}
	if actor != nil {
		entry.ActorID = actor.UserID
		entry.ActorUsername = actor.Username
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (r *Repo) ListAuditLog(ctx context.Context, targetType, targetID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.DB.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit)
	if targetType != "" {
		q = q.Where("target_type = ?", targetType)
	}
	if targetID != "" {
		q = q.Where("target_id = ?", targetID)
	}
	var out []models.AuditLog
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "audit log")
	}
	return out, nil
}
