package db

import (
	"context"
	"strings"

	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/models"

	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// DeviceQuery is the inventory list filter. Zero values mean "any".
type DeviceQuery struct {
	Q          string
	StatusID   *uint
	CategoryID *uint
	LocationID *uint
	AssignedTo string
	Page       int
	PageSize   int
	Sort       string
	Order      string
}

type DevicePage struct {
	Items    []models.Device `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

var deviceSortColumns = map[string]string{
	"lastEditAt":      "last_edit_at",
	"createdAt":       "created_at",
	"inventoryNumber": "inventory_number",
	"name":            "name",
}

// Normalize applies paging defaults and rejects unknown sort keys.
func (q *DeviceQuery) Normalize() error {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.Sort == "" {
		q.Sort = "lastEditAt"
	}
	if _, ok := deviceSortColumns[q.Sort]; !ok {
		return apperr.Invalidf("unknown sort key %q", q.Sort)
	}
	switch strings.ToLower(q.Order) {
	case "":
		q.Order = "desc"
	case "asc", "desc":
		q.Order = strings.ToLower(q.Order)
	default:
		return apperr.Invalidf("order must be asc or desc")
	}
	return nil
}

func (r *Repo) QueryDevices(ctx context.Context, q DeviceQuery) (*DevicePage, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}

	tx := r.DB.WithContext(ctx).Model(&models.Device{})
	if q.StatusID != nil {
		tx = tx.Where("status_id = ?", *q.StatusID)
	}
	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}
	if q.LocationID != nil {
		tx = tx.Where("location_id = ?", *q.LocationID)
	}
	if a := strings.TrimSpace(q.AssignedTo); a != "" {
		tx = tx.Where("LOWER(assigned_to) = ?", strings.ToLower(a))
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		like := likePattern(s)
		tx = tx.Where(
			"LOWER(inventory_number) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!' OR LOWER(COALESCE(serial_number, '')) LIKE ? ESCAPE '!' OR LOWER(manufacturer) LIKE ? ESCAPE '!' OR LOWER(model) LIKE ? ESCAPE '!'",
			like, like, like, like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, translate(err, "devices")
	}

	desc := q.Order == "desc"
	var items []models.Device
	if err := preloadDevice(tx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: deviceSortColumns[q.Sort]}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&items).Error; err != nil {
		return nil, translate(err, "devices")
	}
	return &DevicePage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}
