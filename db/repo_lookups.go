package db

import (
	"context"
	"strings"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/models"

	"gorm.io/gorm"
)

func listAll[T any](ctx context.Context, db *gorm.DB, order, what string) ([]T, error) {
	var out []T
	if err := db.WithContext(ctx).Order(order).Find(&out).Error; err != nil {
		return nil, translate(err, what)
	}
	return out, nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	return listAll[models.Category](ctx, r.DB, "name ASC", "categories")
}

func (r *Repo) ListStatuses(ctx context.Context) ([]models.Status, error) {
	return listAll[models.Status](ctx, r.DB, "id ASC", "statuses")
}

func (r *Repo) ListLocations(ctx context.Context) ([]models.Location, error) {
	return listAll[models.Location](ctx, r.DB, "city ASC, address ASC", "locations")
}

func (r *Repo) ListNetworkEnvironments(ctx context.Context) ([]models.NetworkEnvironment, error) {
	return listAll[models.NetworkEnvironment](ctx, r.DB, "name ASC", "network environments")
}

func (r *Repo) ListDepreciationPeriods(ctx context.Context) ([]models.DepreciationPeriod, error) {
	return listAll[models.DepreciationPeriod](ctx, r.DB, "scale ASC, time ASC", "depreciation periods")
}

func (r *Repo) ListIPAddresses(ctx context.Context) ([]models.IPAddress, error) {
	return listAll[models.IPAddress](ctx, r.DB, "id ASC", "ip addresses")
}

func (r *Repo) createLookup(ctx context.Context, actor *access.Principal, v any, kind string, id func() uint) error {
	if err := access.Authorize(actor, access.Admin); err != nil {
		return err
	}
	return translate(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		return writeAudit(tx, actor, kind+".create", kind, uintID(id()), nil, r.now())
	}), kind)
}

func (r *Repo) CreateCategory(ctx context.Context, actor *access.Principal, c *models.Category) error {
	c.Name, c.Description = strings.TrimSpace(c.Name), strings.TrimSpace(c.Description)
	if err := models.Check(c); err != nil {
		return err
	}
	c.ID = 0
	return r.createLookup(ctx, actor, c, "category", func() uint { return c.ID })
}

func (r *Repo) CreateLocation(ctx context.Context, actor *access.Principal, l *models.Location) error {
	l.City, l.Address = strings.TrimSpace(l.City), strings.TrimSpace(l.Address)
	if err := models.Check(l); err != nil {
		return err
	}
	l.ID = 0
	return r.createLookup(ctx, actor, l, "location", func() uint { return l.ID })
}

func (r *Repo) CreateNetworkEnvironment(ctx context.Context, actor *access.Principal, n *models.NetworkEnvironment) error {
	n.Name = strings.TrimSpace(n.Name)
	if err := models.Check(n); err != nil {
		return err
	}
	n.ID = 0
	return r.createLookup(ctx, actor, n, "network environment", func() uint { return n.ID })
}

func (r *Repo) CreateDepreciationPeriod(ctx context.Context, actor *access.Principal, p *models.DepreciationPeriod) error {
	if err := models.Check(p); err != nil {
		return err
	}
	p.ID = 0
	return r.createLookup(ctx, actor, p, "depreciation period", func() uint { return p.ID })
}

func (r *Repo) CreateIPAddress(ctx context.Context, actor *access.Principal, a *models.IPAddress) error {
	for i, ip := range a.StaticIPs {
		a.StaticIPs[i] = strings.TrimSpace(ip)
	}
	if err := models.Check(a); err != nil {
		return err
	}
	a.ID = 0
	return r.createLookup(ctx, actor, a, "ip address", func() uint { return a.ID })
}

// lookupTables maps device reference columns to the table they point at.
var lookupTables = []struct {
	field string
	model any
	id    func(models.DeviceRefs) *uint
}{
	{"categoryId", &models.Category{}, func(r models.DeviceRefs) *uint { return r.CategoryID }},
	{"statusId", &models.Status{}, func(r models.DeviceRefs) *uint { return r.StatusID }},
	{"locationId", &models.Location{}, func(r models.DeviceRefs) *uint { return r.LocationID }},
	{"networkEnvironmentId", &models.NetworkEnvironment{}, func(r models.DeviceRefs) *uint { return r.NetworkEnvironmentID }},
	{"depreciationPeriodId", &models.DepreciationPeriod{}, func(r models.DeviceRefs) *uint { return r.DepreciationPeriodID }},
	{"ipAddressId", &models.IPAddress{}, func(r models.DeviceRefs) *uint { return r.IPAddressID }},
}

// checkRefs rejects references to lookup rows that do not exist.
func checkRefs(tx *gorm.DB, refs models.DeviceRefs) error {
	for _, l := range lookupTables {
		id := l.id(refs)
		if id == nil {
			continue
		}
		var n int64
		if err := tx.Model(l.model).Where("id = ?", *id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.Invalidf("unknown %s %d", l.field, *id)
		}
	}
	return nil
}
