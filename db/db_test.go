package db

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *Repo
	db       *gorm.DB
	clock    time.Time
	admin    *access.Principal
	editor   *access.Principal
	viewer   *access.Principal
	other    *access.Principal
	category models.Category
	period   models.DepreciationPeriod
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return openFixture(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), 1)
}

// newContendedFixture runs on a WAL database file with a pool of
// connections, so transactions from different goroutines really overlap.
// _txlock=immediate takes the write lock at BEGIN, which is as close as
// sqlite gets to the row locks the server databases use.
func newContendedFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.db")
	return openFixture(t, "file:"+path+"?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", 8)
}

func openFixture(t *testing.T, dsn string, conns int) *fixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(dsn), GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: gdb, clock: testNow}
	f.repo = NewRepo(gdb)
	f.repo.Now = func() time.Time { return f.clock }

	f.admin = f.user(t, "admin", access.Admin)
	f.editor = f.user(t, "editor", access.Editor)
	f.viewer = f.user(t, "viewer", access.Viewer)
	f.other = f.user(t, "other", access.Viewer)

	f.category = models.Category{Name: "Laptop"}
	if err := gdb.Create(&f.category).Error; err != nil {
		t.Fatal(err)
	}
	f.period = models.DepreciationPeriod{Time: 3, Scale: "years"}
	if err := gdb.Create(&f.period).Error; err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) user(t *testing.T, name string, rank access.Rank) *access.Principal {
	t.Helper()
	u := models.User{
		ADGuid: "guid-" + name, Username: name, DisplayName: name,
		Role: rank, IsActivated: true, CreatedAt: testNow, UpdatedAt: testNow,
	}
	if err := f.db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u.Principal()
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) deviceInput(inv string) *models.DeviceInput {
	return &models.DeviceInput{
		InventoryNumber: ptr(inv),
		Name:            ptr("ThinkPad " + inv),
		CategoryID:      ptr(f.category.ID),
		StatusID:        ptr(uint(1)),
		Manufacturer:    "Lenovo",
		Model:           "T14",
	}
}

func (f *fixture) device(t *testing.T, inv string) *models.Device {
	t.Helper()
	d, err := f.repo.CreateDevice(t.Context(), f.editor, f.deviceInput(inv))
	if err != nil {
		t.Fatalf("CreateDevice(%s): %v", inv, err)
	}
	return d
}

func TestMigrateSeedsStatuses(t *testing.T) {
	f := newFixture(t)
	if err := Migrate(f.db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	st, err := f.repo.ListStatuses(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(st) != len(models.DefaultStatuses) || st[0].Name != models.StatusAvailable {
		t.Fatalf("statuses = %+v", st)
	}
}
