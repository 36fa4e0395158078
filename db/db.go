package db

import (
	"fmt"
	"time"

	"Gin_postgres_redis_inventory_tool/config"
	"Gin_postgres_redis_inventory_tool/logs"
	"Gin_postgres_redis_inventory_tool/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects with driver-error translation enabled, so unique
// violations surface as gorm.ErrDuplicatedKey on every backend.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch driver {
	case "postgres":
		dial = postgres.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return gorm.Open(dial, GormConfig())
}

func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(logs.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

func ConnectDB(cfg config.Database) *gorm.DB {
	var err error
	DB, err = Open(cfg.Driver, cfg.DSN)
	if err != nil {
		logs.Logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err = Migrate(DB); err != nil {
		logs.Logger.Fatalf("Failed to migrate models: %v", err)
	}
	logs.Logger.Infof("Database connected (%s)", cfg.Driver)
	return DB
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{}, &models.Status{}, &models.Location{},
		&models.NetworkEnvironment{}, &models.DepreciationPeriod{}, &models.IPAddress{},
		&models.Device{}, &models.ElectronicTest{},
		&models.Lending{}, &models.Reservation{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// one active lending per device
	if err := createPartialIndex(db,
		models.LendingTable+"_one_active_per_device",
		models.LendingTable, "device_id",
		fmt.Sprintf("status = '%s'", models.LendingActive)); err != nil {
		return err
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DefaultStatuses).Error
}

// createPartialIndex builds a filtered unique index. MySQL has none, so it
// gets a unique index over a generated column that is NULL outside the
// filter.
func createPartialIndex(db *gorm.DB, name, table, column, where string) error {
	if db.Dialector.Name() != "mysql" {
		return db.Exec(fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s) WHERE %s`,
			name, table, column, where)).Error
	}
	if db.Migrator().HasIndex(table, name) {
		return nil
	}
	gen := column + "_filtered"
	if !db.Migrator().HasColumn(table, gen) {
		if err := db.Exec(fmt.Sprintf(
			`ALTER TABLE %s ADD COLUMN %s BIGINT GENERATED ALWAYS AS (CASE WHEN %s THEN %s END) VIRTUAL`,
			table, gen, where, column)).Error; err != nil {
			return err
		}
	}
	return db.Exec(fmt.Sprintf(`CREATE UNIQUE INDEX %s ON %s (%s)`, name, table, gen)).Error
}
