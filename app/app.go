package app

import (
	"context"
	"time"

	"Gin_postgres_redis_inventory_tool/config"
	"Gin_postgres_redis_inventory_tool/db"
	"Gin_postgres_redis_inventory_tool/directory"
	"Gin_postgres_redis_inventory_tool/logs"
	"Gin_postgres_redis_inventory_tool/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Ctx = gin.Context
type H = gin.H

// App aggregates the process-wide dependencies.
type App struct {
	Router      *gin.Engine
	DB          *gorm.DB
	RDB         *redis.Client
	Config      *config.Config
	Repo        *db.Repo
	Directory   directory.Directory
	Tokens      *session.Tokens
	Maintenance *Maintenance
	Admins      BootstrapAdmins
}

// New wires an App from already opened connections.
func New(cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, dir directory.Directory) *App {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(), gin.RecoveryWithWriter(logs.Logger.WriterLevel(logrus.ErrorLevel)))
	useCORS(r, cfg.Web.Origin)

	return &App{
		Router:      r,
		DB:          gdb,
		RDB:         rdb,
		Config:      cfg,
		Repo:        db.NewRepo(gdb),
		Directory:   dir,
		Tokens:      session.NewTokens(cfg.JWT.Secret, session.NewAppSessionStore(rdb, session.TokenTTL)),
		Maintenance: NewMaintenance(),
		Admins:      NewBootstrapAdmins(cfg.AdminUsernames()),
	}
}

func MustNew(cfg *config.Config) *App {
	gdb := db.ConnectDB(cfg.Database)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logs.Logger.Fatalf("redis: %v", err)
	}

	a := New(cfg, gdb, rdb, directory.NewLDAP(cfg.LDAP))
	a.Admins.Log()
	return a
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
