package main

import (
	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/config"
	"Gin_postgres_redis_inventory_tool/logs"
	"Gin_postgres_redis_inventory_tool/routes"
)

func main() {
	config.LoadEnv()
	cfg := config.MustLoad()
	logs.Init(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	application := app.MustNew(cfg)
	defer application.Close()

	r := application.Router
	routes.RegisterRoutes(r, application)

	logs.Logger.Infof("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logs.Logger.Errorf("server stopped: %v", err)
	}
}
