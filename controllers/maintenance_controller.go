package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory_tool/app"

	"github.com/gin-gonic/gin"
)

type MaintenanceController struct{ *Srv }

func NewMaintenanceController(s *Srv) *MaintenanceController {
	return &MaintenanceController{Srv: s}
}

// GET /api/admin/maintenance
func (mc *MaintenanceController) Get(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"maintenance": mc.Maintenance.Enabled()})
}

// POST /api/admin/maintenance/:bool accepts 1|true|0|false.
func (mc *MaintenanceController) Set(c *gin.Context) {
	var on bool
	switch c.Param("bool") {
	case "1", "true":
		on = true
	case "0", "false":
		on = false
	default:
		c.JSON(http.StatusBadRequest, app.H{"error": "expected 1, true, 0 or false"})
		return
	}
	mc.Maintenance.Set(on, app.CurrentPrincipal(c).Username)
	c.JSON(http.StatusOK, app.H{"maintenance": on})
}
