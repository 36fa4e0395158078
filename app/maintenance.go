package app

import (
	"net/http"
	"strings"
	"sync/atomic"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/logs"

	"github.com/gin-gonic/gin"
)

const MaintenancePath = "/api/admin/maintenance"

// Maintenance is the process-wide maintenance switch. It starts off.
type Maintenance struct{ on atomic.Bool }

func NewMaintenance() *Maintenance { return &Maintenance{} }

func (m *Maintenance) Enabled() bool { return m.on.Load() }

func (m *Maintenance) Set(on bool, by string) {
	if m.on.Swap(on) != on {
		logs.Logger.WithField("by", by).Infof("maintenance mode set to %v", on)
	}
}

// MaintenanceGate answers 503 for authenticated traffic while maintenance
// is on. Reading the switch stays open, and admins can still flip it.
func MaintenanceGate(m *Maintenance) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			c.Next()
			return
		}
		path := c.FullPath()
		if path == MaintenancePath && c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if strings.HasPrefix(path, MaintenancePath+"/") && access.Authorize(CurrentPrincipal(c), access.Admin) == nil {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, H{"error": "service is in maintenance mode"})
	}
}
