package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory_tool/app"

	"github.com/gin-gonic/gin"
)

type AuditLogController struct{ *Srv }

func NewAuditLogController(s *Srv) *AuditLogController { return &AuditLogController{Srv: s} }

// GET /api/admin/audit?targetType=&targetId=&limit=
func (ac *AuditLogController) List(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	entries, err := ac.Repo.ListAuditLog(ctx, c.Query("targetType"), c.Query("targetId"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": entries})
}
