package controllers

import (
	"context"
	"net/http"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/models"

	"github.com/gin-gonic/gin"
)

// LookupController serves the reference tables devices point at.
type LookupController struct{ *Srv }

func NewLookupController(s *Srv) *LookupController { return &LookupController{Srv: s} }

func list[T any](fn func(ctx context.Context) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := reqCtx(c)
		defer cancel()
		items, err := fn(ctx)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, app.H{"items": items})
	}
}

func create[T any](fn func(ctx context.Context, actor *access.Principal, v *T) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var v T
		if err := bindJSON(c, &v); err != nil {
			fail(c, err)
			return
		}
		ctx, cancel := reqCtx(c)
		defer cancel()
		if err := fn(ctx, app.CurrentPrincipal(c), &v); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, &v)
	}
}

func (lc *LookupController) ListCategories() gin.HandlerFunc { return list(lc.Repo.ListCategories) }
func (lc *LookupController) ListStatuses() gin.HandlerFunc   { return list(lc.Repo.ListStatuses) }
func (lc *LookupController) ListLocations() gin.HandlerFunc  { return list(lc.Repo.ListLocations) }
func (lc *LookupController) ListDepreciationPeriods() gin.HandlerFunc {
	return list(lc.Repo.ListDepreciationPeriods)
}
func (lc *LookupController) ListNetworkEnvironments() gin.HandlerFunc {
	return list(lc.Repo.ListNetworkEnvironments)
}

func (lc *LookupController) CreateCategory() gin.HandlerFunc {
	return create[models.Category](lc.Repo.CreateCategory)
}
func (lc *LookupController) CreateLocation() gin.HandlerFunc {
	return create[models.Location](lc.Repo.CreateLocation)
}
func (lc *LookupController) CreateDepreciationPeriod() gin.HandlerFunc {
	return create[models.DepreciationPeriod](lc.Repo.CreateDepreciationPeriod)
}
func (lc *LookupController) CreateNetworkEnvironment() gin.HandlerFunc {
	return create[models.NetworkEnvironment](lc.Repo.CreateNetworkEnvironment)
}

func (lc *LookupController) ListIPAddresses() gin.HandlerFunc { return list(lc.Repo.ListIPAddresses) }
func (lc *LookupController) CreateIPAddress() gin.HandlerFunc {
	return create[models.IPAddress](lc.Repo.CreateIPAddress)
}
