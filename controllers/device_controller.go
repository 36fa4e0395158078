package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/db"
	"Gin_postgres_redis_inventory_tool/models"

	"github.com/gin-gonic/gin"
)

type DeviceController struct{ *Srv }

func NewDeviceController(s *Srv) *DeviceController { return &DeviceController{Srv: s} }

func parseDeviceQuery(c *gin.Context) (db.DeviceQuery, error) {
	q := db.DeviceQuery{
		Q:          c.Query("q"),
		AssignedTo: c.Query("assignedTo"),
		Sort:       c.Query("sort"),
		Order:      c.Query("order"),
	}
	var err error
	if q.StatusID, err = optUintQuery(c, "statusId"); err != nil {
		return q, err
	}
	if q.CategoryID, err = optUintQuery(c, "categoryId"); err != nil {
		return q, err
	}
	if q.LocationID, err = optUintQuery(c, "locationId"); err != nil {
		return q, err
	}
	if q.Page, err = intQuery(c, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intQuery(c, "pageSize"); err != nil {
		return q, err
	}
	return q, nil
}

// GET /api/devices?q=&statusId=&categoryId=&locationId=&assignedTo=&page=&pageSize=&sort=&order=
func (dc *DeviceController) List(c *gin.Context) {
	q, err := parseDeviceQuery(c)
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	page, err := dc.Repo.QueryDevices(ctx, q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/devices/:id
func (dc *DeviceController) Get(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := dc.Repo.GetDeviceDetail(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /api/devices
func (dc *DeviceController) Create(c *gin.Context) {
	var in models.DeviceInput
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := dc.Repo.CreateDevice(ctx, app.CurrentPrincipal(c), &in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// PATCH /api/devices/:id
func (dc *DeviceController) Update(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var patch models.DevicePatch
	if err := decodePatch(c, &patch); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	d, err := dc.Repo.UpdateDevice(ctx, app.CurrentPrincipal(c), id, &patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DELETE /api/devices/:id
func (dc *DeviceController) Delete(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := dc.Repo.DeleteDevice(ctx, app.CurrentPrincipal(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/devices/:id/electronic-tests
func (dc *DeviceController) ElectronicTests(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ts, err := dc.Repo.ElectronicTests(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": ts})
}

// POST /api/devices/:id/electronic-tests
func (dc *DeviceController) AddElectronicTest(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var in models.ElectronicTestInput
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := dc.Repo.AddElectronicTest(ctx, app.CurrentPrincipal(c), id, &in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}
