package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/db"
	"Gin_postgres_redis_inventory_tool/models"

	"github.com/gin-gonic/gin"
)

type ReservationController struct{ *Srv }

func NewReservationController(s *Srv) *ReservationController {
	return &ReservationController{Srv: s}
}

func (rc *ReservationController) list(c *gin.Context, f db.ReservationFilter) {
	f.Current = c.Query("current") == "true"
	ctx, cancel := reqCtx(c)
	defer cancel()
	rs, err := rc.Repo.ListReservations(ctx, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rs})
}

// GET /api/reservations?userId=&deviceId=&current=true
func (rc *ReservationController) List(c *gin.Context) {
	var f db.ReservationFilter
	var err error
	if f.UserID, err = optUintQuery(c, "userId"); err != nil {
		fail(c, err)
		return
	}
	if f.DeviceID, err = optUintQuery(c, "deviceId"); err != nil {
		fail(c, err)
		return
	}
	rc.list(c, f)
}

// GET /api/reservations/mine
func (rc *ReservationController) Mine(c *gin.Context) {
	p := app.CurrentPrincipal(c)
	rc.list(c, db.ReservationFilter{UserID: &p.UserID})
}

// GET /api/reservations/:id
func (rc *ReservationController) Get(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := rc.Repo.FindReservation(ctx, app.CurrentPrincipal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// POST /api/reservations/:deviceId
func (rc *ReservationController) Create(c *gin.Context) {
	deviceID, err := uintParam(c, "deviceId")
	if err != nil {
		fail(c, err)
		return
	}
	var in models.ReservationInput
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := rc.Repo.CreateReservation(ctx, app.CurrentPrincipal(c), deviceID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// PUT /api/reservations/cancel/:id
func (rc *ReservationController) Cancel(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := rc.Repo.CancelReservation(ctx, app.CurrentPrincipal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
