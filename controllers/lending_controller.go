package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/db"
	"Gin_postgres_redis_inventory_tool/models"

	"github.com/gin-gonic/gin"
)

type LendingController struct{ *Srv }

func NewLendingController(s *Srv) *LendingController { return &LendingController{Srv: s} }

func (lc *LendingController) list(c *gin.Context, f db.LendingFilter) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ls, err := lc.Repo.ListLendings(ctx, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": ls})
}

// GET /api/lendings?status=&userId=&deviceId=
func (lc *LendingController) List(c *gin.Context) {
	f := db.LendingFilter{Status: models.LendingStatus(c.Query("status"))}
	var err error
	if f.UserID, err = optUintQuery(c, "userId"); err != nil {
		fail(c, err)
		return
	}
	if f.DeviceID, err = optUintQuery(c, "deviceId"); err != nil {
		fail(c, err)
		return
	}
	lc.list(c, f)
}

// GET /api/lendings/mine
func (lc *LendingController) Mine(c *gin.Context) {
	p := app.CurrentPrincipal(c)
	lc.list(c, db.LendingFilter{UserID: &p.UserID, Status: models.LendingStatus(c.Query("status"))})
}

// GET /api/lendings/pending
func (lc *LendingController) Pending(c *gin.Context) {
	lc.list(c, db.LendingFilter{Status: models.LendingPending})
}

// GET /api/lendings/:id
func (lc *LendingController) Get(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := lc.Repo.FindLending(ctx, app.CurrentPrincipal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// POST /api/lendings/:deviceId
func (lc *LendingController) Request(c *gin.Context) {
	deviceID, err := uintParam(c, "deviceId")
	if err != nil {
		fail(c, err)
		return
	}
	var in models.LendingInput
	if err := bindOptional(c, &in); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := lc.Repo.RequestLending(ctx, app.CurrentPrincipal(c), deviceID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// PUT /api/lendings/:action/:id
func (lc *LendingController) Transition(c *gin.Context) {
	action, ok := models.ParseLendingAction(c.Param("action"))
	if !ok {
		fail(c, apperr.NotFoundf("unknown lending action %q", c.Param("action")))
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	l, err := lc.Repo.TransitionLending(ctx, app.CurrentPrincipal(c), c.Param("id"), action)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (lc *LendingController) byAvailability(c *gin.Context, available bool) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := lc.Repo.ListDevicesByAvailability(ctx, available)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// GET /api/lendings/available lists the devices free to borrow right now.
func (lc *LendingController) Available(c *gin.Context) { lc.byAvailability(c, true) }

// GET /api/lendings/unavailable
func (lc *LendingController) Unavailable(c *gin.Context) { lc.byAvailability(c, false) }
