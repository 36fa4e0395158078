package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/logs"

	"github.com/gin-gonic/gin"
)

type UserController struct{ *Srv }

func NewUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// GET /api/users/me works for accounts that are not activated yet.
func (uc *UserController) Me(c *gin.Context) {
	u, err := app.CurrentUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := access.AuthorizeSelfRead(app.CurrentPrincipal(c), u.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// GET /api/users?q=alice&page=1&size=20
func (uc *UserController) List(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := uc.Repo.ListUsers(ctx, q, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/users/pending
func (uc *UserController) Pending(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := uc.Repo.ListPendingUsers(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"users": users})
}

type roleRequest struct {
	Role *access.Rank `json:"role"`
}

type setRoleRequest struct {
	Role *access.Rank `json:"role" binding:"required"`
}

// PATCH /api/users/:id/activate with an optional {"role": n}
func (uc *UserController) Activate(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var in roleRequest
	if err := bindOptional(c, &in); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := uc.Repo.ActivateUser(ctx, app.CurrentPrincipal(c), id, in.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// PATCH /api/users/:id/role with {"role": n}
func (uc *UserController) SetRole(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var in setRoleRequest
	if err := bindJSON(c, &in); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := uc.Repo.SetUserRole(ctx, app.CurrentPrincipal(c), id, *in.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// PATCH /api/users/:id/deactivate also ends every session of the user.
func (uc *UserController) Deactivate(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := uc.Repo.DeactivateUser(ctx, app.CurrentPrincipal(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	// the account is already locked out by the per-request user load
	if err := uc.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
		logs.Logger.WithError(err).WithField("uid", u.ID).Warn("revoke sessions after deactivation")
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}
