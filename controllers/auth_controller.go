package controllers

import (
	"net/http"

	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/logs"

	"github.com/gin-gonic/gin"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "username and password are required"})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := ac.Dir.Authenticate(ctx, in.Username, in.Password)
	if err != nil {
		fail(c, err)
		return
	}
	u, err := ac.Repo.ResolveOrProvisionUser(ctx, *id, ac.Admins.Contains(id.Username))
	if err != nil {
		fail(c, err)
		return
	}
	if err := ac.issueSession(ctx, c.Writer, u); err != nil {
		fail(c, err)
		return
	}
	logs.Logger.WithField("user", u.Username).WithField("activated", u.IsActivated).Info("login")
	c.JSON(http.StatusOK, app.H{"user": u, "maintenance": ac.Maintenance.Enabled()})
}

// POST /api/auth/logout always clears the cookie, even for a dead session.
func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.TokenCookie); err == nil && ck.Value != "" {
		ctx, cancel := reqCtx(c)
		defer cancel()
		if claims, err := ac.Tokens.Verify(ctx, ck.Value); err == nil {
			if err := ac.Tokens.Revoke(ctx, claims); err != nil {
				logs.Logger.WithError(err).Warn("logout: revoke session")
			}
		}
	}
	ac.clearTokenCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/auth/status
func (ac *AuthController) Status(c *gin.Context) {
	out := app.H{"authenticated": false, "maintenance": ac.Maintenance.Enabled()}
	ck, err := c.Request.Cookie(app.TokenCookie)
	if err != nil || ck.Value == "" {
		c.JSON(http.StatusOK, out)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	claims, err := ac.Tokens.Verify(ctx, ck.Value)
	if err != nil {
		c.JSON(http.StatusOK, out)
		return
	}
	uid, err := claims.UserID()
	if err != nil {
		c.JSON(http.StatusOK, out)
		return
	}
	u, err := ac.Repo.FindUserByID(ctx, uid)
	if err != nil {
		c.JSON(http.StatusOK, out)
		return
	}
	out["authenticated"] = true
	out["user"] = u
	out["expiresAt"] = claims.ExpiresAt.Time
	c.JSON(http.StatusOK, out)
}
