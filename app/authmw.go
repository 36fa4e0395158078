package app

import (
	"net/http"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/db"
	"Gin_postgres_redis_inventory_tool/models"
	"Gin_postgres_redis_inventory_tool/session"

	"github.com/gin-gonic/gin"
)

const (
	TokenCookie = "token"

	ctxPrincipal = "principal"
	ctxUser      = "user"
)

// Abort ends the request with the status and public message of err.
func Abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.KindOf(err).Status(), H{"error": apperr.Public(err)})
}

// AuthRequired verifies the token cookie and loads the caller from the
// database on every request, so role and activation changes apply at once.
func AuthRequired(v session.Verifier, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(TokenCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		claims, err := v.Verify(c.Request.Context(), ck.Value)
		if err != nil {
			Abort(c, err)
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			Abort(c, err)
			return
		}
		u, err := repo.FindUserByID(c.Request.Context(), uid)
		if err != nil {
			if apperr.Is(err, apperr.NotFound) {
				err = apperr.New(apperr.Unauthenticated, "unauthorized")
			}
			Abort(c, err)
			return
		}
		c.Set(ctxUser, u)
		c.Set(ctxPrincipal, u.Principal())
		c.Next()
	}
}

// RequireActivated lets only activated accounts through.
func RequireActivated() gin.HandlerFunc {
	return RequireRank(access.Viewer)
}

func RequireRank(min access.Rank) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.Authorize(CurrentPrincipal(c), min); err != nil {
			Abort(c, err)
			return
		}
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) *access.Principal {
	if v, ok := c.Get(ctxPrincipal); ok {
		if p, ok := v.(*access.Principal); ok {
			return p
		}
	}
	return nil
}

func CurrentUser(c *gin.Context) (*models.User, error) {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u, nil
		}
	}
	return nil, apperr.New(apperr.Unauthenticated, "unauthorized")
}
