// controllers/srv.go
package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/db"
	"Gin_postgres_redis_inventory_tool/directory"
	"Gin_postgres_redis_inventory_tool/logs"
	"Gin_postgres_redis_inventory_tool/models"
	"Gin_postgres_redis_inventory_tool/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	repoTimeout = 3 * time.Second
	maxBody     = 1 << 20
)

type Srv struct {
	Repo         *db.Repo
	Dir          directory.Directory
	Tokens       *session.Tokens
	Maintenance  *app.Maintenance
	Admins       app.BootstrapAdmins
	SecureCookie bool
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:         a.Repo,
		Dir:          a.Directory,
		Tokens:       a.Tokens,
		Maintenance:  a.Maintenance,
		Admins:       a.Admins,
		SecureCookie: a.Config.Cookie.Secure,
	}
}

// --- helpers ---

func (s *Srv) setTokenCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.SecureCookie,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.SecureCookie,
	})
}

// issueSession registers a new session and sets its cookie.
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, u *models.User) error {
	token, _, err := s.Tokens.Issue(ctx, u.ID, u.Role)
	if err != nil {
		return err
	}
	s.setTokenCookie(w, token, s.Tokens.TTL())
	return nil
}

func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), repoTimeout)
}

// fail replies with the status of err. Upstream causes are logged, never
// sent to the client.
func fail(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		err = models.BindError(err)
	}
	kind := apperr.KindOf(err)
	if kind != apperr.Upstream {
		c.JSON(kind.Status(), app.H{"error": apperr.Public(err)})
		return
	}
	entry := logs.Logger.WithError(err).WithFields(logrus.Fields{
		"reqid":  app.GetRequestID(c),
		"method": c.Request.Method,
		"path":   c.FullPath(),
	})
	if p := app.CurrentPrincipal(c); p != nil {
		entry = entry.WithFields(logrus.Fields{"user": p.Username, "uid": p.UserID})
	}
	entry.Error("request failed")
	c.JSON(http.StatusInternalServerError, app.H{"error": "internal error", "requestId": app.GetRequestID(c)})
}

func uintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Invalidf("invalid %s", name)
	}
	return uint(v), nil
}

func optUintQuery(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperr.Invalidf("invalid %s", name)
	}
	u := uint(v)
	return &u, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalidf("invalid %s", name)
	}
	return v, nil
}

// bindJSON binds and validates a required JSON body.
func bindJSON(c *gin.Context, v any) error {
	if c.Request.Body == nil {
		c.Request.Body = http.NoBody
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
	return models.BindError(c.ShouldBindJSON(v))
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, v any) error {
	if c.Request.Body == nil {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err != nil {
		return apperr.Invalidf("unreadable request body")
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	return models.BindError(binding.JSON.BindBody(b, v))
}

// decodePatch reads a PATCH body, whose fields validate themselves in
// DevicePatch.Columns.
func decodePatch(c *gin.Context, v any) error {
	if c.Request.Body == nil {
		return models.DecodeStrict(http.NoBody, v)
	}
	return models.DecodeStrict(io.LimitReader(c.Request.Body, maxBody), v)
}
