package app

import (
	"time"

	"Gin_postgres_redis_inventory_tool/logs"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-Id"
	ctxRequestID    = "requestID"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set(ctxRequestID, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string { return c.GetString(ctxRequestID) }

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := logrus.Fields{
			"reqid":  GetRequestID(c),
			"method": c.Request.Method,
			"uri":    c.Request.RequestURI,
			"status": c.Writer.Status(),
			"bytes":  c.Writer.Size(),
			"dur":    time.Since(start).String(),
			"ip":     c.ClientIP(),
		}
		if p := CurrentPrincipal(c); p != nil {
			fields["user"] = p.Username
		}
		logs.Logger.WithFields(fields).Info("request")
	}
}
