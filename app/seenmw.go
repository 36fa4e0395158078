// app/seenmw.go
package app

import (
	"strconv"
	"time"

	"Gin_postgres_redis_inventory_tool/db"
	"Gin_postgres_redis_inventory_tool/logs"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen records activity at most once per throttle window per user.
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			c.Next()
			return
		}

		key := "inv:lastseen:" + strconv.FormatUint(uint64(p.UserID), 10)
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			if err := repo.TouchUserSeen(c, p.UserID); err != nil {
				logs.Logger.WithError(err).Warn("touch last seen")
			}
		}
		c.Next()
	}
}
