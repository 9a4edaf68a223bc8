package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/halcyonlabel/backend/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RenderRateLimit caps how many forced regenerations (?generated=...) a user
// may request per day. Privileged roles are exempt and redis errors let the
// request through. Must run after Auth.
func RenderRateLimit(redisClient *redis.Client, cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !QueryFlag(c, "generated") || cfg.RenderMaxPerDay <= 0 {
			c.Next()
			return
		}
		requester := CurrentRequester(c)
		if requester == nil || requester.Role.IsPrivileged() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		// resets at midnight
		now := time.Now()
		key := fmt.Sprintf("render_limit:%s:%s", requester.UserID, now.Format("2006-01-02"))

		count, err := redisClient.Get(ctx, key).Int()
		if err == redis.Nil {
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			if err := redisClient.Set(ctx, key, 1, midnight.Sub(now)).Err(); err != nil {
				log.Warn("render limiter failed to set key", zap.Error(err))
			}
			c.Next()
			return
		} else if err != nil {
			log.Warn("redis not available for render limiting", zap.Error(err))
			c.Next()
			return
		}

		if count >= cfg.RenderMaxPerDay {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "render_rate_limit_exceeded",
				"message":           "Too many generated documents today. Please try again tomorrow.",
				"retry_after_hours": int(ttl.Hours()),
			})
			return
		}

		redisClient.Incr(ctx, key)
		c.Next()
	}
}
