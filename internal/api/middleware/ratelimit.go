package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api/handler/v1/response"
)

var errRateLimited = errors.New("too many requests, try again later")

// RateLimitByIP allows limit requests per client IP within a sliding window.
// When Redis is unavailable requests are let through.
func RateLimitByIP(rdb *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if rdb == nil || limit <= 0 {
			ctx.Next()
			return
		}

		reqCtx := ctx.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", scope, ctx.ClientIP())
		now := time.Now()
		windowStart := now.Add(-window).UnixMilli()

		pipe := rdb.Pipeline()
		pipe.ZRemRangeByScore(reqCtx, key, "0", strconv.FormatInt(windowStart, 10))
		countCmd := pipe.ZCount(reqCtx, key, strconv.FormatInt(windowStart, 10), "+inf")
		pipe.ZAdd(reqCtx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		pipe.Expire(reqCtx, key, window+10*time.Second)

		if _, err := pipe.Exec(reqCtx); err != nil {
			zap.L().Warn("rate limit check failed", zap.String("scope", scope), zap.Error(err))
			ctx.Next()

			return
		}

		if countCmd.Val() >= int64(limit) {
			zap.L().Warn("rate limit exceeded", zap.String("scope", scope), zap.String("client_ip", ctx.ClientIP()))
			response.RenderErr(ctx, response.ErrTooManyRequests(errRateLimited))
			ctx.Abort()

			return
		}

		ctx.Next()
	}
}
