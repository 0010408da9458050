package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/filecodebox/pkg/configs"
	"github.com/yeisme/filecodebox/pkg/internal/storage"
	"github.com/yeisme/filecodebox/pkg/internal/storage/kv"
	"github.com/yeisme/filecodebox/pkg/log"
	"github.com/yeisme/filecodebox/pkg/metrics"
)

// 限流操作维度.
const (
	RateLimitOpShare    = "share"
	RateLimitOpRetrieve = "retrieve"
)

// RateLimitMiddleware 基于 KV 的滑动窗口桶限流.
//
// 计数键为 ratelimit:{操作}:{调用方}:{窗口桶}，窗口桶为 floor(unix/窗口秒)；
// 计数器带 窗口+宽限 的 TTL，由 KV 自行回收. KV 访问失败时放行，
// 限流器永远不阻断主流程.
func RateLimitMiddleware(mgr *storage.Manager, operation string, cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	var op configs.RateLimitOp

	switch operation {
	case RateLimitOpShare:
		op = cfg.Share
	case RateLimitOpRetrieve:
		op = cfg.Retrieve
	}

	if op.Limit <= 0 || op.WindowSeconds <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	ttl := time.Duration(op.WindowSeconds+cfg.GraceSeconds) * time.Second

	return func(c *gin.Context) {
		kvc := mgr.GetKVClient()
		if kvc == nil {
			c.Next()

			return
		}

		ctx := c.Request.Context()
		who := callerIdentity(c)
		bucket := time.Now().Unix() / int64(op.WindowSeconds)
		key := fmt.Sprintf("ratelimit:%s:%s:%d", operation, who, bucket)

		current := 0

		raw, err := kvc.Get(ctx, key)

		switch {
		case err == nil && len(raw) > 0:
			if n, perr := strconv.Atoi(string(raw)); perr == nil {
				current = n
			}
		case err != nil && !errors.Is(err, kv.ErrKeyNotFound):
			// 读失败时放行，但后端故障要在日志里可见
			log.Logger().Warn().Err(err).Str("key", key).Msg("rate limit counter read failed")
		}

		if current >= op.Limit {
			metrics.RateLimited.WithLabelValues(operation).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"code": http.StatusTooManyRequests, "detail": "请求过于频繁，请稍后再试"})

			return
		}

		if err := kvc.Set(ctx, key, []byte(strconv.Itoa(current+1)), ttl); err != nil {
			// 失败时放行
			log.Logger().Warn().Err(err).Str("key", key).Msg("rate limit counter update failed")
		}

		c.Next()
	}
}

// GlobalRateLimitMiddleware 进程内全局限流兜底，GlobalRPS<=0 时关闭.
func GlobalRateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.GlobalRPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	burst := cfg.GlobalBurst
	if burst <= 0 {
		burst = int(cfg.GlobalRPS)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.GlobalRPS), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			metrics.RateLimited.WithLabelValues("global").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"code": http.StatusTooManyRequests, "detail": "请求过于频繁，请稍后再试"})

			return
		}

		c.Next()
	}
}

// callerIdentity 解析调用方身份：优先代理注入的来源头，其次客户端 IP.
func callerIdentity(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); v != "" {
		return v
	}

	if v := strings.TrimSpace(c.GetHeader("X-Forwarded-For")); v != "" {
		// 多级代理时取第一跳
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = strings.TrimSpace(v[:i])
		}

		if v != "" {
			return v
		}
	}

	if ip := clientIP(c); ip != "" {
		return ip
	}

	return configs.DefaultRateLimitUnknownCaller
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}
