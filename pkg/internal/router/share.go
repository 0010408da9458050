package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filecodebox/pkg/configs"
	"github.com/yeisme/filecodebox/pkg/internal/handle"
	"github.com/yeisme/filecodebox/pkg/internal/storage"
	"github.com/yeisme/filecodebox/pkg/middleware"
)

// RegisterShareRoutes 注册分享相关路由.
// 上传与取件分别挂各自的滑动窗口限流；清理端点不限流，
// 由部署层决定是否对外暴露.
func RegisterShareRoutes(g *gin.RouterGroup, mgr *storage.Manager, cfg configs.RateLimitConfig) {
	shareLimit := middleware.RateLimitMiddleware(mgr, middleware.RateLimitOpShare, cfg)
	retrieveLimit := middleware.RateLimitMiddleware(mgr, middleware.RateLimitOpRetrieve, cfg)

	g.POST("/share", shareLimit, handle.CreateShare)         // 创建分享
	g.GET("/s/:code", retrieveLimit, handle.GetShare)        // 按码取件
	g.GET("/info/:code", retrieveLimit, handle.GetShareInfo) // 分享元信息
	g.GET("/cleanup", handle.RunCleanup)                     // 同步触发清理
}
