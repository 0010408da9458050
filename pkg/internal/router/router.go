// Package router 管理路由配置，将路径和处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filecodebox/pkg/configs"
	"github.com/yeisme/filecodebox/pkg/internal/storage"
)

// RegisterRoutes 注册全部业务路由.
func RegisterRoutes(r *gin.Engine, mgr *storage.Manager) {
	root := r.Group("/")

	cfg := configs.GetConfig().RateLimit

	RegisterShareRoutes(root, mgr, cfg)
	RegisterHealthCheckRoute(root)
	RegisterSchedulerRoutes(root)
}
