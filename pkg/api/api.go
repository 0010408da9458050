// Package api 将 HTTP 接口绑定到 gin 引擎.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filecodebox/pkg/internal/router"
	"github.com/yeisme/filecodebox/pkg/internal/storage"
)

// RegisterGroup 注册分享服务的全部路由到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine, mgr *storage.Manager) *gin.Engine {
	router.RegisterRoutes(e, mgr)

	return e
}
