package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filecodebox/pkg/internal/service"
)

// RunCleanup 同步触发一轮过期清理，返回统计结果.
// Sweep 自身从不抛错，任何内部错误都体现在 errors 计数里.
func RunCleanup(c *gin.Context) {
	svc := service.NewCleanupService(c.Request.Context())
	result := svc.Sweep(c.Request.Context())
	c.JSON(http.StatusOK, result)
}
