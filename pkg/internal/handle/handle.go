// Package handle 提供HTTP请求处理器的实现.
package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filecodebox/pkg/internal/service"
)

// respondData 成功响应的统一信封 {code:0, data:...}.
func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": data})
}

// respondError 将业务错误映射为 {code:<status>, detail:<message>}.
// 内部错误细节只进日志，不透出给调用方.
func respondError(c *gin.Context, err error) {
	status := service.HTTPStatus(err)
	c.JSON(status, gin.H{"code": status, "detail": safeDetail(status)})
}

func safeDetail(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusNotFound:
		return "share not found or expired"
	case http.StatusRequestEntityTooLarge:
		return "payload too large"
	case http.StatusTooManyRequests:
		return "请求过于频繁，请稍后再试"
	default:
		return "internal server error"
	}
}

// validCode 校验取件码格式，等价于 ^\d{N}$.
func validCode(code string, length int) bool {
	if length <= 0 || len(code) != length {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}
