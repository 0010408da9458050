package service

import (
	"errors"
	"net/http"
)

// 业务错误哨兵. handler 通过 HTTPStatus 映射为响应状态码，
// 内部细节只进日志，不透出给调用方.
var (
	// ErrValidation 请求格式或内容不合法.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound 取件码不存在或已过期，或引用的文件缺失.
	ErrNotFound = errors.New("not found")
	// ErrPayloadTooLarge 上传内容超出大小限制.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrRateLimited 请求被限流.
	ErrRateLimited = errors.New("rate limited")
	// ErrCodeSpaceExhausted 取件码重试耗尽，码空间接近饱和或存储异常.
	ErrCodeSpaceExhausted = errors.New("code space exhausted")
	// ErrStore 存储后端的非预期错误.
	ErrStore = errors.New("store error")
)

// HTTPStatus 将业务错误映射为 HTTP 状态码，未知错误一律 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
