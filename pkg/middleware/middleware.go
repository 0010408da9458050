// Package middleware 提供中间件功能.
package middleware
