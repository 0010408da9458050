// Package types 定义对外接口的请求与响应结构.
package types

import "time"

// CreateShareForm 上传表单字段（multipart 的非文件部分）.
type CreateShareForm struct {
	Text         string `form:"text"`
	ExpiredStyle string `form:"expired_style" rule:"omitempty,oneof=minute hour day forever"`
	ExpiredValue int    `form:"expired_value" rule:"omitempty,min=1"`
}

// CreateShareResponse 上传成功的响应数据.
type CreateShareResponse struct {
	Code      string     `json:"code"`
	ExpiredAt *time.Time `json:"expired_at"` // nil 表示永不过期
}

// TextShareResponse 文本分享的取件响应.
type TextShareResponse struct {
	Type      string     `json:"type"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiredAt *time.Time `json:"expired_at"`
}

// ShareInfoResponse 分享元信息（不含内容字节）.
type ShareInfoResponse struct {
	Type      string     `json:"type"`
	FileName  string     `json:"file_name,omitempty"`
	Size      int64      `json:"size,omitempty"`
	MediaType string     `json:"media_type,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiredAt *time.Time `json:"expired_at"`
}

// SweepResult 一轮过期清理的统计结果.
type SweepResult struct {
	Checked   int       `json:"checked"`
	Deleted   int       `json:"deleted"`
	Errors    int       `json:"errors"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}
