package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// ShareRef 标识一条分享记录.
type ShareRef struct {
	Code      string     `json:"code"`
	Kind      string     `json:"kind"` // text | file
	Size      int64      `json:"size,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil 表示永不过期
}

// ShareCreatedPayload 分享创建完成.
type ShareCreatedPayload struct {
	Share ShareRef `json:"share"`
	// Caller 触发来源（IP 或其他身份标识），用于审计.
	Caller string `json:"caller,omitempty"`
}

// ShareRetrievedPayload 分享被成功取件.
type ShareRetrievedPayload struct {
	Share  ShareRef `json:"share"`
	Caller string   `json:"caller,omitempty"`
}

// ShareExpiredPayload 取件时发现分享过期，记录已被惰性删除.
type ShareExpiredPayload struct {
	Share ShareRef `json:"share"`
}

// SweepCompletedPayload 一轮过期清理的统计结果.
type SweepCompletedPayload struct {
	Checked   int       `json:"checked"`
	Deleted   int       `json:"deleted"`
	Errors    int       `json:"errors"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration,omitempty"`
}
