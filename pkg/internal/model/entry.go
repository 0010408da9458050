// Package model 定义核心数据结构.
package model

import "time"

// EntryKind 分享内容类型.
type EntryKind string

const (
	EntryKindText EntryKind = "text"
	EntryKindFile EntryKind = "file"
)

// Entry 是一条分享记录：取件码到内容（内联文本或对象存储引用）的绑定.
// 创建后不可变，只能被过期或删除.
type Entry struct {
	Code      string     `json:"code"`
	Kind      EntryKind  `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil 表示永不过期

	// 文本分享：内容内联存储.
	Content string `json:"content,omitempty"`

	// 文件分享：内容存放在对象存储，这里只保留引用与展示信息.
	OriginalName string `json:"original_name,omitempty"`
	StorageKey   string `json:"storage_key,omitempty"`
	ByteSize     int64  `json:"byte_size,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
}

// Expired 判断记录在 now 时刻是否已过期. nil ExpiresAt 永不过期.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// IsFile 是否为文件分享.
func (e *Entry) IsFile() bool {
	return e.Kind == EntryKindFile
}
