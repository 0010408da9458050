package kv

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryKV 进程内 KV 实现，适合单实例部署和测试.
// 过期采用与其他后端一致的包装器，读取时惰性删除.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(ctx context.Context, config any) (KVStore, error) {
	return &MemoryKV{
		data: make(map[string][]byte),
	}, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	val, expired, _, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return val, nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	// encodeWithTTL 在 ttl<=0 时返回原切片，复制一份避免调用方后续修改
	buf := make([]byte, len(encoded))
	copy(buf, encoded)

	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}

	_, expired, _, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return false, err
	}

	if expired {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()

		return false, nil
	}

	return true, nil
}

// List 按前缀分页列举键，游标为上一页最后返回的键.
func (m *MemoryKV) List(ctx context.Context, prefix string, cursor string, limit int) ([]string, string, error) {
	if limit <= 0 {
		limit = 100
	}

	now := time.Now()

	m.mu.RLock()

	matched := make([]string, 0, len(m.data))
	var stale []string

	for key, raw := range m.data {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		if cursor != "" && key <= cursor {
			continue
		}

		if _, expired, _, err := decodeWithTTL(raw, now); err == nil && expired {
			stale = append(stale, key)
			continue
		}

		matched = append(matched, key)
	}

	m.mu.RUnlock()

	if len(stale) > 0 {
		m.mu.Lock()
		for _, key := range stale {
			delete(m.data, key)
		}
		m.mu.Unlock()
	}

	sort.Strings(matched)

	next := ""
	if len(matched) > limit {
		matched = matched[:limit]
		next = matched[len(matched)-1]
	}

	return matched, next, nil
}

// Close 关闭存储（内存实现为空操作）.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
