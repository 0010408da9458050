package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/filecodebox/pkg/internal/model"
	"github.com/yeisme/filecodebox/pkg/internal/storage/kv"
	flog "github.com/yeisme/filecodebox/pkg/log"
)

const (
	// entryKeyPrefix 分享记录在 KV 中的键前缀，带版本号便于未来迁移.
	entryKeyPrefix = "share:v1:"

	// defaultListPageSize 清理枚举时的默认分页大小.
	defaultListPageSize = 100
)

// EntryStore 是取件码到分享记录的权威映射.
//
// 过期策略分两路：文本记录带 TTL 写入，由 KV 后端自动过期；
// 文件记录不带 TTL——必须先尝试删对象再删元数据，这只有清理任务能保证，
// 后端的 TTL 驱逐做不到. 读取路径对两类记录都做 expires_at 检查，
// 因此文件记录在清理任务跑到之前同样取不到.
type EntryStore struct {
	store kv.KVStore
}

// NewEntryStore 基于任意 KVStore 构造 EntryStore.
func NewEntryStore(store kv.KVStore) *EntryStore {
	return &EntryStore{store: store}
}

func makeEntryKey(code string) string { return entryKeyPrefix + code }

// codeFromKey 从 KV 键还原取件码.
func codeFromKey(key string) string { return strings.TrimPrefix(key, entryKeyPrefix) }

// Create 写入一条分享记录. 有限期记录的 TTL 由 expires_at 推导.
func (s *EntryStore) Create(ctx context.Context, e *model.Entry) error {
	if e == nil || e.Code == "" {
		return fmt.Errorf("%w: entry code is required", ErrValidation)
	}

	if e.ExpiresAt != nil && !e.ExpiresAt.After(e.CreatedAt) {
		return fmt.Errorf("%w: expires_at must be after created_at", ErrValidation)
	}

	b, err := sonic.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", e.Code, err)
	}

	// 只有文本记录交给后端 TTL 驱逐；文件记录留给清理任务，
	// 保证对象和元数据按正确顺序删除
	var ttl time.Duration
	if e.ExpiresAt != nil && e.Kind == model.EntryKindText {
		ttl = max(time.Until(*e.ExpiresAt), time.Second)
	}

	if err := s.store.Set(ctx, makeEntryKey(e.Code), b, ttl); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrStore, e.Code, err)
	}

	return nil
}

// Get 按取件码读取记录. 未知码、TTL 已过或 expires_at 已过都返回 ErrNotFound；
// 后端故障不能伪装成未找到，映射为 ErrStore.
func (s *EntryStore) Get(ctx context.Context, code string) (*model.Entry, error) {
	b, err := s.store.Get(ctx, makeEntryKey(code))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: code %s", ErrNotFound, code)
		}

		return nil, fmt.Errorf("%w: get %s: %v", ErrStore, code, err)
	}

	var e model.Entry
	if err := sonic.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("%w: unmarshal %s: %v", ErrStore, code, err)
	}

	if e.Expired(time.Now().UTC()) {
		// 文本记录没有关联对象，可以在读取路径直接惰性删除；
		// 文件记录留给清理任务处理，避免元数据先消失留下孤儿对象
		if !e.IsFile() {
			_ = s.store.Delete(ctx, makeEntryKey(code))

			flog.Logger().Debug().Str("code", code).Msg("lazily removed expired text entry on read")
		}

		return nil, fmt.Errorf("%w: code %s", ErrNotFound, code)
	}

	return &e, nil
}

// GetAny 读取记录但不做过期判断也不惰性删除.
// 清理任务使用：过期的文件记录必须先尝试删对象再删元数据，
// 不能让读取路径的惰性删除抢先清掉元数据而留下孤儿对象.
func (s *EntryStore) GetAny(ctx context.Context, code string) (*model.Entry, error) {
	b, err := s.store.Get(ctx, makeEntryKey(code))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: code %s", ErrNotFound, code)
		}

		return nil, fmt.Errorf("%w: get %s: %v", ErrStore, code, err)
	}

	var e model.Entry
	if err := sonic.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("%w: unmarshal %s: %v", ErrStore, code, err)
	}

	return &e, nil
}

// Exists 检查取件码是否被占用，用于生成时的碰撞检测.
func (s *EntryStore) Exists(ctx context.Context, code string) (bool, error) {
	ok, err := s.store.Exists(ctx, makeEntryKey(code))
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", ErrStore, code, err)
	}

	return ok, nil
}

// Delete 删除记录. 删除不存在的码不是错误.
func (s *EntryStore) Delete(ctx context.Context, code string) error {
	if err := s.store.Delete(ctx, makeEntryKey(code)); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStore, code, err)
	}

	return nil
}

// ForEachPage 按固定大小分页枚举所有取件码，逐页回调.
// 只有清理任务使用；分页保证不会把全量记录一次性载入内存.
func (s *EntryStore) ForEachPage(ctx context.Context, pageSize int, fn func(codes []string) error) error {
	if pageSize <= 0 {
		pageSize = defaultListPageSize
	}

	cursor := ""

	for {
		keys, next, err := s.store.List(ctx, entryKeyPrefix, cursor, pageSize)
		if err != nil {
			return fmt.Errorf("%w: list entries: %v", ErrStore, err)
		}

		if len(keys) > 0 {
			codes := make([]string, 0, len(keys))
			for _, k := range keys {
				codes = append(codes, codeFromKey(k))
			}

			if err := fn(codes); err != nil {
				return err
			}
		}

		if next == "" {
			return nil
		}

		cursor = next
	}
}
