package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yeisme/filecodebox/pkg/internal/model"
	"github.com/yeisme/filecodebox/pkg/internal/service"
	"github.com/yeisme/filecodebox/pkg/internal/storage/kv"
)

func newTestEntryStore(t *testing.T) *service.EntryStore {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return service.NewEntryStore(store)
}

func TestEntryStoreCreateGet(t *testing.T) {
	ctx := context.Background()
	es := newTestEntryStore(t)

	now := time.Now().UTC()
	exp := now.Add(time.Hour)

	entry := &model.Entry{
		Code:      "482913",
		Kind:      model.EntryKindText,
		CreatedAt: now,
		ExpiresAt: &exp,
		Content:   "hello",
	}

	if err := es.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := es.Get(ctx, "482913")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Content != "hello" || got.Kind != model.EntryKindText {
		t.Fatalf("unexpected entry: %+v", got)
	}

	exists, err := es.Exists(ctx, "482913")
	if err != nil || !exists {
		t.Fatalf("expected code to exist, got exists=%v err=%v", exists, err)
	}
}

func TestEntryStoreGetUnknownCode(t *testing.T) {
	ctx := context.Background()
	es := newTestEntryStore(t)

	_, err := es.Get(ctx, "000000")
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEntryStoreExpiredEntryHidden(t *testing.T) {
	ctx := context.Background()
	es := newTestEntryStore(t)

	created := time.Now().UTC().Add(-time.Hour)
	exp := created.Add(time.Minute) // 已过期

	entry := &model.Entry{
		Code:         "111111",
		Kind:         model.EntryKindFile,
		CreatedAt:    created,
		ExpiresAt:    &exp,
		OriginalName: "a.txt",
		StorageKey:   "01ABC_a.txt",
	}

	if err := es.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 读取路径屏蔽过期记录
	if _, err := es.Get(ctx, "111111"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired entry, got %v", err)
	}

	// 但清理路径仍能读到原始记录
	raw, err := es.GetAny(ctx, "111111")
	if err != nil {
		t.Fatalf("GetAny: %v", err)
	}

	if raw.StorageKey != "01ABC_a.txt" {
		t.Fatalf("unexpected raw entry: %+v", raw)
	}
}

// failingKV 所有操作都返回后端错误，模拟存储断连.
type failingKV struct{}

func (failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("backend down")
}

func (failingKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("backend down")
}

func (failingKV) Delete(ctx context.Context, key string) error {
	return errors.New("backend down")
}

func (failingKV) Exists(ctx context.Context, key string) (bool, error) {
	return false, errors.New("backend down")
}

func (failingKV) List(ctx context.Context, prefix, cursor string, limit int) ([]string, string, error) {
	return nil, "", errors.New("backend down")
}

func (failingKV) Close() error { return nil }

func TestEntryStoreBackendFailureIsStoreError(t *testing.T) {
	ctx := context.Background()
	es := service.NewEntryStore(failingKV{})

	_, err := es.Get(ctx, "123456")
	if !errors.Is(err, service.ErrStore) {
		t.Fatalf("expected ErrStore on backend failure, got %v", err)
	}

	// 后端故障不能伪装成未找到
	if errors.Is(err, service.ErrNotFound) {
		t.Fatalf("backend failure must not map to not-found: %v", err)
	}

	if _, err := es.GetAny(ctx, "123456"); !errors.Is(err, service.ErrStore) {
		t.Fatalf("expected ErrStore from GetAny, got %v", err)
	}
}

func TestEntryStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	es := newTestEntryStore(t)

	if err := es.Delete(ctx, "999999"); err != nil {
		t.Fatalf("deleting unknown code should not error: %v", err)
	}
}

func TestEntryStoreRejectsBadExpiry(t *testing.T) {
	ctx := context.Background()
	es := newTestEntryStore(t)

	now := time.Now().UTC()
	before := now.Add(-time.Minute)

	entry := &model.Entry{
		Code:      "222222",
		Kind:      model.EntryKindText,
		CreatedAt: now,
		ExpiresAt: &before,
		Content:   "x",
	}

	if err := es.Create(ctx, entry); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEntryStoreForEachPage(t *testing.T) {
	ctx := context.Background()
	es := newTestEntryStore(t)

	now := time.Now().UTC()

	for i := range 23 {
		entry := &model.Entry{
			Code:      fmt.Sprintf("%06d", i),
			Kind:      model.EntryKindText,
			CreatedAt: now,
			Content:   "x",
		}
		if err := es.Create(ctx, entry); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var (
		total int
		pages int
	)

	err := es.ForEachPage(ctx, 10, func(codes []string) error {
		if len(codes) > 10 {
			t.Fatalf("page larger than batch size: %d", len(codes))
		}

		total += len(codes)
		pages++

		return nil
	})
	if err != nil {
		t.Fatalf("ForEachPage: %v", err)
	}

	if total != 23 {
		t.Fatalf("expected 23 codes, got %d", total)
	}

	if pages < 3 {
		t.Fatalf("expected at least 3 pages, got %d", pages)
	}
}
