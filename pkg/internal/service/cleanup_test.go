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

func newTestCleanup(t *testing.T, blobs *fakeBlobStore) (*service.CleanupService, *service.EntryStore) {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	entries := service.NewEntryStore(store)
	svc := service.NewCleanupServiceWith(entries, blobs, nil, 10)

	return svc, entries
}

// seedFileEntry 写入一条文件记录，expired 控制是否已过期.
func seedFileEntry(t *testing.T, entries *service.EntryStore, blobs *fakeBlobStore, code string, expired bool) string {
	t.Helper()

	ctx := context.Background()
	created := time.Now().UTC().Add(-time.Hour)

	var exp *time.Time
	if expired {
		e := created.Add(time.Minute)
		exp = &e
	} else {
		e := created.Add(48 * time.Hour)
		exp = &e
	}

	key := code + "_seed.bin"

	blobs.mu.Lock()
	blobs.objects[key] = []byte("data")
	blobs.mu.Unlock()

	entry := &model.Entry{
		Code:         code,
		Kind:         model.EntryKindFile,
		CreatedAt:    created,
		ExpiresAt:    exp,
		OriginalName: "seed.bin",
		StorageKey:   key,
		ByteSize:     4,
	}

	if err := entries.Create(ctx, entry); err != nil {
		t.Fatalf("seed entry %s: %v", code, err)
	}

	return key
}

func TestSweepDeletesExpired(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	svc, entries := newTestCleanup(t, blobs)

	expiredKey := seedFileEntry(t, entries, blobs, "100001", true)
	seedFileEntry(t, entries, blobs, "100002", false)

	// 永不过期的文本记录
	forever := &model.Entry{
		Code:      "100003",
		Kind:      model.EntryKindText,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		Content:   "keep",
	}
	if err := entries.Create(ctx, forever); err != nil {
		t.Fatalf("seed forever entry: %v", err)
	}

	result := svc.Sweep(ctx)

	if result.Checked != 3 {
		t.Fatalf("expected 3 checked, got %d", result.Checked)
	}

	if result.Deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", result.Deleted)
	}

	if result.Errors != 0 {
		t.Fatalf("expected 0 errors, got %d", result.Errors)
	}

	// 过期记录与对象都应消失
	if _, err := entries.GetAny(ctx, "100001"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected expired entry gone, got %v", err)
	}

	blobs.mu.Lock()
	_, stillThere := blobs.objects[expiredKey]
	blobs.mu.Unlock()

	if stillThere {
		t.Fatal("expected expired blob to be deleted")
	}

	// 未过期与永久记录不受影响
	if _, err := entries.Get(ctx, "100002"); err != nil {
		t.Fatalf("live entry should survive sweep: %v", err)
	}

	if _, err := entries.Get(ctx, "100003"); err != nil {
		t.Fatalf("forever entry should survive sweep: %v", err)
	}
}

func TestSweepIdempotent(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	svc, entries := newTestCleanup(t, blobs)

	seedFileEntry(t, entries, blobs, "200001", true)

	first := svc.Sweep(ctx)
	if first.Deleted != 1 || first.Errors != 0 {
		t.Fatalf("unexpected first sweep: %+v", first)
	}

	second := svc.Sweep(ctx)
	if second.Deleted != 0 || second.Errors != 0 {
		t.Fatalf("second sweep should be a no-op: %+v", second)
	}
}

func TestSweepBlobFailureNonFatal(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	blobs.failDelete = true

	svc, entries := newTestCleanup(t, blobs)

	seedFileEntry(t, entries, blobs, "300001", true)

	result := svc.Sweep(ctx)

	if result.Deleted != 1 {
		t.Fatalf("metadata deletion should still count, got %+v", result)
	}

	if result.Errors != 1 {
		t.Fatalf("blob failure should count exactly one error, got %+v", result)
	}

	// 元数据是有效性的权威：即使对象删除失败，记录也必须消失
	if _, err := entries.GetAny(ctx, "300001"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected metadata gone despite blob failure, got %v", err)
	}
}

func TestSweepReportsDuration(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	svc, entries := newTestCleanup(t, blobs)

	seedFileEntry(t, entries, blobs, "600001", true)

	result := svc.Sweep(ctx)

	if result.StartedAt.IsZero() {
		t.Fatal("expected started_at to be set")
	}

	if result.Duration == "" {
		t.Fatal("expected non-empty duration")
	}

	if _, err := time.ParseDuration(result.Duration); err != nil {
		t.Fatalf("duration %q is not parseable: %v", result.Duration, err)
	}

	// 没有可删记录的一轮同样要带耗时
	second := svc.Sweep(ctx)
	if second.Duration == "" {
		t.Fatal("expected duration on a no-op sweep too")
	}
}

func TestSweepEmptyStore(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	svc, _ := newTestCleanup(t, blobs)

	result := svc.Sweep(ctx)

	if result.Checked != 0 || result.Deleted != 0 || result.Errors != 0 {
		t.Fatalf("expected all-zero result on empty store, got %+v", result)
	}
}

func TestSweepManyBatches(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobStore()
	svc, entries := newTestCleanup(t, blobs)

	// 35 条过期 + 5 条存活，批大小 10 → 4 个批次
	for i := range 35 {
		seedFileEntry(t, entries, blobs, fmt.Sprintf("4%05d", i), true)
	}

	for i := range 5 {
		seedFileEntry(t, entries, blobs, fmt.Sprintf("5%05d", i), false)
	}

	result := svc.Sweep(ctx)

	if result.Checked != 40 {
		t.Fatalf("expected 40 checked, got %d", result.Checked)
	}

	if result.Deleted != 35 {
		t.Fatalf("expected 35 deleted, got %d", result.Deleted)
	}

	if blobs.len() != 5 {
		t.Fatalf("expected 5 surviving blobs, got %d", blobs.len())
	}
}
