package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yeisme/filecodebox/pkg/configs"
	"github.com/yeisme/filecodebox/pkg/internal/model"
	"github.com/yeisme/filecodebox/pkg/internal/service"
	"github.com/yeisme/filecodebox/pkg/internal/storage/kv"
)

// fakeBlobStore 内存版 BlobStore，可注入失败.
type fakeBlobStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failPut    bool
	failDelete bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.failPut {
		return errors.New("injected put failure")
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.objects[key] = b
	f.mu.Unlock()

	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	b, ok := f.objects[key]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}

	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("injected delete failure")
	}

	f.mu.Lock()
	delete(f.objects, key)
	f.mu.Unlock()

	return nil
}

func (f *fakeBlobStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.objects)
}

func testShareConfig() configs.ShareConfig {
	return configs.ShareConfig{
		CodeLength:  6,
		MaxFileSize: 90 * 1024 * 1024,
		MaxTextSize: 1024 * 1024,
	}
}

func newTestShareService(t *testing.T) (*service.ShareService, *service.EntryStore, *fakeBlobStore) {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	entries := service.NewEntryStore(store)
	blobs := newFakeBlobStore()
	svc := service.NewShareServiceWith(entries, blobs, nil, testShareConfig())

	return svc, entries, blobs
}

func TestCreateTextRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestShareService(t)

	resp, err := svc.CreateText(ctx, "hello", "minute", 1)
	if err != nil {
		t.Fatalf("create text: %v", err)
	}

	if !regexp.MustCompile(`^\d{6}$`).MatchString(resp.Code) {
		t.Fatalf("code %q does not match ^\\d{6}$", resp.Code)
	}

	if resp.ExpiredAt == nil {
		t.Fatal("expected finite expiry")
	}

	if d := time.Until(*resp.ExpiredAt); d < 50*time.Second || d > 70*time.Second {
		t.Fatalf("expected expiry ~60s in the future, got %v", d)
	}

	entry, rc, err := svc.Retrieve(ctx, resp.Code)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	if rc != nil {
		t.Fatal("text retrieval should not return a stream")
	}

	if entry.Kind != model.EntryKindText || entry.Content != "hello" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestCreateTextForever(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestShareService(t)

	resp, err := svc.CreateText(ctx, "keep me", "forever", 1)
	if err != nil {
		t.Fatalf("create text: %v", err)
	}

	if resp.ExpiredAt != nil {
		t.Fatalf("expected nil expiry for forever, got %v", resp.ExpiredAt)
	}
}

func TestCreateTextValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestShareService(t)

	if _, err := svc.CreateText(ctx, "", "minute", 1); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty text, got %v", err)
	}

	big := strings.Repeat("a", 1024*1024+1)
	if _, err := svc.CreateText(ctx, big, "day", 1); !errors.Is(err, service.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestCreateFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, blobs := newTestShareService(t)

	content := []byte("file payload bytes")

	resp, err := svc.CreateFile(ctx, "report final.pdf", bytes.NewReader(content), int64(len(content)), "application/pdf", "hour", 2)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}

	if blobs.len() != 1 {
		t.Fatalf("expected 1 stored object, got %d", blobs.len())
	}

	entry, rc, err := svc.Retrieve(ctx, resp.Code)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}

	if !bytes.Equal(got, content) {
		t.Fatalf("stream mismatch: got %q", got)
	}

	if entry.OriginalName != "report final.pdf" || entry.MediaType != "application/pdf" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	if entry.ByteSize != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), entry.ByteSize)
	}
}

func TestCreateFileTooLarge(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestShareService(t)

	_, err := svc.CreateFile(ctx, "huge.bin", bytes.NewReader(nil), 91*1024*1024, "", "day", 1)
	if !errors.Is(err, service.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestRetrieveUnknownCode(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestShareService(t)

	if _, _, err := svc.Retrieve(ctx, "123456"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetrieveMissingBlob(t *testing.T) {
	ctx := context.Background()
	svc, _, blobs := newTestShareService(t)

	content := []byte("x")

	resp, err := svc.CreateFile(ctx, "a.txt", bytes.NewReader(content), 1, "text/plain", "day", 1)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}

	// 对象被外部删除：取件应报未找到而不是崩溃
	blobs.mu.Lock()
	blobs.objects = map[string][]byte{}
	blobs.mu.Unlock()

	if _, _, err := svc.Retrieve(ctx, resp.Code); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing blob, got %v", err)
	}
}

func TestInfoDoesNotLeakContent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestShareService(t)

	resp, err := svc.CreateText(ctx, "secret text", "day", 1)
	if err != nil {
		t.Fatalf("create text: %v", err)
	}

	info, err := svc.Info(ctx, resp.Code)
	if err != nil {
		t.Fatalf("info: %v", err)
	}

	if info.Type != "text" {
		t.Fatalf("expected type text, got %q", info.Type)
	}

	if info.Size != int64(len("secret text")) {
		t.Fatalf("expected size %d, got %d", len("secret text"), info.Size)
	}
}

func TestCodeSpaceExhaustion(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	entries := service.NewEntryStore(store)

	// 码长 1 只有 10 个可能的码，全部占满后分配必然失败
	cfg := testShareConfig()
	cfg.CodeLength = 1

	svc := service.NewShareServiceWith(entries, newFakeBlobStore(), nil, cfg)

	now := time.Now().UTC()
	for i := range 10 {
		e := &model.Entry{
			Code:      fmt.Sprintf("%d", i),
			Kind:      model.EntryKindText,
			CreatedAt: now,
			Content:   "x",
		}
		if err := entries.Create(ctx, e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	_, err = svc.CreateText(ctx, "overflow", "day", 1)
	if !errors.Is(err, service.ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}

func TestConcurrentUploadsUniqueCodes(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestShareService(t)

	const n = 50

	var (
		mu    sync.Mutex
		codes = map[string]bool{}
		wg    sync.WaitGroup
	)

	wg.Add(n)

	for i := range n {
		go func(i int) {
			defer wg.Done()

			resp, err := svc.CreateText(ctx, fmt.Sprintf("msg %d", i), "day", 1)
			if err != nil {
				t.Errorf("create text: %v", err)
				return
			}

			mu.Lock()
			defer mu.Unlock()

			if codes[resp.Code] {
				t.Errorf("duplicate code issued: %s", resp.Code)
			}

			codes[resp.Code] = true
		}(i)
	}

	wg.Wait()
}
