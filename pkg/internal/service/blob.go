package service

import (
	"context"
	crand "crypto/rand"
	"io"
	"time"

	"github.com/oklog/ulid"

	"github.com/yeisme/filecodebox/pkg/internal/storage/s3"
)

// 全局单例的 ULID 熵源，使用单调递增策略，确保同一毫秒内生成的 ULID 具有排序稳定性。
var ulidEntropy = ulid.Monotonic(crand.Reader, 0)

// BlobStore 抽象文件内容的存取，便于测试注入失败场景.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// s3BlobStore 基于 MinIO 客户端的 BlobStore 实现.
type s3BlobStore struct {
	c *s3.Client
}

// NewS3BlobStore 包装 S3 客户端为 BlobStore.
func NewS3BlobStore(c *s3.Client) BlobStore {
	return &s3BlobStore{c: c}
}

func (b *s3BlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return b.c.PutBlob(ctx, key, r, size, contentType)
}

func (b *s3BlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return b.c.GetBlob(ctx, key)
}

func (b *s3BlobStore) Delete(ctx context.Context, key string) error {
	return b.c.DeleteBlob(ctx, key)
}

// NewStorageKey 生成对象存储键：全局唯一的随机前缀 + 原始文件名，
// 既避免碰撞又保留可读后缀.
func NewStorageKey(t time.Time, filename string) string {
	id := ulid.MustNew(ulid.Timestamp(t), ulidEntropy)

	return id.String() + "_" + filename
}
