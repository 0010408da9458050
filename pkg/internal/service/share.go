// Package service 实现分享业务：上传、取件、元信息查询与过期清理.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/yeisme/filecodebox/pkg/configs"
	ctxPkg "github.com/yeisme/filecodebox/pkg/context"
	"github.com/yeisme/filecodebox/pkg/internal/model"
	"github.com/yeisme/filecodebox/pkg/internal/storage/mq"
	"github.com/yeisme/filecodebox/pkg/internal/types"
	flog "github.com/yeisme/filecodebox/pkg/log"
	"github.com/yeisme/filecodebox/pkg/metrics"
	"github.com/yeisme/filecodebox/pkg/queue"
)

const (
	// maxCodeAttempts 取件码碰撞重试上限，用尽即视为码空间耗尽.
	maxCodeAttempts = 10

	eventProducer = "filecodebox"
)

// ShareService 负责分享的创建、取件与元信息查询.
// 元数据是有效性的唯一权威：KV 里没有记录的码一律视为不存在.
type ShareService struct {
	entries *EntryStore
	blobs   BlobStore
	mqc     *mq.Client
	cfg     configs.ShareConfig
}

// NewShareService 从请求上下文中的存储管理器构造 ShareService.
func NewShareService(c context.Context) *ShareService {
	svc := &ShareService{cfg: configs.GetConfig().Share}

	if kvc := ctxPkg.GetKVClient(c); kvc != nil {
		svc.entries = NewEntryStore(kvc)
	} else {
		flog.Logger().Warn().Msg("KV client not initialized, ShareService unavailable")
	}

	if s3c := ctxPkg.GetS3Client(c); s3c != nil {
		svc.blobs = NewS3BlobStore(s3c)
	} else {
		flog.Logger().Warn().Msg("S3 client not initialized, file shares unavailable")
	}

	svc.mqc = ctxPkg.GetMQClient(c)

	return svc
}

// NewShareServiceWith 以显式依赖构造 ShareService，供测试注入.
func NewShareServiceWith(entries *EntryStore, blobs BlobStore, mqc *mq.Client, cfg configs.ShareConfig) *ShareService {
	return &ShareService{entries: entries, blobs: blobs, mqc: mqc, cfg: cfg}
}

// CreateText 创建文本分享，返回取件码与过期时间.
func (s *ShareService) CreateText(ctx context.Context, text, expiredStyle string, expiredValue int) (*types.CreateShareResponse, error) {
	if s.entries == nil {
		return nil, fmt.Errorf("%w: entry store not initialized", ErrStore)
	}

	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	if int64(len(text)) > s.cfg.MaxTextSize {
		return nil, fmt.Errorf("%w: text exceeds %d bytes", ErrPayloadTooLarge, s.cfg.MaxTextSize)
	}

	now := time.Now().UTC()
	expiresAt := ComputeExpiry(now, expiredValue, expiredStyle)

	code, err := s.allocateCode(ctx)
	if err != nil {
		return nil, err
	}

	entry := &model.Entry{
		Code:      code,
		Kind:      model.EntryKindText,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		Content:   text,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	metrics.SharesCreated.WithLabelValues(string(model.EntryKindText)).Inc()
	s.publishCreated(ctx, entry)

	return &types.CreateShareResponse{Code: code, ExpiredAt: expiresAt}, nil
}

// CreateFile 创建文件分享：先落对象存储，再写元数据.
// 元数据写入失败时对象成为孤儿，单独记日志便于离线回收（见 DESIGN.md）.
func (s *ShareService) CreateFile(ctx context.Context, fileName string, r io.Reader, size int64, mediaType, expiredStyle string, expiredValue int) (*types.CreateShareResponse, error) {
	if s.entries == nil {
		return nil, fmt.Errorf("%w: entry store not initialized", ErrStore)
	}

	if s.blobs == nil {
		return nil, fmt.Errorf("%w: blob store not initialized", ErrStore)
	}

	if fileName == "" || r == nil {
		return nil, fmt.Errorf("%w: file is required", ErrValidation)
	}

	if size > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrPayloadTooLarge, s.cfg.MaxFileSize)
	}

	now := time.Now().UTC()
	expiresAt := ComputeExpiry(now, expiredValue, expiredStyle)

	code, err := s.allocateCode(ctx)
	if err != nil {
		return nil, err
	}

	storageKey := NewStorageKey(now, fileName)

	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	if err := s.blobs.Put(ctx, storageKey, r, size, mediaType); err != nil {
		return nil, fmt.Errorf("%w: put blob: %v", ErrStore, err)
	}

	entry := &model.Entry{
		Code:         code,
		Kind:         model.EntryKindFile,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		OriginalName: fileName,
		StorageKey:   storageKey,
		ByteSize:     size,
		MediaType:    mediaType,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		// 对象已写入但元数据失败：码不可达，对象成为孤儿
		flog.Logger().Error().
			Str("storage_key", storageKey).
			Str("code", code).
			Err(err).
			Msg("orphaned blob: metadata write failed after blob upload")

		return nil, err
	}

	metrics.SharesCreated.WithLabelValues(string(model.EntryKindFile)).Inc()
	s.publishCreated(ctx, entry)

	return &types.CreateShareResponse{Code: code, ExpiredAt: expiresAt}, nil
}

// Retrieve 按取件码取回分享. 文件分享返回内容流，调用方负责 Close；
// 文本分享流为 nil，内容在 Entry.Content 中.
func (s *ShareService) Retrieve(ctx context.Context, code string) (*model.Entry, io.ReadCloser, error) {
	if s.entries == nil {
		return nil, nil, fmt.Errorf("%w: entry store not initialized", ErrStore)
	}

	entry, err := s.entries.Get(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	var rc io.ReadCloser

	if entry.IsFile() {
		if s.blobs == nil {
			return nil, nil, fmt.Errorf("%w: blob store not initialized", ErrStore)
		}

		rc, err = s.blobs.Get(ctx, entry.StorageKey)
		if err != nil {
			flog.Logger().Error().
				Str("code", code).
				Str("storage_key", entry.StorageKey).
				Err(err).
				Msg("blob missing for live entry")

			return nil, nil, fmt.Errorf("%w: blob for code %s", ErrNotFound, code)
		}
	}

	metrics.SharesRetrieved.WithLabelValues(string(entry.Kind)).Inc()
	s.publishRetrieved(ctx, entry)

	return entry, rc, nil
}

// Info 返回分享元信息，不含内容字节.
func (s *ShareService) Info(ctx context.Context, code string) (*types.ShareInfoResponse, error) {
	if s.entries == nil {
		return nil, fmt.Errorf("%w: entry store not initialized", ErrStore)
	}

	entry, err := s.entries.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	resp := &types.ShareInfoResponse{
		Type:      string(entry.Kind),
		CreatedAt: entry.CreatedAt,
		ExpiredAt: entry.ExpiresAt,
	}

	if entry.IsFile() {
		resp.FileName = entry.OriginalName
		resp.Size = entry.ByteSize
		resp.MediaType = entry.MediaType
	} else {
		resp.Size = int64(len(entry.Content))
	}

	return resp, nil
}

// allocateCode 生成取件码并对照存储查重，有限次重试.
// 用尽重试说明码空间接近饱和或存储降级，作为服务端错误上报.
func (s *ShareService) allocateCode(ctx context.Context) (string, error) {
	length := s.cfg.CodeLength

	for attempt := range maxCodeAttempts {
		code, err := GenerateCode(length)
		if err != nil {
			return "", err
		}

		exists, err := s.entries.Exists(ctx, code)
		if err != nil {
			flog.Logger().Warn().Int("attempt", attempt+1).Err(err).Msg("code existence check failed")

			continue
		}

		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("%w: %d attempts", ErrCodeSpaceExhausted, maxCodeAttempts)
}

// ---- 事件发布（尽力而为，MQ 未启用时静默跳过） ----

func shareRef(e *model.Entry) queue.ShareRef {
	ref := queue.ShareRef{
		Code:      e.Code,
		Kind:      string(e.Kind),
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}

	if e.IsFile() {
		ref.Size = e.ByteSize
		ref.FileName = e.OriginalName
	} else {
		ref.Size = int64(len(e.Content))
	}

	return ref
}

func (s *ShareService) publishCreated(ctx context.Context, e *model.Entry) {
	if s.mqc == nil || s.mqc.Publisher() == nil {
		return
	}

	payload := queue.ShareCreatedPayload{Share: shareRef(e)}
	if err := queue.PublishShareCreated(s.mqc.Publisher(), payload, queue.WithProducer(eventProducer)); err != nil {
		flog.Logger().Debug().Str("code", e.Code).Err(err).Msg("publish share created event failed")
	}
}

func (s *ShareService) publishRetrieved(ctx context.Context, e *model.Entry) {
	if s.mqc == nil || s.mqc.Publisher() == nil {
		return
	}

	payload := queue.ShareRetrievedPayload{Share: shareRef(e)}
	if err := queue.PublishShareRetrieved(s.mqc.Publisher(), payload, queue.WithProducer(eventProducer)); err != nil {
		flog.Logger().Debug().Str("code", e.Code).Err(err).Msg("publish share retrieved event failed")
	}
}
