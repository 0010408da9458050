package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filecodebox/pkg/configs"
	ctxPkg "github.com/yeisme/filecodebox/pkg/context"
	"github.com/yeisme/filecodebox/pkg/internal/storage/mq"
	"github.com/yeisme/filecodebox/pkg/internal/types"
	flog "github.com/yeisme/filecodebox/pkg/log"
	"github.com/yeisme/filecodebox/pkg/metrics"
	"github.com/yeisme/filecodebox/pkg/queue"
)

// CleanupService 执行过期分享的批量清理.
// 逐条错误只计数不中断；整轮只有枚举失败才终止，且从不向上抛错.
type CleanupService struct {
	entries   *EntryStore
	blobs     BlobStore
	mqc       *mq.Client
	batchSize int
}

// NewCleanupService 从请求上下文中的存储管理器构造 CleanupService.
func NewCleanupService(c context.Context) *CleanupService {
	svc := &CleanupService{batchSize: configs.GetConfig().Cleanup.BatchSize}

	if kvc := ctxPkg.GetKVClient(c); kvc != nil {
		svc.entries = NewEntryStore(kvc)
	} else {
		flog.Logger().Warn().Msg("KV client not initialized, CleanupService unavailable")
	}

	if s3c := ctxPkg.GetS3Client(c); s3c != nil {
		svc.blobs = NewS3BlobStore(s3c)
	}

	svc.mqc = ctxPkg.GetMQClient(c)

	return svc
}

// NewCleanupServiceWith 以显式依赖构造 CleanupService，供测试注入.
func NewCleanupServiceWith(entries *EntryStore, blobs BlobStore, mqc *mq.Client, batchSize int) *CleanupService {
	return &CleanupService{entries: entries, blobs: blobs, mqc: mqc, batchSize: batchSize}
}

// Sweep 扫描全部分享记录，删除已过期的记录及其关联对象.
// 同一批次内的删除并发执行，批次之间串行，限制后端瞬时压力.
// 删除是幂等的，所以与另一轮并行的 Sweep 重叠也是安全的.
func (s *CleanupService) Sweep(ctx context.Context) (result types.SweepResult) {
	started := time.Now().UTC()
	result.StartedAt = started

	// 命名返回值：defer 里写入的 Duration 要对每条 return 路径都生效
	defer func() {
		result.Duration = time.Since(started).String()
		s.publishCompleted(ctx, result)
	}()

	if s.entries == nil {
		result.Errors++
		return result
	}

	var mu sync.Mutex

	err := s.entries.ForEachPage(ctx, s.batchSize, func(codes []string) error {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(len(codes))

		for _, code := range codes {
			g.Go(func() error {
				checked, deleted, errs := s.sweepOne(gctx, code)

				mu.Lock()
				result.Checked += checked
				result.Deleted += deleted
				result.Errors += errs
				mu.Unlock()

				// 逐条错误不终止整轮
				return nil
			})
		}

		return g.Wait()
	})
	if err != nil {
		// 枚举失败：整轮终止，计为一次错误
		flog.Logger().Error().Err(err).Msg("sweep enumeration failed")

		result.Errors++
		metrics.SweepErrors.Inc()
	}

	flog.Logger().Info().
		Int("checked", result.Checked).
		Int("deleted", result.Deleted).
		Int("errors", result.Errors).
		Msg("sweep finished")

	return result
}

// sweepOne 处理单条记录，返回 (checked, deleted, errors) 增量.
func (s *CleanupService) sweepOne(ctx context.Context, code string) (int, int, int) {
	// GetAny 绕过读取路径的过期屏蔽：过期记录正是这里要处理的对象
	entry, err := s.entries.GetAny(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// 记录在枚举后被并发删除（另一轮清理或 TTL 驱逐），无需处理
			return 1, 0, 0
		}

		flog.Logger().Error().Str("code", code).Err(err).Msg("sweep: read entry failed")
		metrics.SweepErrors.Inc()

		return 1, 0, 1
	}

	now := time.Now().UTC()
	if !entry.Expired(now) {
		return 1, 0, 0
	}

	errs := 0

	// 对象删除失败不阻止元数据删除：元数据才是有效性的权威
	if entry.IsFile() && s.blobs != nil {
		if err := s.blobs.Delete(ctx, entry.StorageKey); err != nil {
			flog.Logger().Error().
				Str("code", code).
				Str("storage_key", entry.StorageKey).
				Err(err).
				Msg("sweep: blob deletion failed")

			errs++
			metrics.SweepErrors.Inc()
		}
	}

	if err := s.entries.Delete(ctx, code); err != nil {
		flog.Logger().Error().Str("code", code).Err(err).Msg("sweep: metadata deletion failed")

		return 1, 0, errs + 1
	}

	metrics.SweepDeleted.Inc()

	return 1, 1, errs
}

func (s *CleanupService) publishCompleted(ctx context.Context, r types.SweepResult) {
	if s.mqc == nil || s.mqc.Publisher() == nil {
		return
	}

	payload := queue.SweepCompletedPayload{
		Checked:   r.Checked,
		Deleted:   r.Deleted,
		Errors:    r.Errors,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
	}

	if err := queue.PublishSweepCompleted(s.mqc.Publisher(), payload, queue.WithProducer(eventProducer)); err != nil {
		flog.Logger().Debug().Err(err).Msg("publish sweep completed event failed")
	}
}
