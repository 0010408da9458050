// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"

	"github.com/yeisme/filecodebox/pkg/configs"
	ctxPkg "github.com/yeisme/filecodebox/pkg/context"
	"github.com/yeisme/filecodebox/pkg/internal/service"
	"github.com/yeisme/filecodebox/pkg/internal/storage"
	"github.com/yeisme/filecodebox/pkg/log"
	"github.com/yeisme/filecodebox/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：按配置的 cron 表达式周期性清理过期分享.
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	cfg := configs.GetConfig().Cleanup
	if !cfg.Enabled {
		log.Logger().Info().Msg("scheduled cleanup disabled")

		return nil
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return sched.AddCron(JobExpiredSweep, cfg.Cron, func(ctx context.Context) {
		runExpiredSweep(ctx)
	}, baseCtx)
}

// runExpiredSweep 触发一轮过期清理. 清理在独立 goroutine 中执行，
// 调度触发不等待完成；删除是幂等的，与上一轮重叠也是安全的.
func runExpiredSweep(ctx context.Context) {
	l := log.Logger().With().Str("job", JobExpiredSweep).Logger()

	svc := service.NewCleanupService(ctx)

	go func() {
		result := svc.Sweep(ctx)
		l.Info().
			Int("checked", result.Checked).
			Int("deleted", result.Deleted).
			Int("errors", result.Errors).
			Str("duration", result.Duration).
			Msg("scheduled sweep finished")
	}()
}
