package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filecodebox/pkg/configs"
	ctxPkg "github.com/yeisme/filecodebox/pkg/context"
	"github.com/yeisme/filecodebox/pkg/internal/service"
	"github.com/yeisme/filecodebox/pkg/internal/storage"
)

// cleanup 子命令：一次性执行过期清理并打印统计结果，适合手动维护或外部调度.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "run one expired-share sweep and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configs.InitConfig(configPath); err != nil {
			return fmt.Errorf("init config: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		mgr, err := storage.Init(ctx)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer func() { _ = mgr.Close() }()

		ctx = ctxPkg.WithStorageManager(ctx, mgr)

		result := service.NewCleanupService(ctx).Sweep(ctx)

		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(b))

		return nil
	},
}

func registerCleanupCommand() {
	rootCmd.AddCommand(cleanupCmd)
}
