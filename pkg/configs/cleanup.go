package configs

import "github.com/spf13/viper"

const (
	DefaultCleanupEnabled   = true
	DefaultCleanupCron      = "0 * * * *" // 每小时整点扫描一次
	DefaultCleanupBatchSize = 10          // 单批并发删除的记录数
)

// CleanupConfig 过期清理配置.
type CleanupConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Cron      string `mapstructure:"cron"       rule:"required"`
	BatchSize int    `mapstructure:"batch_size" rule:"min=1,max=1000"`
}

func (c *CleanupConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cleanup.enabled", DefaultCleanupEnabled)
	v.SetDefault("cleanup.cron", DefaultCleanupCron)
	v.SetDefault("cleanup.batch_size", DefaultCleanupBatchSize)
}
