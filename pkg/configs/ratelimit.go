package configs

import "github.com/spf13/viper"

const (
	// 默认速率限制配置.
	DefaultRateLimitEnabled       = true
	DefaultShareLimit             = 10  // 窗口内允许的上传次数
	DefaultShareWindowSeconds     = 60  // 上传限流窗口（秒）
	DefaultRetrieveLimit          = 60  // 窗口内允许的取件次数
	DefaultRetrieveWindowSeconds  = 60  // 取件限流窗口（秒）
	DefaultRateLimitGraceSeconds  = 10  // 计数器在窗口关闭后的保留时间
	DefaultRateLimitGlobalRPS     = 0.0 // 进程内全局限流（0 表示关闭）
	DefaultRateLimitGlobalBurst   = 0
	DefaultRateLimitUnknownCaller = "unknown" // 缺失来源头时的兜底身份
)

// RateLimitOp 单个操作的滑动窗口限流配置.
type RateLimitOp struct {
	Limit         int `mapstructure:"limit"          rule:"min=1"`
	WindowSeconds int `mapstructure:"window_seconds" rule:"min=1"`
}

// RateLimitConfig 速率限制配置.
// 基于 KV 的滑动窗口计数按 (操作, 调用方, 窗口桶) 维度限流；
// Global* 提供可选的进程内全局限流兜底.
type RateLimitConfig struct {
	Enabled      bool        `mapstructure:"enabled"`
	Share        RateLimitOp `mapstructure:"share"`
	Retrieve     RateLimitOp `mapstructure:"retrieve"`
	GraceSeconds int         `mapstructure:"grace_seconds" rule:"min=0,max=300"`
	GlobalRPS    float64     `mapstructure:"global_rps"`
	GlobalBurst  int         `mapstructure:"global_burst"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.share.limit", DefaultShareLimit)
	v.SetDefault("rate_limit.share.window_seconds", DefaultShareWindowSeconds)
	v.SetDefault("rate_limit.retrieve.limit", DefaultRetrieveLimit)
	v.SetDefault("rate_limit.retrieve.window_seconds", DefaultRetrieveWindowSeconds)
	v.SetDefault("rate_limit.grace_seconds", DefaultRateLimitGraceSeconds)
	v.SetDefault("rate_limit.global_rps", DefaultRateLimitGlobalRPS)
	v.SetDefault("rate_limit.global_burst", DefaultRateLimitGlobalBurst)
}
