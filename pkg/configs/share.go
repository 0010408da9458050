package configs

import "github.com/spf13/viper"

const (
	DefaultCodeLength  = 6                // 取件码长度（位数）
	DefaultMaxFileSize = 90 * 1024 * 1024 // 文件上传大小上限（90MB）
	DefaultMaxTextSize = 1 * 1024 * 1024  // 文本上传大小上限（1MB）
)

// ShareConfig 分享业务配置.
type ShareConfig struct {
	CodeLength  int   `mapstructure:"code_length"   rule:"min=4,max=16"`
	MaxFileSize int64 `mapstructure:"max_file_size" rule:"min=1"`
	MaxTextSize int64 `mapstructure:"max_text_size" rule:"min=1"`
}

func (c *ShareConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("share.code_length", DefaultCodeLength)
	v.SetDefault("share.max_file_size", DefaultMaxFileSize)
	v.SetDefault("share.max_text_size", DefaultMaxTextSize)
}
