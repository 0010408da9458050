package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS MQType = "nats"

	DefaultMQURL         = "localhost:4222"
	DefaultMaxReconnects = 5  // 默认最大重连次数
	DefaultReconnectWait = 5  // 默认重连等待时间（秒）
	DefaultPingInterval  = 20 // 默认ping间隔（秒）

	DefaultMQClientID  = "filecodebox-app" // 默认客户端ID
	DefaultBufferSize  = 32768             // 默认重连缓冲区大小 (32KB)
	DefaultMQEnabled   = false             // 事件发布默认关闭，分享功能不依赖 broker
	DefaultMQEndpoint  = ":9092"
	DefaultStreamName  = "filecodebox-stream"
	DefaultSubjPrefix  = "fcb."
	DefaultDurablePfx  = "filecodebox-durable"
	DefaultMQJetStream = true
)

// MQConfig 消息队列配置（NATS / JetStream，经由 watermill 封装）.
type MQConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    MQType `mapstructure:"type"    rule:"oneof=nats"`

	URL           string   `mapstructure:"url"            rule:"hostname_port"`
	User          string   `mapstructure:"user"`
	Password      string   `mapstructure:"password"`
	ClientID      string   `mapstructure:"client_id"`
	MaxReconnects int      `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int      `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	PingInterval  int      `mapstructure:"ping_interval"  rule:"min=1,max=300"`
	BufferSize    int      `mapstructure:"buffer_size"    rule:"min=1024,max=1048576"`
	JWT           string   `mapstructure:"jwt"`
	NKey          string   `mapstructure:"nkey"`
	ClusterURLs   []string `mapstructure:"cluster_urls"`

	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool   `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
	StreamName             string `mapstructure:"stream_name"`
	SubjectPrefix          string `mapstructure:"subject_prefix"`
	LoadBalance            bool   `mapstructure:"load_balance"`
	EnableMetrics          bool   `mapstructure:"enable_metrics"`
	Endpoint               string `mapstructure:"endpoint"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.enabled", DefaultMQEnabled)
	v.SetDefault("mq.type", MQTypeNATS)

	v.SetDefault("mq.url", DefaultMQURL)
	v.SetDefault("mq.user", "")
	v.SetDefault("mq.password", "")
	v.SetDefault("mq.client_id", DefaultMQClientID)
	v.SetDefault("mq.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.buffer_size", DefaultBufferSize)
	v.SetDefault("mq.jwt", "")
	v.SetDefault("mq.nkey", "")
	v.SetDefault("mq.cluster_urls", []string{})

	v.SetDefault("mq.jetstream_enabled", DefaultMQJetStream)
	v.SetDefault("mq.jetstream_auto_provision", true)
	v.SetDefault("mq.jetstream_track_msg_id", true)
	v.SetDefault("mq.jetstream_ack_async", true)
	v.SetDefault("mq.jetstream_durable_prefix", DefaultDurablePfx)
	v.SetDefault("mq.stream_name", DefaultStreamName)
	v.SetDefault("mq.subject_prefix", DefaultSubjPrefix)
	v.SetDefault("mq.load_balance", true)
	v.SetDefault("mq.enable_metrics", false)
	v.SetDefault("mq.endpoint", DefaultMQEndpoint)
}
