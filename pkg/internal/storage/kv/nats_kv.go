package kv

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/filecodebox/pkg/configs"
)

// NATS KV 的键字符集限于 [-/_=.a-zA-Z0-9]，而业务键带冒号
// （share:v1:<code>，限流键里还可能有 IPv6 地址）. 集合外的字节
// 统一转义为 "=HH" 十六进制，= 自身也转义. 编码可逆且逐字节进行，
// 明文的前缀关系在编码后保持不变；List 的游标始终在编码空间比较，
// 分页只依赖编码序自身一致.
func encodeNATSKey(key string) string {
	var b strings.Builder

	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '=' || !validNATSKeyChar(c) {
			fmt.Fprintf(&b, "=%02X", c)
			continue
		}

		b.WriteByte(c)
	}

	return b.String()
}

func validNATSKeyChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '/', c == '_', c == '.':
		return true
	}

	return false
}

func decodeNATSKey(enc string) string {
	if !strings.Contains(enc, "=") {
		return enc
	}

	var b strings.Builder

	for i := 0; i < len(enc); i++ {
		if enc[i] == '=' && i+2 < len(enc) {
			if v, err := strconv.ParseUint(enc[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2

				continue
			}
		}

		b.WriteByte(enc[i])
	}

	return b.String()
}

// NATSKV 基于 NATS KV 的 KV 实现.
type NATSKV struct {
	js     nats.JetStreamContext
	kv     nats.KeyValue
	bucket string
	conn   *nats.Conn
}

// NewNATSKV 创建 NATS KV 实例.
func NewNATSKV(ctx context.Context, config any) (KVStore, error) {
	kvConfig, ok := config.(configs.KVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid NATS config")
	}

	natsConfig := kvConfig.NATS

	// 连接到 NATS
	opts := []nats.Option{}
	if natsConfig.User != "" {
		opts = append(opts, nats.UserInfo(natsConfig.User, natsConfig.Password))
	}

	nc, err := nats.Connect(natsConfig.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// 创建 JetStream 上下文
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// 创建或获取 KV bucket
	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket: natsConfig.Bucket,
	})
	if err != nil {
		// 如果 bucket 已存在，获取它
		kv, err = js.KeyValue(natsConfig.Bucket)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create/get KV bucket: %w", err)
		}
	}

	return &NATSKV{
		js:     js,
		kv:     kv,
		bucket: natsConfig.Bucket,
		conn:   nc,
	}, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	ek := encodeNATSKey(key)

	entry, err := n.kv.Get(ek)
	if err == nats.ErrKeyNotFound {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	now := time.Now()

	val, expired, _, derr := decodeWithTTL(entry.Value(), now)
	if derr != nil {
		return nil, derr
	}

	if expired {
		// lazy delete expired entry
		_ = n.kv.Delete(ek)
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return val, nil
}

// Set 设置键的值.
func (n *NATSKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	_, err = n.kv.Put(encodeNATSKey(key), encoded)
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(encodeNATSKey(key))
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	ek := encodeNATSKey(key)

	entry, err := n.kv.Get(ek)
	if err == nats.ErrKeyNotFound {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}

	_, expired, _, derr := decodeWithTTL(entry.Value(), time.Now())
	if derr != nil {
		return false, derr
	}

	if expired {
		_ = n.kv.Delete(ek)
		return false, nil
	}

	return true, nil
}

// List 按前缀分页列举键. NATS KV 没有原生游标，这里对全量键排序后以
// 最后返回的键作为游标，键集较小时开销可接受.
func (n *NATSKV) List(ctx context.Context, prefix string, cursor string, limit int) ([]string, string, error) {
	all, err := n.kv.Keys()
	if err != nil {
		if err == nats.ErrNoKeysFound {
			return nil, "", nil
		}

		return nil, "", fmt.Errorf("failed to get keys: %w", err)
	}

	if limit <= 0 {
		limit = 100
	}

	// 后端存的是编码后的键：前缀与游标先编码再比较，结果译回明文
	encPrefix := encodeNATSKey(prefix)
	encCursor := encodeNATSKey(cursor)

	matched := make([]string, 0, len(all))

	for _, key := range all {
		if !strings.HasPrefix(key, encPrefix) {
			continue
		}

		if encCursor != "" && key <= encCursor {
			continue
		}

		// check ttl lazily
		if entry, e := n.kv.Get(key); e == nil {
			if _, expired, _, derr := decodeWithTTL(entry.Value(), time.Now()); derr == nil && expired {
				_ = n.kv.Delete(key)
				continue
			}
		}

		matched = append(matched, key)
	}

	sort.Strings(matched)

	next := ""
	if len(matched) > limit {
		matched = matched[:limit]
		next = decodeNATSKey(matched[len(matched)-1])
	}

	for i, key := range matched {
		matched[i] = decodeNATSKey(key)
	}

	return matched, next, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
